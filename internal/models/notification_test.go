package models

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationDataColumnIsDialectNeutral(t *testing.T) {
	t.Parallel()

	// The schema runs on postgres and mysql. A hardcoded column type in the
	// tag would override datatypes.JSON's per-dialect DDL and break
	// AutoMigrate on whichever driver the type does not belong to.
	field, ok := reflect.TypeOf(Notification{}).FieldByName("Data")
	require.True(t, ok)
	assert.NotContains(t, field.Tag.Get("gorm"), "type:")
}
