package repositories

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchAllPages_AccumulatesUntilShortPage(t *testing.T) {
	t.Parallel()

	// 7 items served in pages of 3: two full pages and one short page.
	source := []int{1, 2, 3, 4, 5, 6, 7}
	var calls []int

	got, err := FetchAllPages(3, func(limit, offset int) ([]int, error) {
		calls = append(calls, offset)
		end := offset + limit
		if end > len(source) {
			end = len(source)
		}
		if offset >= len(source) {
			return nil, nil
		}
		return source[offset:end], nil
	})

	assert.NoError(t, err)
	assert.Equal(t, source, got)
	assert.Equal(t, []int{0, 3, 6}, calls, "short page must stop the loop")
}

func TestFetchAllPages_ExactMultipleMakesOneExtraCall(t *testing.T) {
	t.Parallel()

	source := []int{1, 2, 3, 4, 5, 6}
	var calls int

	got, err := FetchAllPages(3, func(limit, offset int) ([]int, error) {
		calls++
		if offset >= len(source) {
			return nil, nil
		}
		return source[offset : offset+limit], nil
	})

	assert.NoError(t, err)
	assert.Equal(t, source, got)
	assert.Equal(t, 3, calls, "an empty trailing page ends the loop")
}

func TestFetchAllPages_PropagatesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db gone")
	got, err := FetchAllPages(10, func(limit, offset int) ([]string, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestFetchAllPages_EmptySource(t *testing.T) {
	t.Parallel()

	got, err := FetchAllPages(10, func(limit, offset int) ([]int, error) {
		return nil, nil
	})

	assert.NoError(t, err)
	assert.Empty(t, got)
}
