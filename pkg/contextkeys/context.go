package contextkeys

// Custom key type avoids collisions with other context values.
type contextKey string

// DBContextKey is where the request-scoped *gorm.DB handle lives. Tests put a
// transaction here so every request in a test case rolls back together.
const DBContextKey = contextKey("db")
