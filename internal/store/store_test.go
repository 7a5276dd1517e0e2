package store

// Compile-time checks that both backends satisfy the Store interface.
var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
