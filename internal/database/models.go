package database

// conversationRow is one user's conversation header. Timestamps are Unix nanoseconds.
type conversationRow struct {
	UserID     int64 `db:"user_id"`
	CreatedAt  int64 `db:"created_at"`
	LastActive int64 `db:"last_active"`
}

// messageRow is one stored history entry.
type messageRow struct {
	ID        int64  `db:"id"`
	UserID    int64  `db:"user_id"`
	Role      string `db:"role"`
	Content   string `db:"content"`
	CreatedAt int64  `db:"created_at"`
}
