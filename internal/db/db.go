package db

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS user_keys (
            user_id INT NOT NULL,
            version INT NOT NULL,
            public_key TEXT NOT NULL,
            encrypted_private_key TEXT NOT NULL,
            fingerprint TEXT NOT NULL,
            generated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(user_id, version)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            sender_id INT NOT NULL,
            receiver_id INT NOT NULL,
            session_id TEXT NOT NULL,
            encrypted_content TEXT NOT NULL,
            iv TEXT NOT NULL,
            auth_tag TEXT NOT NULL,
            sender_wrapped_key TEXT NOT NULL,
            receiver_wrapped_key TEXT NOT NULL,
            content_hash TEXT NOT NULL,
            message_type TEXT NOT NULL DEFAULT 'text',
            file_metadata JSONB,
            status TEXT NOT NULL DEFAULT 'sent',
            sent_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ,
            is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
            deleted_at TIMESTAMPTZ,
            reply_to UUID,
            CHECK (sender_id <> receiver_id),
            CHECK (status IN ('sent', 'delivered', 'read'))
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_sent
            ON messages(session_id, sent_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_unread
            ON messages(receiver_id) WHERE status <> 'read' AND is_deleted = FALSE;`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	log.Println("database migrations applied")
	return nil
}
