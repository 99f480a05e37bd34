package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messaging-service/internal/errs"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
)

// MessageRepository is the durable store of ciphertext envelopes. Crypto
// fields are immutable after Append; only status and tombstone fields ever
// change, and status moves forward only.
type MessageRepository interface {
	Append(ctx context.Context, env models.MessageEnvelope) (models.MessageEnvelope, error)
	GetEnvelope(ctx context.Context, id string) (models.MessageEnvelope, error)
	ListConversation(ctx context.Context, sessionID string, limit, offset int) ([]models.MessageEnvelope, error)
	MarkDelivered(ctx context.Context, id string) error
	MarkRead(ctx context.Context, sessionID string, viewerID int) (int, error)
	SoftDelete(ctx context.Context, id string, requesterID int) error
	CountUnread(ctx context.Context, userID int) (int, error)
	LatestPerSession(ctx context.Context, userID, limit int) ([]models.MessageEnvelope, error)
	UnreadPerSession(ctx context.Context, userID int) (map[string]int, error)
}

const envelopeColumns = `id, sender_id, receiver_id, session_id, encrypted_content, iv, auth_tag,
        sender_wrapped_key, receiver_wrapped_key, content_hash, message_type, file_metadata,
        status, sent_at, read_at, is_deleted, deleted_at, reply_to`

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append persists one envelope atomically with status=sent. The envelope
// is validated before the insert so a partial record is never visible.
func (r *MessageRepo) Append(ctx context.Context, env models.MessageEnvelope) (models.MessageEnvelope, error) {
	if err := env.Validate(); err != nil {
		return models.MessageEnvelope{}, err
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.MessageType == "" {
		env.MessageType = models.TypeText
	}
	env.SessionID = models.SessionIDFor(env.SenderID, env.ReceiverID)
	env.Status = models.StatusSent
	env.SentAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `INSERT INTO messages
        (id, sender_id, receiver_id, session_id, encrypted_content, iv, auth_tag,
         sender_wrapped_key, receiver_wrapped_key, content_hash, message_type, file_metadata,
         status, sent_at, reply_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		env.ID, env.SenderID, env.ReceiverID, env.SessionID, env.EncryptedContent, env.IV, env.AuthTag,
		env.SenderWrappedKey, env.ReceiverWrappedKey, env.ContentHash, env.MessageType, env.FileMetadata,
		env.Status, env.SentAt, env.ReplyTo)
	if err != nil {
		return models.MessageEnvelope{}, err
	}
	observability.IncMessageAppended()
	return env, nil
}

// GetEnvelope retrieves one envelope by id.
func (r *MessageRepo) GetEnvelope(ctx context.Context, id string) (models.MessageEnvelope, error) {
	var env models.MessageEnvelope
	err := r.db.GetContext(ctx, &env, `SELECT `+envelopeColumns+` FROM messages WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.MessageEnvelope{}, errs.ErrMessageNotFound
	}
	return env, err
}

// ListConversation returns a session page newest-first, excluding
// tombstones. Content is returned as stored; decryption is the viewer's
// concern.
func (r *MessageRepo) ListConversation(ctx context.Context, sessionID string, limit, offset int) ([]models.MessageEnvelope, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	var envs []models.MessageEnvelope
	err := r.db.SelectContext(ctx, &envs, `SELECT `+envelopeColumns+` FROM messages
        WHERE session_id=$1 AND is_deleted = FALSE
        ORDER BY sent_at DESC
        LIMIT $2 OFFSET $3`, sessionID, limit, offset)
	return envs, err
}

// MarkDelivered advances sent -> delivered. A read message is left alone:
// status never regresses.
func (r *MessageRepo) MarkDelivered(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE messages SET status='delivered'
        WHERE id=$1 AND status='sent'`, id)
	return err
}

// MarkRead stamps every unread envelope addressed to the viewer in the
// session. Idempotent: repeated or concurrent calls affect no extra rows
// and never touch read_at twice.
func (r *MessageRepo) MarkRead(ctx context.Context, sessionID string, viewerID int) (int, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET status='read', read_at=NOW()
        WHERE session_id=$1 AND receiver_id=$2 AND status <> 'read'`, sessionID, viewerID)
	if err != nil {
		return 0, err
	}
	count, err := res.RowsAffected()
	return int(count), err
}

// SoftDelete tombstones a message. Only a participant may delete; content
// stays in storage unless a hard-erase collaborator acts.
func (r *MessageRepo) SoftDelete(ctx context.Context, id string, requesterID int) error {
	env, err := r.GetEnvelope(ctx, id)
	if err != nil {
		return err
	}
	if !env.Participant(requesterID) {
		return errs.ErrNotParticipant
	}
	_, err = r.db.ExecContext(ctx, `UPDATE messages SET is_deleted=TRUE, deleted_at=NOW()
        WHERE id=$1 AND is_deleted=FALSE`, id)
	return err
}

// CountUnread counts non-deleted envelopes addressed to the user that are
// not yet read.
func (r *MessageRepo) CountUnread(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages
        WHERE receiver_id=$1 AND status <> 'read' AND is_deleted = FALSE`, userID)
	return count, err
}

// LatestPerSession returns the newest non-deleted envelope of each session
// the user participates in, most recent sessions first.
func (r *MessageRepo) LatestPerSession(ctx context.Context, userID, limit int) ([]models.MessageEnvelope, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var envs []models.MessageEnvelope
	err := r.db.SelectContext(ctx, &envs, `SELECT `+envelopeColumns+` FROM (
            SELECT DISTINCT ON (session_id) `+envelopeColumns+` FROM messages
            WHERE (sender_id=$1 OR receiver_id=$1) AND is_deleted = FALSE
            ORDER BY session_id, sent_at DESC
        ) latest
        ORDER BY sent_at DESC
        LIMIT $2`, userID, limit)
	return envs, err
}

// UnreadPerSession groups the user's unread counts by session.
func (r *MessageRepo) UnreadPerSession(ctx context.Context, userID int) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT session_id, COUNT(*) FROM messages
        WHERE receiver_id=$1 AND status <> 'read' AND is_deleted = FALSE
        GROUP BY session_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var sessionID string
		var count int
		if err := rows.Scan(&sessionID, &count); err != nil {
			return nil, err
		}
		counts[sessionID] = count
	}
	return counts, rows.Err()
}
