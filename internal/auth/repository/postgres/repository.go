package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
)

// DB is the subset of pgxpool.Pool the repository needs; pgxmock satisfies
// it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository implements the user directory and the audit sink on Postgres.
type Repository struct {
	db DB
}

func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

const userColumns = `id, os_id, username, date_of_birth, passcode_hash, is_verified, is_setup_complete, last_login_at, created_at, updated_at`

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		hash *string
	)

	err := row.Scan(&user.ID, &user.OSID, &user.Username, &user.DateOfBirth, &hash,
		&user.IsVerified, &user.IsSetupComplete, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if hash != nil {
		user.PasscodeHash = *hash
	}

	return &user, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1
		LIMIT 1;
	`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return user, nil
}

// FindByIdentifier resolves a user by exact OS-ID or username match.
func (r *Repository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE os_id = $1 OR username = $1
		LIMIT 1;
	`

	user, err := r.scanUser(r.db.QueryRow(ctx, query, identifier))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by identifier: %w", err)
	}

	return user, nil
}

// SetPasscodeHash overwrites the stored hash in a single statement; the
// row-level write is the atomicity boundary for the passcode lifecycle.
func (r *Repository) SetPasscodeHash(ctx context.Context, userID, hash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET passcode_hash = $2, is_setup_complete = TRUE, updated_at = now()
		WHERE id = $1
	`, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to set passcode hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("no user with id %s", userID)
	}

	return nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE users
		SET last_login_at = now()
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// Append writes one audit entry. The table is append-only; nothing in this
// service updates or deletes rows from it.
func (r *Repository) Append(ctx context.Context, entry *domain.AuditLogEntry) error {
	var metadata []byte
	if entry.Metadata != nil {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
	}

	var userID *string
	if entry.UserID != "" {
		userID = &entry.UserID
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO audit_logs (id, user_id, event_type, input, result, reason, risk_level, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, entry.ID, userID, entry.EventType, entry.Input, entry.Result, entry.Reason, entry.RiskLevel, metadata, createdAt)
	if err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}
