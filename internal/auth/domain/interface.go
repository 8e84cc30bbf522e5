package domain

import "context"

//go:generate mockgen -destination=../../mocks/mock_domain.go -package=mocks github.com/onestepid/onestep-auth/internal/auth/domain UserRepository,AuditSink,SecretHasher,CodeSender

// UserRepository is the external user directory. Lookups return (nil, nil)
// when no record matches.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	FindByIdentifier(ctx context.Context, identifier string) (*User, error)
	SetPasscodeHash(ctx context.Context, userID, hash string) error
	UpdateLastLogin(ctx context.Context, userID string) error
}

// AuditSink receives security-event records. Appends are best effort: a
// failed append must never fail the operation that produced the entry.
type AuditSink interface {
	Append(ctx context.Context, entry *AuditLogEntry) error
}

// SecretHasher is the one-way hashing collaborator for short numeric
// secrets. Implementations must use a deliberately slow, salted function.
type SecretHasher interface {
	Hash(secret string) (string, error)
	Verify(secret, digest string) bool
}

// CodeSender delivers a one-time code over an out-of-band channel.
type CodeSender interface {
	Send(ctx context.Context, user *User, code string) error
}
