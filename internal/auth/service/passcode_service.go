package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	"github.com/onestepid/onestep-auth/internal/avv"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
	"github.com/onestepid/onestep-auth/pkg/constant"
)

const (
	eventPasscodeCreate = "PASSCODE_CREATE"
	eventPasscodeVerify = "PASSCODE_VERIFY"
)

// PasscodeService owns the passcode lifecycle: a passcode is only persisted
// after it clears the strength scorer and the personal-data correlator, and
// every create/verify attempt leaves exactly one audit entry.
type PasscodeService struct {
	repo   domain.UserRepository
	hasher domain.SecretHasher
	issuer TokenIssuer
	audit  domain.AuditSink
	logger *zap.Logger
}

func NewPasscodeService(
	repo domain.UserRepository,
	hasher domain.SecretHasher,
	issuer TokenIssuer,
	audit domain.AuditSink,
	logger *zap.Logger,
) *PasscodeService {
	return &PasscodeService{
		repo:   repo,
		hasher: hasher,
		issuer: issuer,
		audit:  audit,
		logger: logger,
	}
}

// Create validates and stores a new passcode for the authenticated user,
// overwriting any prior one. On a strength rejection the returned feedback
// list tells the caller what to fix. Nothing is persisted on any rejection.
func (s *PasscodeService) Create(ctx context.Context, userID, secret string) ([]string, error) {
	rep, err := avv.ScoreStrength(secret)
	if err != nil {
		s.record(ctx, userID, eventPasscodeCreate, "FAIL", "malformed passcode", domain.RiskLow, nil)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	if rep.IsWeak {
		s.record(ctx, userID, eventPasscodeCreate, "FAIL", "weak passcode", domain.RiskLow, map[string]any{
			"score":    rep.Score,
			"feedback": rep.Feedback,
		})
		return rep.Feedback, apperrors.ErrWeakSecret
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		sysErr := apperrors.System("load user", err)
		s.recordSystemFailure(ctx, userID, eventPasscodeCreate, sysErr)
		return nil, sysErr
	}
	if user == nil {
		s.record(ctx, userID, eventPasscodeCreate, "FAIL", "user not found", domain.RiskMedium, nil)
		return nil, apperrors.ErrUserNotFound
	}

	if user.DateOfBirth != nil && avv.IsRelatedToDOB(secret, *user.DateOfBirth) {
		s.record(ctx, userID, eventPasscodeCreate, "FAIL", "passcode is derived from personal data", domain.RiskLow, nil)
		return nil, apperrors.ErrPersonalDataCorrelation
	}

	hash, err := s.hasher.Hash(secret)
	if err != nil {
		sysErr := apperrors.System("hash passcode", err)
		s.recordSystemFailure(ctx, userID, eventPasscodeCreate, sysErr)
		return nil, sysErr
	}

	if err := s.repo.SetPasscodeHash(ctx, user.ID, hash); err != nil {
		sysErr := apperrors.System("persist passcode hash", err)
		s.recordSystemFailure(ctx, userID, eventPasscodeCreate, sysErr)
		return nil, sysErr
	}

	s.record(ctx, user.ID, eventPasscodeCreate, "PASS", "passcode configured", domain.RiskLow, nil)

	return nil, nil
}

// Verify resolves the user by exact identifier match, compares the secret
// against the stored hash, and issues a passcode session on success. The
// audit reasons distinguish the failure modes; callers must collapse them
// into one uniform client error.
func (s *PasscodeService) Verify(ctx context.Context, identifier, secret string) (*domain.SessionCredential, error) {
	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		sysErr := apperrors.System("find user", err)
		s.recordSystemFailure(ctx, "", eventPasscodeVerify, sysErr)
		return nil, sysErr
	}
	if user == nil {
		s.record(ctx, "", eventPasscodeVerify, "FAIL", "user not found", domain.RiskMedium, nil)
		return nil, apperrors.ErrUserNotFound
	}

	if user.PasscodeHash == "" {
		s.record(ctx, user.ID, eventPasscodeVerify, "FAIL", "no passcode configured", domain.RiskMedium, nil)
		return nil, apperrors.ErrNoSecretConfigured
	}

	if !user.IsVerified {
		s.record(ctx, user.ID, eventPasscodeVerify, "FAIL", "account not verified", domain.RiskMedium, nil)
		return nil, apperrors.ErrUnverifiedAccount
	}

	if !s.hasher.Verify(secret, user.PasscodeHash) {
		// escalated above not-found: a wrong secret against a known account
		// indicates an active guessing attempt
		s.record(ctx, user.ID, eventPasscodeVerify, "FAIL", "passcode mismatch", domain.RiskHigh, nil)
		return nil, apperrors.ErrPasscodeMismatch
	}

	cred, err := s.issuer.Issue(user, domain.MethodPasscode)
	if err != nil {
		s.recordSystemFailure(ctx, user.ID, eventPasscodeVerify, err)
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	s.record(ctx, user.ID, eventPasscodeVerify, "PASS", "login successful", domain.RiskLow, map[string]any{
		"login_method": string(domain.MethodPasscode),
	})

	return cred, nil
}

func (s *PasscodeService) recordSystemFailure(ctx context.Context, userID, event string, err error) {
	s.record(ctx, userID, event, "FAIL", "internal error", domain.RiskHigh, map[string]any{
		"error": err.Error(),
	})
}

func (s *PasscodeService) record(ctx context.Context, userID, event, result, reason string, risk domain.RiskLevel, metadata map[string]any) {
	entry := &domain.AuditLogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		EventType: event,
		Input:     constant.RedactedInput,
		Result:    result,
		Reason:    reason,
		RiskLevel: risk,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	if err := s.audit.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.String("event_type", event),
			zap.Error(err))
	}
}
