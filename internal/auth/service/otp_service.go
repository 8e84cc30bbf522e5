package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
	"github.com/onestepid/onestep-auth/internal/ratelimit"
	"github.com/onestepid/onestep-auth/pkg/constant"
)

const (
	eventOTPRequest = "OTP_REQUEST"
	eventOTPVerify  = "OTP_VERIFY"
)

type otpRecord struct {
	codeHash  string
	attempts  int
	expiresAt time.Time
}

// OTPService issues one-time login codes over an out-of-band channel and
// exchanges a valid code for a session. Codes are hashed at rest and held in
// an in-process map with explicit TTL; resend is rate-limited per client IP.
type OTPService struct {
	repo    domain.UserRepository
	hasher  domain.SecretHasher
	issuer  TokenIssuer
	sender  domain.CodeSender
	limiter ratelimit.Limiter
	audit   domain.AuditSink
	logger  *zap.Logger
	ttl     time.Duration

	mu      sync.Mutex
	pending map[string]*otpRecord // keyed by user ID
	done    chan struct{}
	now     func() time.Time
}

func NewOTPService(
	repo domain.UserRepository,
	hasher domain.SecretHasher,
	issuer TokenIssuer,
	sender domain.CodeSender,
	limiter ratelimit.Limiter,
	audit domain.AuditSink,
	ttl time.Duration,
	logger *zap.Logger,
) *OTPService {
	s := &OTPService{
		repo:    repo,
		hasher:  hasher,
		issuer:  issuer,
		sender:  sender,
		limiter: limiter,
		audit:   audit,
		logger:  logger,
		ttl:     ttl,
		pending: make(map[string]*otpRecord),
		done:    make(chan struct{}),
		now:     time.Now,
	}
	go s.sweep()

	return s
}

// Stop terminates the background expiry sweep.
func (s *OTPService) Stop() {
	close(s.done)
}

// Request generates and delivers a fresh code for the identified user,
// replacing any code still pending for them.
func (s *OTPService) Request(ctx context.Context, identifier, clientIP string) error {
	if !s.limiter.Allow(clientIP) {
		s.record(ctx, "", eventOTPRequest, "FAIL", "resend limit exceeded", domain.RiskMedium, map[string]any{
			"ip_address": clientIP,
		})
		return apperrors.ErrTooManyRequests
	}

	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		sysErr := apperrors.System("find user", err)
		s.record(ctx, "", eventOTPRequest, "FAIL", "internal error", domain.RiskHigh, nil)
		return sysErr
	}
	if user == nil {
		s.record(ctx, "", eventOTPRequest, "FAIL", "user not found", domain.RiskMedium, nil)
		return apperrors.ErrUserNotFound
	}

	code, err := generateCode()
	if err != nil {
		return apperrors.System("generate code", err)
	}

	hash, err := s.hasher.Hash(code)
	if err != nil {
		return apperrors.System("hash code", err)
	}

	s.mu.Lock()
	s.pending[user.ID] = &otpRecord{
		codeHash:  hash,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()

	if err := s.sender.Send(ctx, user, code); err != nil {
		s.mu.Lock()
		delete(s.pending, user.ID)
		s.mu.Unlock()

		sysErr := apperrors.System("deliver code", err)
		s.record(ctx, user.ID, eventOTPRequest, "FAIL", "delivery failed", domain.RiskHigh, nil)
		return sysErr
	}

	s.record(ctx, user.ID, eventOTPRequest, "PASS", "code issued", domain.RiskLow, nil)

	return nil
}

// Verify exchanges a pending code for an OTP session. A code is consumed on
// success; repeated mismatches consume it after the attempt cap.
func (s *OTPService) Verify(ctx context.Context, identifier, code string) (*domain.SessionCredential, error) {
	user, err := s.repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		sysErr := apperrors.System("find user", err)
		s.record(ctx, "", eventOTPVerify, "FAIL", "internal error", domain.RiskHigh, nil)
		return nil, sysErr
	}
	if user == nil {
		s.record(ctx, "", eventOTPVerify, "FAIL", "user not found", domain.RiskMedium, nil)
		return nil, apperrors.ErrUserNotFound
	}

	if err := s.consume(user.ID, code); err != nil {
		risk := domain.RiskMedium
		if err == apperrors.ErrPasscodeMismatch || err == apperrors.ErrOTPAttemptsExceeded {
			risk = domain.RiskHigh
		}
		s.record(ctx, user.ID, eventOTPVerify, "FAIL", err.Error(), risk, nil)

		return nil, err
	}

	cred, err := s.issuer.Issue(user, domain.MethodOTP)
	if err != nil {
		s.record(ctx, user.ID, eventOTPVerify, "FAIL", "internal error", domain.RiskHigh, nil)
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to update last login",
			zap.String("user_id", user.ID),
			zap.Error(err))
	}

	s.record(ctx, user.ID, eventOTPVerify, "PASS", "login successful", domain.RiskLow, map[string]any{
		"login_method": string(domain.MethodOTP),
	})

	return cred, nil
}

// consume validates the code against the pending record under the lock and
// removes the record when it is spent, expired, or exhausted.
func (s *OTPService) consume(userID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[userID]
	if !ok {
		return apperrors.ErrOTPExpired
	}

	if s.now().After(rec.expiresAt) {
		delete(s.pending, userID)
		return apperrors.ErrOTPExpired
	}

	if rec.attempts >= constant.MaxOTPAttempts {
		delete(s.pending, userID)
		return apperrors.ErrOTPAttemptsExceeded
	}

	if !s.hasher.Verify(code, rec.codeHash) {
		rec.attempts++
		return apperrors.ErrPasscodeMismatch
	}

	delete(s.pending, userID)

	return nil
}

func (s *OTPService) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			now := s.now()
			s.mu.Lock()
			for id, rec := range s.pending {
				if now.After(rec.expiresAt) {
					delete(s.pending, id)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *OTPService) record(ctx context.Context, userID, event, result, reason string, risk domain.RiskLevel, metadata map[string]any) {
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

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}
