package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	"github.com/onestepid/onestep-auth/internal/auth/service"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
	"github.com/onestepid/onestep-auth/internal/mocks"
)

type otpFixture struct {
	repo    *mocks.MockUserRepository
	hasher  *mocks.MockSecretHasher
	issuer  *mocks.MockTokenIssuer
	sender  *mocks.MockCodeSender
	limiter *mocks.MockLimiter
	audit   *mocks.MockAuditSink
	svc     *service.OTPService
}

func newOTPFixture(t *testing.T) *otpFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &otpFixture{
		repo:    mocks.NewMockUserRepository(ctrl),
		hasher:  mocks.NewMockSecretHasher(ctrl),
		issuer:  mocks.NewMockTokenIssuer(ctrl),
		sender:  mocks.NewMockCodeSender(ctrl),
		limiter: mocks.NewMockLimiter(ctrl),
		audit:   mocks.NewMockAuditSink(ctrl),
	}
	f.svc = service.NewOTPService(f.repo, f.hasher, f.issuer, f.sender, f.limiter, f.audit, 5*time.Minute, zap.NewNop())
	t.Cleanup(f.svc.Stop)

	return f
}

func TestOTPService_Request_Success(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()

	var sentCode string

	f.limiter.EXPECT().Allow("203.0.113.7").Return(true)
	f.repo.EXPECT().FindByIdentifier(gomock.Any(), "OS-7F3K9").Return(user, nil)
	f.hasher.EXPECT().Hash(gomock.Any()).
		DoAndReturn(func(code string) (string, error) {
			assert.Len(t, code, 6)
			return "hashed-" + code, nil
		})
	f.sender.EXPECT().Send(gomock.Any(), user, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.User, code string) error {
			sentCode = code
			return nil
		})
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	err := f.svc.Request(context.Background(), "OS-7F3K9", "203.0.113.7")
	require.NoError(t, err)
	assert.Len(t, sentCode, 6)
}

func TestOTPService_Request_RateLimited(t *testing.T) {
	f := newOTPFixture(t)

	// no repo or sender expectations: the limiter cuts the request off first
	f.limiter.EXPECT().Allow("203.0.113.7").Return(false)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
			assert.Equal(t, domain.RiskMedium, e.RiskLevel)
			return nil
		})

	err := f.svc.Request(context.Background(), "OS-7F3K9", "203.0.113.7")
	assert.ErrorIs(t, err, apperrors.ErrTooManyRequests)
}

func TestOTPService_Request_UnknownUser(t *testing.T) {
	f := newOTPFixture(t)

	f.limiter.EXPECT().Allow(gomock.Any()).Return(true)
	f.repo.EXPECT().FindByIdentifier(gomock.Any(), "ghost").Return(nil, nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	err := f.svc.Request(context.Background(), "ghost", "203.0.113.7")
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func requestCode(t *testing.T, f *otpFixture, user *domain.User) string {
	t.Helper()

	var sentCode string
	f.limiter.EXPECT().Allow(gomock.Any()).Return(true)
	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil)
	f.hasher.EXPECT().Hash(gomock.Any()).
		DoAndReturn(func(code string) (string, error) { return "hashed-" + code, nil })
	f.sender.EXPECT().Send(gomock.Any(), user, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ *domain.User, code string) error {
			sentCode = code
			return nil
		})
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	require.NoError(t, f.svc.Request(context.Background(), user.OSID, "203.0.113.7"))

	return sentCode
}

func TestOTPService_Verify_Success(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()
	code := requestCode(t, f, user)
	cred := &domain.SessionCredential{Token: "signed", LoginMethod: domain.MethodOTP}

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil)
	f.hasher.EXPECT().Verify(code, "hashed-"+code).Return(true)
	f.issuer.EXPECT().Issue(user, domain.MethodOTP).Return(cred, nil)
	f.repo.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	got, err := f.svc.Verify(context.Background(), user.OSID, code)
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestOTPService_Verify_CodeIsSingleUse(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()
	code := requestCode(t, f, user)
	cred := &domain.SessionCredential{Token: "signed"}

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil).Times(2)
	f.hasher.EXPECT().Verify(code, "hashed-"+code).Return(true)
	f.issuer.EXPECT().Issue(user, domain.MethodOTP).Return(cred, nil)
	f.repo.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := f.svc.Verify(context.Background(), user.OSID, code)
	require.NoError(t, err)

	_, err = f.svc.Verify(context.Background(), user.OSID, code)
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
}

func TestOTPService_Verify_NoPendingCode(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Verify(context.Background(), user.OSID, "123456")
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
}

func TestOTPService_Verify_AttemptCap(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()
	code := requestCode(t, f, user)

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil).Times(4)
	f.hasher.EXPECT().Verify("000000", "hashed-"+code).Return(false).Times(3)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil).Times(4)

	for i := 0; i < 3; i++ {
		_, err := f.svc.Verify(context.Background(), user.OSID, "000000")
		assert.ErrorIs(t, err, apperrors.ErrPasscodeMismatch)
	}

	// fourth attempt hits the cap and consumes the record
	_, err := f.svc.Verify(context.Background(), user.OSID, "000000")
	assert.ErrorIs(t, err, apperrors.ErrOTPAttemptsExceeded)
}

func TestOTPService_Request_DeliveryFailureClearsPendingCode(t *testing.T) {
	f := newOTPFixture(t)
	user := verifiedUser()

	f.limiter.EXPECT().Allow(gomock.Any()).Return(true)
	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil)
	f.hasher.EXPECT().Hash(gomock.Any()).Return("hashed", nil)
	f.sender.EXPECT().Send(gomock.Any(), user, gomock.Any()).Return(assert.AnError)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	err := f.svc.Request(context.Background(), user.OSID, "203.0.113.7")
	assert.True(t, apperrors.IsSystem(err))

	// nothing left to verify against
	f.repo.EXPECT().FindByIdentifier(gomock.Any(), user.OSID).Return(user, nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	_, err = f.svc.Verify(context.Background(), user.OSID, "123456")
	assert.ErrorIs(t, err, apperrors.ErrOTPExpired)
}
