package service_test

import (
	"context"
	"errors"
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
	"github.com/onestepid/onestep-auth/pkg/constant"
)

type passcodeFixture struct {
	repo   *mocks.MockUserRepository
	hasher *mocks.MockSecretHasher
	issuer *mocks.MockTokenIssuer
	audit  *mocks.MockAuditSink
	svc    *service.PasscodeService
}

func newPasscodeFixture(t *testing.T) *passcodeFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &passcodeFixture{
		repo:   mocks.NewMockUserRepository(ctrl),
		hasher: mocks.NewMockSecretHasher(ctrl),
		issuer: mocks.NewMockTokenIssuer(ctrl),
		audit:  mocks.NewMockAuditSink(ctrl),
	}
	f.svc = service.NewPasscodeService(f.repo, f.hasher, f.issuer, f.audit, zap.NewNop())

	return f
}

func verifiedUser() *domain.User {
	dob := time.Date(2002, time.April, 15, 0, 0, 0, 0, time.UTC)
	return &domain.User{
		ID:           "user-1",
		OSID:         "OS-7F3K9",
		Username:     "johnd",
		DateOfBirth:  &dob,
		PasscodeHash: "$2a$10$stored",
		IsVerified:   true,
	}
}

func TestPasscodeService_Create_Success(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser()

	f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.hasher.EXPECT().Hash("194736").Return("$2a$10$new", nil)
	f.repo.EXPECT().SetPasscodeHash(gomock.Any(), user.ID, "$2a$10$new").Return(nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
			assert.Equal(t, "PASS", e.Result)
			assert.Equal(t, domain.RiskLow, e.RiskLevel)
			assert.Equal(t, constant.RedactedInput, e.Input)
			return nil
		})

	feedback, err := f.svc.Create(context.Background(), user.ID, "194736")
	require.NoError(t, err)
	assert.Empty(t, feedback)
}

func TestPasscodeService_Create_WeakSecretNeverPersists(t *testing.T) {
	f := newPasscodeFixture(t)

	// no GetByID, Hash, or SetPasscodeHash expectations: a weak secret must
	// be rejected before any collaborator is touched
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	feedback, err := f.svc.Create(context.Background(), "user-1", "111111")
	assert.ErrorIs(t, err, apperrors.ErrWeakSecret)
	assert.Contains(t, feedback, "This passcode is too common and easily guessed")
	assert.Contains(t, feedback, "Avoid obvious patterns like 111111 or 123456")
}

func TestPasscodeService_Create_RejectsDOBRelatedSecret(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser() // DOB 2002-04-15; "041502" embeds month+day "0415"

	f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
			assert.Equal(t, "FAIL", e.Result)
			assert.Equal(t, constant.RedactedInput, e.Input)
			return nil
		})

	_, err := f.svc.Create(context.Background(), user.ID, "041502")
	assert.ErrorIs(t, err, apperrors.ErrPersonalDataCorrelation)
}

func TestPasscodeService_Create_NoDOBSkipsCorrelation(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser()
	user.DateOfBirth = nil

	f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.hasher.EXPECT().Hash("194736").Return("$2a$10$new", nil)
	f.repo.EXPECT().SetPasscodeHash(gomock.Any(), user.ID, "$2a$10$new").Return(nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Create(context.Background(), user.ID, "194736")
	assert.NoError(t, err)
}

func TestPasscodeService_Create_MalformedSecret(t *testing.T) {
	f := newPasscodeFixture(t)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	_, err := f.svc.Create(context.Background(), "user-1", "12345")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestPasscodeService_Create_PersistFailureIsSystemError(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser()

	f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
	f.hasher.EXPECT().Hash("194736").Return("$2a$10$new", nil)
	f.repo.EXPECT().SetPasscodeHash(gomock.Any(), user.ID, "$2a$10$new").Return(errors.New("connection reset"))
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
			assert.Equal(t, domain.RiskHigh, e.RiskLevel)
			return nil
		})

	_, err := f.svc.Create(context.Background(), user.ID, "194736")
	assert.True(t, apperrors.IsSystem(err))
}

func TestPasscodeService_Verify_Success(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser()
	cred := &domain.SessionCredential{Token: "signed", UserID: user.ID, LoginMethod: domain.MethodPasscode}

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), "OS-7F3K9").Return(user, nil)
	f.hasher.EXPECT().Verify("194736", user.PasscodeHash).Return(true)
	f.issuer.EXPECT().Issue(user, domain.MethodPasscode).Return(cred, nil)
	f.repo.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(nil)
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
			assert.Equal(t, "PASS", e.Result)
			assert.Equal(t, domain.RiskLow, e.RiskLevel)
			return nil
		})

	got, err := f.svc.Verify(context.Background(), "OS-7F3K9", "194736")
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}

func TestPasscodeService_Verify_FailureModes(t *testing.T) {
	tests := []struct {
		name       string
		user       func() *domain.User
		hasherHit  bool
		wantErr    error
		wantRisk   domain.RiskLevel
		wantReason string
	}{
		{
			name:       "unknown identifier",
			user:       func() *domain.User { return nil },
			wantErr:    apperrors.ErrUserNotFound,
			wantRisk:   domain.RiskMedium,
			wantReason: "user not found",
		},
		{
			name: "no passcode configured",
			user: func() *domain.User {
				u := verifiedUser()
				u.PasscodeHash = ""
				return u
			},
			wantErr:    apperrors.ErrNoSecretConfigured,
			wantRisk:   domain.RiskMedium,
			wantReason: "no passcode configured",
		},
		{
			name: "unverified account",
			user: func() *domain.User {
				u := verifiedUser()
				u.IsVerified = false
				return u
			},
			wantErr:    apperrors.ErrUnverifiedAccount,
			wantRisk:   domain.RiskMedium,
			wantReason: "account not verified",
		},
		{
			name:       "wrong secret escalates to high risk",
			user:       verifiedUser,
			hasherHit:  true,
			wantErr:    apperrors.ErrPasscodeMismatch,
			wantRisk:   domain.RiskHigh,
			wantReason: "passcode mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPasscodeFixture(t)
			user := tt.user()

			f.repo.EXPECT().FindByIdentifier(gomock.Any(), "OS-7F3K9").Return(user, nil)
			if tt.hasherHit {
				f.hasher.EXPECT().Verify("999999", user.PasscodeHash).Return(false)
			}
			f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, e *domain.AuditLogEntry) error {
					assert.Equal(t, tt.wantRisk, e.RiskLevel)
					assert.Equal(t, tt.wantReason, e.Reason)
					return nil
				})

			cred, err := f.svc.Verify(context.Background(), "OS-7F3K9", "999999")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, cred)
		})
	}
}

func TestPasscodeService_Verify_LastLoginFailureDoesNotFailLogin(t *testing.T) {
	f := newPasscodeFixture(t)
	user := verifiedUser()
	cred := &domain.SessionCredential{Token: "signed"}

	f.repo.EXPECT().FindByIdentifier(gomock.Any(), "johnd").Return(user, nil)
	f.hasher.EXPECT().Verify("194736", user.PasscodeHash).Return(true)
	f.issuer.EXPECT().Issue(user, domain.MethodPasscode).Return(cred, nil)
	f.repo.EXPECT().UpdateLastLogin(gomock.Any(), user.ID).Return(errors.New("timeout"))
	f.audit.EXPECT().Append(gomock.Any(), gomock.Any()).Return(nil)

	got, err := f.svc.Verify(context.Background(), "johnd", "194736")
	require.NoError(t, err)
	assert.Equal(t, cred, got)
}
