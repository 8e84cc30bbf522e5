package service

//go:generate mockgen -destination=../../mocks/mock_token_issuer.go -package=mocks github.com/onestepid/onestep-auth/internal/auth/service TokenIssuer

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
)

// SessionClaims is the fixed claim set carried by a session token.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID          string `json:"user_id"`
	OSID            string `json:"os_id"`
	Username        string `json:"username"`
	IsSetupComplete bool   `json:"is_setup_complete"`
	IsVerified      bool   `json:"is_verified"`
	LoginMethod     string `json:"login_method"`
}

// TokenIssuer issues and verifies signed session credentials.
type TokenIssuer interface {
	Issue(user *domain.User, method domain.LoginMethod) (*domain.SessionCredential, error)
	Verify(tokenString string) (*SessionClaims, error)
}

// SessionService signs session tokens with symmetric HMAC. Biometric logins
// get a longer-lived session than passcode and OTP logins.
type SessionService struct {
	secret          string
	passcodeExpiry  time.Duration
	biometricExpiry time.Duration
}

func NewSessionService(secret string, passcodeDays, biometricDays int) *SessionService {
	return &SessionService{
		secret:          secret,
		passcodeExpiry:  time.Duration(passcodeDays) * 24 * time.Hour,
		biometricExpiry: time.Duration(biometricDays) * 24 * time.Hour,
	}
}

func (s *SessionService) expiryFor(method domain.LoginMethod) time.Duration {
	if method == domain.MethodBiometric {
		return s.biometricExpiry
	}
	return s.passcodeExpiry
}

// Issue builds and signs a credential for the user. The returned token is
// the unit of trust; callers must never write it to logs.
func (s *SessionService) Issue(user *domain.User, method domain.LoginMethod) (*domain.SessionCredential, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiryFor(method))

	claims := SessionClaims{
		UserID:          user.ID,
		OSID:            user.OSID,
		Username:        user.Username,
		IsSetupComplete: user.IsSetupComplete,
		IsVerified:      user.IsVerified,
		LoginMethod:     string(method),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return nil, apperrors.System("sign session token", err)
	}

	return &domain.SessionCredential{
		Token:           token,
		UserID:          user.ID,
		OSID:            user.OSID,
		Username:        user.Username,
		IsSetupComplete: user.IsSetupComplete,
		IsVerified:      user.IsVerified,
		LoginMethod:     method,
		IssuedAt:        now,
		ExpiresAt:       expiresAt,
	}, nil
}

// Verify parses and validates a session token string.
func (s *SessionService) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
