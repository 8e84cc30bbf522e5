package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
)

// DevSender is a development stand-in for the out-of-band delivery channel
// (the production deployment wires a messaging-bot sender here). It logs the
// code at debug level only, so production log configurations never emit it.
type DevSender struct {
	Logger *zap.Logger
}

func (s *DevSender) Send(_ context.Context, user *domain.User, code string) error {
	s.Logger.Debug("one-time code issued",
		zap.String("user_id", user.ID),
		zap.String("code", code))

	return nil
}
