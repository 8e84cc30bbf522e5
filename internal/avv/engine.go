package avv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/onestepid/onestep-auth/internal/auth/domain"
	apperrors "github.com/onestepid/onestep-auth/internal/errors"
	"github.com/onestepid/onestep-auth/pkg/constant"
)

// Engine dispatches check requests to the matching heuristic and records one
// audit entry per evaluated request. It is stateless; identical requests
// always produce identical verdicts.
type Engine struct {
	audit  domain.AuditSink
	env    string
	logger *zap.Logger
}

func NewEngine(audit domain.AuditSink, env string, logger *zap.Logger) *Engine {
	return &Engine{audit: audit, env: env, logger: logger}
}

// Check evaluates a single request. Unknown check types yield a WARNING
// verdict rather than an error; a malformed request (bad secret format,
// unparseable biometric payload) returns ErrValidation and no verdict.
func (e *Engine) Check(ctx context.Context, req CheckRequest) (Verdict, error) {
	v, err := e.evaluate(req)
	if err != nil {
		return Verdict{}, err
	}

	e.record(ctx, req, v)

	return v, nil
}

func (e *Engine) evaluate(req CheckRequest) (Verdict, error) {
	switch req.Type {
	case CheckStrength:
		return e.checkStrength(req)
	case CheckPersonalData:
		return e.checkPersonalData(req)
	case CheckBiometricQuality:
		return e.checkBiometricQuality(req)
	case CheckDeviceTrust:
		return e.checkDeviceTrust(req), nil
	case CheckBehavioral:
		return e.checkBehavioral(req), nil
	default:
		return Verdict{
			Result: ResultWarning,
			Reason: "check type not implemented",
		}, nil
	}
}

func (e *Engine) checkStrength(req CheckRequest) (Verdict, error) {
	rep, err := ScoreStrength(req.Input)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	v := Verdict{
		Result: ResultPass,
		Score:  intPtr(rep.Score),
		Metadata: map[string]any{
			"isWeak": rep.IsWeak,
		},
	}
	if rep.IsWeak {
		v.Result = ResultFail
		v.Reason = strings.Join(rep.Feedback, "; ")
		v.Metadata["feedback"] = rep.Feedback
	}

	return v, nil
}

func (e *Engine) checkPersonalData(req CheckRequest) (Verdict, error) {
	// Missing correlating data degrades to WARNING; it is not a security
	// failure when a user has no date of birth on file.
	if req.Context.DateOfBirth == "" {
		return Verdict{
			Result: ResultWarning,
			Reason: "no date of birth available for correlation",
		}, nil
	}

	dob, err := time.Parse("2006-01-02", req.Context.DateOfBirth)
	if err != nil {
		return Verdict{}, fmt.Errorf("%w: invalid dateOfBirth", apperrors.ErrValidation)
	}

	if IsRelatedToDOB(req.Input, dob) {
		return Verdict{
			Result: ResultFail,
			Reason: "passcode is derived from personal data",
		}, nil
	}

	return Verdict{Result: ResultPass}, nil
}

func (e *Engine) checkBiometricQuality(req CheckRequest) (Verdict, error) {
	score, missing, ok := scoreBiometricQuality(req.Input)
	if !ok {
		return Verdict{}, fmt.Errorf("%w: biometric payload is not valid JSON", apperrors.ErrValidation)
	}

	v := Verdict{
		Result: resultForScore(score, biometricPassAt, biometricWarnAt),
		Score:  intPtr(score),
	}
	if len(missing) > 0 {
		v.Reason = "incomplete enrollment payload"
		v.Metadata = map[string]any{"missing": missing}
	}

	return v, nil
}

func (e *Engine) checkDeviceTrust(req CheckRequest) Verdict {
	score, flags := scoreDeviceTrust(req.Context.UserAgent, req.Context.IPAddress, e.env)

	v := Verdict{
		Result: resultForScore(score, heuristicPassAt, heuristicWarnAt),
		Score:  intPtr(score),
	}
	if len(flags) > 0 {
		v.Metadata = map[string]any{"flags": flags}
	}

	return v
}

func (e *Engine) checkBehavioral(req CheckRequest) Verdict {
	score, flags := scoreBehavioral(req.Input, req.Context.InputTimeMs)

	v := Verdict{
		Result: resultForScore(score, heuristicPassAt, heuristicWarnAt),
		Score:  intPtr(score),
	}
	if len(flags) > 0 {
		v.Metadata = map[string]any{"flags": flags}
	}

	return v
}

// record appends the audit entry for an evaluated request. Secret-bearing
// inputs are replaced with the redaction marker; everything else is
// truncated. Append failures are logged and swallowed.
func (e *Engine) record(ctx context.Context, req CheckRequest, v Verdict) {
	input := req.Input
	if req.Type.Secret() {
		input = constant.RedactedInput
	} else if len(input) > constant.MaxAuditInputLen {
		input = input[:constant.MaxAuditInputLen]
	}

	entry := &domain.AuditLogEntry{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		EventType: string(req.Type),
		Input:     input,
		Result:    string(v.Result),
		Reason:    v.Reason,
		RiskLevel: riskForResult(v.Result),
		Metadata:  v.Metadata,
		CreatedAt: time.Now(),
	}

	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Warn("audit append failed",
			zap.String("event_type", entry.EventType),
			zap.Error(err))
	}
}

func riskForResult(r Result) domain.RiskLevel {
	switch r {
	case ResultFail:
		return domain.RiskMedium
	case ResultWarning:
		return domain.RiskLow
	default:
		return domain.RiskLow
	}
}
