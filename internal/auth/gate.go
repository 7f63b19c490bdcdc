package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/recipevault/recipevault/internal/metrics"
)

// Effect is the outcome of an authorization decision.
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// AnonymousPrincipal is the fallback principal attached to deny
// decisions, so a decision always carries a principal of the same
// shape regardless of outcome.
const AnonymousPrincipal = "user"

// Decision is the result of evaluating the authorization gate. It is
// a value, never an error: callers must inspect Allowed. The deny
// reason is logged by the gate and deliberately not carried here.
type Decision struct {
	Principal string
	Effect    Effect
}

// Allowed reports whether the request may proceed.
func (d Decision) Allowed() bool {
	return d.Effect == EffectAllow
}

// HeaderVerifier validates a raw Authorization header value.
type HeaderVerifier interface {
	VerifyAuthorizationHeader(ctx context.Context, header string) (*Claims, error)
}

// Gate wraps token verification into an allow/deny decision for every
// data-touching entry point.
type Gate struct {
	verifier HeaderVerifier
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewGate creates an authorization gate.
func NewGate(verifier HeaderVerifier, logger *slog.Logger, recorder metrics.Recorder) *Gate {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Gate{
		verifier: verifier,
		logger:   logger,
		metrics:  recorder,
	}
}

// Evaluate verifies the Authorization header and produces a decision.
// Verification failures never escape as errors; they collapse to a
// deny decision carrying the anonymous principal.
func (g *Gate) Evaluate(ctx context.Context, authHeader string) Decision {
	start := time.Now()

	claims, err := g.verifier.VerifyAuthorizationHeader(ctx, authHeader)
	g.metrics.ObserveVerifyDuration(time.Since(start))

	if err != nil {
		g.logger.Warn("authorization denied",
			slog.String("reason", err.Error()),
		)
		g.metrics.IncAuthDenied()
		return Decision{Principal: AnonymousPrincipal, Effect: EffectDeny}
	}

	g.logger.Info("authorization granted",
		slog.String("subject", claims.Subject),
	)
	g.metrics.IncAuthAllowed()
	return Decision{Principal: claims.Subject, Effect: EffectAllow}
}
