package valuation

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/industry"
	"github.com/sells-group/valuation-cli/internal/metrics"
)

// Service resolves the industry range for an input and runs the engine.
type Service struct {
	provider industry.Provider
	engine   *Engine
}

// NewService creates a Service. A nil engine uses DefaultOptions.
func NewService(provider industry.Provider, engine *Engine) *Service {
	if engine == nil {
		engine = NewEngine(DefaultOptions())
	}
	return &Service{provider: provider, engine: engine}
}

// Value looks up the industry multiplier for in.IndustryCode and computes
// the valuation. source labels the caller in metrics ("preview", "cli",
// "batch", ...).
func (s *Service) Value(ctx context.Context, source string, in Input) (*Result, error) {
	start := time.Now()

	match, err := s.provider.Lookup(ctx, in.IndustryCode)
	if err != nil {
		return nil, eris.Wrapf(err, "valuation: resolve industry %q", in.IndustryCode)
	}
	metrics.IndustryLookups.WithLabelValues(string(match.Resolution)).Inc()

	res := s.engine.Compute(in, match.Multiplier)

	metrics.ValuationsComputed.WithLabelValues(source).Inc()
	metrics.ValuationDuration.Observe(time.Since(start).Seconds())

	zap.L().Debug("valuation: computed",
		zap.String("source", source),
		zap.String("industry_code", in.IndustryCode),
		zap.String("resolution", string(match.Resolution)),
		zap.Float64("adjusted_ebitda", res.AdjustedEBITDA),
		zap.Float64("multiplier", res.Multiplier),
		zap.Float64("mean", res.Valuation.Mean),
	)
	return &res, nil
}

// Lookup exposes the underlying industry provider.
func (s *Service) Lookup(ctx context.Context, code string) (industry.Match, error) {
	return s.provider.Lookup(ctx, code)
}
