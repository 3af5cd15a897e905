package transport

import (
	"log/slog"

	"github.com/richieat/richieat/pkg/observability"
)

// StandardConfig selects the stages of the standard pipeline.
type StandardConfig struct {
	Logger       *slog.Logger
	ErrorHandler *ErrorHandler
	CORS         CORSConfig
	Security     SecurityConfig
	MaxBodySize  int64

	// Metrics enables the Prometheus stage.
	Metrics bool
}

// NewStandardPipeline assembles every stage in rank order.
func NewStandardPipeline(cfg StandardConfig) (*Pipeline, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	eh := cfg.ErrorHandler
	if eh == nil {
		eh = NewErrorHandler(logger, false)
	}

	stages := []Stage{
		{Rank: RankRecovery, Wrap: Recovery(eh)},
		{Rank: RankRequestID, Wrap: RequestID()},
		{Rank: RankAccessLog, Wrap: AccessLog(logger)},
	}
	if cfg.Metrics {
		stages = append(stages, Stage{Rank: RankMetrics, Wrap: observability.MetricsMiddleware})
	}
	stages = append(stages,
		Stage{Rank: RankSecurityLog, Wrap: NewSecurityLog(cfg.Security, logger).Middleware()},
		Stage{Rank: RankCORS, Wrap: CORS(cfg.CORS, eh)},
		Stage{Rank: RankBodyParser, Wrap: BodyParser(cfg.MaxBodySize, eh)},
	)
	return NewPipeline(stages...)
}
