package notify

import (
	"context"

	"go.uber.org/zap"
)

// Gateway sends a message to a recipient address. Sends are best-effort:
// callers log failures but never abort the operation that triggered them.
type Gateway interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogGateway is the default transport: it records the message instead of
// delivering it. Production deployments swap in a real mail transport.
type LogGateway struct {
	logger *zap.Logger
	from   string
}

// NewLogGateway creates the logging transport.
func NewLogGateway(logger *zap.Logger, from string) *LogGateway {
	return &LogGateway{logger: logger, from: from}
}

func (g *LogGateway) Send(ctx context.Context, to, subject, body string) error {
	g.logger.Info("email sent",
		zap.String("from", g.from),
		zap.String("to", to),
		zap.String("subject", subject),
		zap.String("body", body))
	return nil
}
