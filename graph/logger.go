package graph

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the graph package's logger instance.
// It uses a no-op logger by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the graph package's logger.
// This must be called before any graph is created.
func SetLogger(l *zap.Logger) {
	logger = l
}

func zapType[T any]() zap.Field { return zap.String("type", typeName[T]()) }

func zapFields(r *Relocator) zap.Field { return zap.Int("fields", r.Fields()) }

func zapLive(g *Graph) zap.Field { return zap.Int("live", g.Live()) }
