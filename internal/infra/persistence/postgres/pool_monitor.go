package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

const (
	poolMonitorInterval = 5 * time.Second
	poolWaitWarnAfter   = 50 * time.Millisecond
)

// poolMonitor reports connection pool waits between consecutive samples.
// Purchase and top-up hold row locks, so waits here usually mean lock contention upstream.
type poolMonitor struct {
	logger *slog.Logger
	stats  func() sql.DBStats
	prev   sql.DBStats
}

func newPoolMonitor(logger *slog.Logger, stats func() sql.DBStats) *poolMonitor {
	return &poolMonitor{logger: logger, stats: stats, prev: stats()}
}

func (m *poolMonitor) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample(ctx)
		}
	}
}

// sample logs once per interval in which callers waited for a connection.
func (m *poolMonitor) sample(ctx context.Context) {
	cur := m.stats()
	waits := cur.WaitCount - m.prev.WaitCount
	waited := cur.WaitDuration - m.prev.WaitDuration
	m.prev = cur

	if waits <= 0 {
		return
	}

	level, msg := slog.LevelDebug, "Postgres pool wait observed"
	if waited >= poolWaitWarnAfter {
		level, msg = slog.LevelWarn, "Postgres pool wait detected"
	}

	m.logger.LogAttrs(ctx, level, msg,
		slog.Int64("waits", waits),
		slog.Duration("waited", waited),
		slog.Duration("avgWait", waited/time.Duration(waits)),
		slog.Group("pool",
			slog.Int("maxOpen", cur.MaxOpenConnections),
			slog.Int("open", cur.OpenConnections),
			slog.Int("inUse", cur.InUse),
			slog.Int("idle", cur.Idle),
		),
	)
}
