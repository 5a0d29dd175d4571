package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"beatmarket/config"
	deliverycontext "beatmarket/internal/delivery/context"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestGormSlogLogger_Trace(t *testing.T) {
	sqlFn := func() (string, int64) { return "SELECT 1", 1 }

	t.Run("record not found is silent", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

		l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("errors are logged", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

		l.Trace(context.Background(), time.Now(), sqlFn, gorm.ErrInvalidData)
		assert.Contains(t, buf.String(), "GORM query failed")
		assert.Contains(t, buf.String(), "SELECT 1")
	})

	t.Run("slow queries are logged", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})

		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn, nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("fast queries only in debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := newGormSlogLogger(newBufferLogger(&buf), &config.Config{})
		l.Trace(context.Background(), time.Now(), sqlFn, nil)
		assert.Empty(t, buf.String())

		l.LogMode(logger.Info).Trace(context.Background(), time.Now(), sqlFn, nil)
		assert.Contains(t, buf.String(), "GORM query")
	})

	t.Run("request scoped logger wins", func(t *testing.T) {
		var base, scoped bytes.Buffer
		l := newGormSlogLogger(newBufferLogger(&base), &config.Config{})
		ctx := deliverycontext.WithLogger(context.Background(), newBufferLogger(&scoped).With(slog.String("request_id", "req-1")))

		l.Trace(ctx, time.Now(), sqlFn, gorm.ErrInvalidData)
		assert.Empty(t, base.String())
		assert.Contains(t, scoped.String(), "request_id=req-1")
	})
}
