package data

import (
	"context"
	"errors"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const slowQueryThreshold = 200 * time.Millisecond

// GormLogger routes gorm output to the kratos logger
type GormLogger struct {
	log *log.Helper
}

func NewGormLogger(l log.Logger) *GormLogger {
	return &GormLogger{log: log.NewHelper(log.With(l, "module", "data/gorm"))}
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	return l
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.log.WithContext(ctx).Infow("msg", msg, "data", data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.log.WithContext(ctx).Warnw("msg", msg, "data", data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.log.WithContext(ctx).Errorw("msg", msg, "data", data)
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	h := l.log.WithContext(ctx)

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		h.Errorw("msg", "gorm error", "error", err, "sql", sql, "rows", rows, "elapsed", elapsed)
	case elapsed > slowQueryThreshold:
		h.Warnw("msg", "slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	default:
		h.Debugw("msg", "gorm query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
