package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const slowSQLThreshold = 200 * time.Millisecond

var _ gormlogger.Interface = (*GormLogger)(nil)

// GormLogger sends gorm statements and messages to the application zap logger.
type GormLogger struct {
	logger *zap.Logger
	level  gormlogger.LogLevel
	slow   time.Duration
}

// NewGormLogger returns a gorm logger writing into logger at the given level.
func NewGormLogger(logger *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{
		logger: logger.With(zap.String("component", "sql")),
		level:  level,
		slow:   slowSQLThreshold,
	}
}

func (gl *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *gl
	clone.level = level
	return &clone
}

func (gl *GormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if gl.level >= gormlogger.Info {
		gl.logger.Info(fmt.Sprintf(msg, data...))
	}
}

func (gl *GormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if gl.level >= gormlogger.Warn {
		gl.logger.Warn(fmt.Sprintf(msg, data...))
	}
}

func (gl *GormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if gl.level >= gormlogger.Error {
		gl.logger.Error(fmt.Sprintf(msg, data...))
	}
}

// Trace logs a finished statement. Failures are logged from the error level,
// slow statements from the warn level and every statement at the info level.
// A missing record is a normal lookup outcome and never counts as a failure.
func (gl *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if gl.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && gl.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		gl.logger.Error("sql statement failed", zap.String("sql.query", sql), zap.Int64("sql.rows", rows), zap.Duration("sql.duration", elapsed), zap.Error(err))
	case elapsed > gl.slow && gl.level >= gormlogger.Warn:
		sql, rows := fc()
		gl.logger.Warn("slow sql statement", zap.String("sql.query", sql), zap.Int64("sql.rows", rows), zap.Duration("sql.duration", elapsed))
	case gl.level >= gormlogger.Info:
		sql, rows := fc()
		gl.logger.Info("sql statement", zap.String("sql.query", sql), zap.Int64("sql.rows", rows), zap.Duration("sql.duration", elapsed))
	}
}
