package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowSQL = 200 * time.Millisecond

// GormConfig tunes the SQL logger handed to gorm
type GormConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	// ReportNotFound logs gorm.ErrRecordNotFound as a failure. Repositories
	// translate it into domain not-found errors, so it is quiet by default.
	ReportNotFound bool
}

// GormLogger routes gorm's statement log through zap. Every SQL line carries
// the statement kind, whether it takes row locks, and the request and trace
// ids found in the context.
type GormLogger struct {
	log *zap.Logger
	cfg GormConfig
}

// NewGormLogger creates a gorm logger writing to the "gorm" child of zl
func NewGormLogger(zl *zap.Logger, cfg GormConfig) *GormLogger {
	if cfg.SlowThreshold == 0 {
		cfg.SlowThreshold = defaultSlowSQL
	}
	return &GormLogger{log: zl.Named("gorm"), cfg: cfg}
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.cfg.Level = level
	return &cp
}

func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, data...)
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, data...)
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.cfg.Level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	level := l.cfg.Level
	if level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	if err != nil {
		if level < gormlogger.Error || (!l.cfg.ReportNotFound && errors.Is(err, gormlogger.ErrRecordNotFound)) {
			return
		}
		fields := append(statementFields(ctx, fc, elapsed), zap.Error(err))
		if code := lockConflictCode(err); code != "" {
			l.log.Warn("sql lock conflict", append(fields, zap.String("sqlstate", code))...)
			return
		}
		l.log.Error("sql failed", fields...)
		return
	}

	if elapsed > l.cfg.SlowThreshold && level >= gormlogger.Warn {
		fields := statementFields(ctx, fc, elapsed)
		l.log.Warn("slow sql", append(fields, zap.Duration("threshold", l.cfg.SlowThreshold))...)
		return
	}
	if level >= gormlogger.Info {
		l.log.Debug("sql", statementFields(ctx, fc, elapsed)...)
	}
}

func statementFields(ctx context.Context, fc func() (string, int64), elapsed time.Duration) []zap.Field {
	sql, rows := fc()
	fields := []zap.Field{
		zap.String("statement", statementKind(sql)),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
		zap.Duration("elapsed", elapsed),
	}
	if strings.Contains(strings.ToUpper(sql), "FOR UPDATE") {
		fields = append(fields, zap.Bool("row_lock", true))
	}
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetTraceID(ctx); id != "" {
		fields = append(fields, zap.String("trace_id", id))
	}
	return fields
}

// statementKind returns the lower-cased leading keyword of a statement
func statementKind(sql string) string {
	sql = strings.TrimSpace(sql)
	if i := strings.IndexAny(sql, " \t\n("); i > 0 {
		sql = sql[:i]
	}
	return strings.ToLower(sql)
}

// lockConflictCode returns the SQLSTATE of serialization failures, deadlocks
// and lock timeouts. The costing service retries those.
func lockConflictCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	switch pgErr.Code {
	case "40001", "40P01", "55P03":
		return pgErr.Code
	}
	return ""
}

// MapGormLogLevel maps a config level name to gorm's level
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
