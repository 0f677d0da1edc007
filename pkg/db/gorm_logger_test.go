package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/lms-reminder/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureLogs(t *testing.T, level logger.LogLevel) *bytes.Buffer {
	t.Helper()
	originalLogger := logger.Logger
	t.Cleanup(func() {
		logger.Logger = originalLogger
		logger.SetLogLevel(logger.INFO)
	})
	var buf bytes.Buffer
	logger.Logger = slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	logger.SetLogLevel(level)
	return &buf
}

func TestGormLoggerTrace(t *testing.T) {
	cases := []struct {
		name       string
		gormLevel  string
		process    logger.LogLevel
		threshold  time.Duration
		err        error
		wantOutput string
	}{
		{name: "slow query", gormLevel: "warn", process: logger.INFO, threshold: time.Nanosecond, wantOutput: "gorm slow query"},
		{name: "plain query at info", gormLevel: "info", process: logger.INFO, threshold: time.Hour, wantOutput: "gorm query"},
		{name: "plain query hidden at warn", gormLevel: "warn", process: logger.INFO, threshold: time.Hour},
		{name: "error passes error filter", gormLevel: "warn", process: logger.ERROR, threshold: time.Hour, err: errors.New("boom"), wantOutput: "gorm query error"},
		{name: "slow query hidden by process error level", gormLevel: "warn", process: logger.ERROR, threshold: time.Nanosecond},
		{name: "missing row is silent", gormLevel: "info", process: logger.INFO, threshold: time.Hour, err: gorm.ErrRecordNotFound},
		{name: "silent level", gormLevel: "silent", process: logger.DEBUG, threshold: time.Nanosecond, err: errors.New("boom")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLogs(t, tc.process)
			lg, err := newGormLogger(tc.gormLevel, tc.threshold)
			if err != nil {
				t.Fatalf("failed to create gorm logger: %v", err)
			}
			lg.Trace(context.Background(), time.Now().Add(-time.Millisecond), func() (string, int64) {
				return `SELECT * FROM "key_values"`, 1
			}, tc.err)

			got := buf.String()
			if tc.wantOutput == "" {
				if got != "" {
					t.Fatalf("expected no output, got: %s", got)
				}
				return
			}
			if !strings.Contains(got, tc.wantOutput) || !strings.Contains(got, "key_values") {
				t.Fatalf("expected %q with the statement, got: %s", tc.wantOutput, got)
			}
		})
	}
}

func TestNewGormLoggerDefaults(t *testing.T) {
	lg, err := newGormLogger("", 0)
	if err != nil {
		t.Fatalf("unexpected error for default gorm logger: %v", err)
	}
	l := lg.(*gormSlogLogger)
	if l.logLevel != gormlogger.Warn || l.slowThreshold != defaultSlowThreshold {
		t.Fatalf("unexpected defaults: level %v threshold %v", l.logLevel, l.slowThreshold)
	}

	lg, err = newGormLogger("nope", time.Second)
	if err == nil {
		t.Fatal("expected error for invalid gorm level")
	}
	l = lg.(*gormSlogLogger)
	if l.logLevel != gormlogger.Warn || l.slowThreshold != time.Second {
		t.Fatalf("expected warn with custom threshold, got %v %v", l.logLevel, l.slowThreshold)
	}
}

func TestLogModeReturnsCopy(t *testing.T) {
	lg, _ := newGormLogger("warn", 0)
	silent := lg.LogMode(gormlogger.Silent).(*gormSlogLogger)
	if silent.logLevel != gormlogger.Silent || lg.(*gormSlogLogger).logLevel != gormlogger.Warn {
		t.Fatal("LogMode must not mutate the original logger")
	}
}
