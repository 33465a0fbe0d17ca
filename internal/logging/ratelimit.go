package logging

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var (
	logEveryMu      sync.Mutex
	logEveryLimits  = map[string]*logEveryEntry{}
	maxLogEveryKeys = 1024
)

type logEveryEntry struct {
	limiter  *rate.Limiter
	interval time.Duration
	lastUsed time.Time
}

// LogEvery emits a log entry at most once per interval for a key.
func LogEvery(ctx context.Context, key string, interval time.Duration, level slog.Level, msg string, attrs ...slog.Attr) {
	if !slog.Default().Enabled(ctx, level) {
		return
	}
	if key == "" || interval <= 0 {
		slog.LogAttrs(ctx, level, msg, attrs...)
		return
	}
	now := time.Now()
	logEveryMu.Lock()
	entry := logEveryLimits[key]
	if entry == nil || entry.interval != interval {
		entry = &logEveryEntry{limiter: rate.NewLimiter(rate.Every(interval), 1), interval: interval}
		logEveryLimits[key] = entry
	}
	entry.lastUsed = now
	allowed := entry.limiter.AllowN(now, 1)
	if len(logEveryLimits) > maxLogEveryKeys {
		pruneLogEvery(key)
	}
	logEveryMu.Unlock()
	if allowed {
		slog.LogAttrs(ctx, level, msg, attrs...)
	}
}

func pruneLogEvery(keep string) {
	for len(logEveryLimits) > maxLogEveryKeys {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range logEveryLimits {
			if key == keep {
				continue
			}
			if oldestKey == "" || entry.lastUsed.Before(oldest) {
				oldestKey = key
				oldest = entry.lastUsed
			}
		}
		delete(logEveryLimits, oldestKey)
	}
}
