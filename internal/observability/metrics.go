package observability

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nestlingapp/nestling-backend/internal/logger"
)

// Metrics keeps best-effort counters in redis. Every method is safe on a nil
// receiver and swallows redis errors: instrumentation must never change the
// outcome of a request.
type Metrics struct {
	rdb *redis.Client
	log *logger.Logger
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	if v == "" {
		return false
	}
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func InitMetrics(log *logger.Logger) *Metrics {
	initOnce.Do(func() {
		if !Enabled() {
			return
		}
		addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
		if addr == "" {
			addr = "localhost:6379"
		}
		rdb := redis.NewClient(&redis.Options{
			Addr:         addr,
			Password:     os.Getenv("REDIS_PASSWORD"),
			DialTimeout:  2 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		})
		metricsLog := log.With("component", "metrics")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			metricsLog.Warn("Redis unreachable, metrics disabled", "addr", addr, "error", err)
			return
		}
		instance = &Metrics{rdb: rdb, log: metricsLog}
		metricsLog.Info("Metrics initialized", "addr", addr)
	})
	return instance
}

func Current() *Metrics {
	return instance
}

const keyPrefix = "nestling:metrics:"

// IncrActivity bumps a per-day counter for a domain event
// (milestone_completed, tip_generated, ...).
func (m *Metrics) IncrActivity(ctx context.Context, kind string) {
	if m == nil || m.rdb == nil || kind == "" {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	key := keyPrefix + "activity:" + day + ":" + kind
	pipe := m.rdb.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, 90*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		m.log.Debug("Metrics increment failed", "kind", kind, "error", err)
	}
}

// IncrAPIRequest counts requests per route and status class.
func (m *Metrics) IncrAPIRequest(ctx context.Context, route string, status int) {
	if m == nil || m.rdb == nil {
		return
	}
	class := "2xx"
	switch {
	case status >= 500:
		class = "5xx"
	case status >= 400:
		class = "4xx"
	}
	key := keyPrefix + "api:" + route + ":" + class
	if err := m.rdb.Incr(ctx, key).Err(); err != nil {
		m.log.Debug("Metrics increment failed", "route", route, "error", err)
	}
}
