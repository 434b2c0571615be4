package health

import (
	"context"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var startTime = time.Now()

// CollectResult is the /health/json payload.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Dependencies map[string]DepStatus `json:"dependencies"`
}

type RuntimeInfo struct {
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Platform      string `json:"platform"`
	GoVersion     string `json:"goVersion"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// CollectHealth pings the database and Redis and reports overall status.
// Status degrades to "degraded" when any dependency is unreachable.
func CollectHealth(ctx context.Context, db *gorm.DB, rdb *redis.Client) CollectResult {
	result := CollectResult{
		Status: "ok",
		Runtime: RuntimeInfo{
			UptimeSeconds: int64(time.Since(startTime).Seconds()),
			Platform:      runtime.GOOS,
			GoVersion:     runtime.Version(),
		},
		Dependencies: make(map[string]DepStatus),
	}

	result.Dependencies["database"] = pingDatabase(db)
	result.Dependencies["redis"] = pingRedis(ctx, rdb)

	for _, dep := range result.Dependencies {
		if dep.Status != "connected" {
			result.Status = "degraded"
		}
	}
	return result
}

func pingDatabase(db *gorm.DB) DepStatus {
	if db == nil {
		return DepStatus{Status: "disconnected"}
	}
	sqlDB, err := db.DB()
	if err != nil {
		return DepStatus{Status: "error"}
	}
	start := time.Now()
	if err := sqlDB.Ping(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}

func pingRedis(ctx context.Context, rdb *redis.Client) DepStatus {
	if rdb == nil {
		return DepStatus{Status: "disconnected"}
	}
	start := time.Now()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return DepStatus{Status: "error"}
	}
	ms := time.Since(start).Milliseconds()
	return DepStatus{Status: "connected", PingMs: &ms}
}
