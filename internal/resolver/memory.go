package resolver

import (
	"os"
	"strconv"
	"strings"

	"LiveTable/internal/config"
	"LiveTable/internal/logger"

	"github.com/redis/go-redis/v9"
)

// NewCache picks the page cache for cfg: Redis when a client is given,
// otherwise an in-process cache. A zero TTL disables caching and yields nil.
func NewCache(cfg config.PageCacheConfig, rdb *redis.Client) Cache {
	if cfg.TTLSec <= 0 {
		return nil
	}
	if rdb != nil {
		logger.Info("page_cache_init", map[string]any{
			"backend": "redis",
			"ttl_sec": cfg.TTLSec,
		})
		return RedisCache{Client: rdb}
	}

	limit, source := detectMemoryLimit()
	logger.Info("page_cache_init", map[string]any{
		"backend":      "memory",
		"ttl_sec":      cfg.TTLSec,
		"max_bytes":    formatBytes(uint64(max(cfg.MaxBytes, 0))),
		"memory_limit": formatBytes(limit),
		"limit_source": source,
	})
	if limit > 0 && cfg.MaxBytes > 0 && uint64(cfg.MaxBytes) > limit/4 {
		logger.Warn("page_cache_max_bytes_high", map[string]any{
			"max_bytes":    cfg.MaxBytes,
			"memory_limit": limit,
		})
	}
	return NewMemoryCache(cfg.MaxBytes)
}

// detectMemoryLimit best-effort detection of memory limit (cgroup or MemTotal). Returns bytes and source label.
func detectMemoryLimit() (uint64, string) {
	// cgroup v2: memory.max
	if data, err := os.ReadFile("/sys/fs/cgroup/memory.max"); err == nil {
		if v, ok := parseLimitValue(string(data)); ok {
			return v, "cgroup v2 memory.max"
		}
	}
	// cgroup v1
	if data, err := os.ReadFile("/sys/fs/cgroup/memory/memory.limit_in_bytes"); err == nil {
		if v, ok := parseLimitValue(string(data)); ok {
			return v, "cgroup v1 memory.limit_in_bytes"
		}
	}
	if data, err := os.ReadFile("/proc/meminfo"); err == nil {
		for _, ln := range strings.Split(string(data), "\n") {
			if !strings.HasPrefix(ln, "MemTotal:") {
				continue
			}
			if fields := strings.Fields(ln); len(fields) >= 2 {
				if kb, err := strconv.ParseUint(fields[1], 10, 64); err == nil {
					return kb * 1024, "proc meminfo MemTotal"
				}
			}
		}
	}
	return 0, "unknown"
}

func parseLimitValue(raw string) (uint64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "max" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func formatBytes(v uint64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case v >= gb:
		return strconv.FormatFloat(float64(v)/float64(gb), 'f', 2, 64) + " GB"
	case v >= mb:
		return strconv.FormatFloat(float64(v)/float64(mb), 'f', 2, 64) + " MB"
	case v >= kb:
		return strconv.FormatFloat(float64(v)/float64(kb), 'f', 2, 64) + " KB"
	default:
		return strconv.FormatUint(v, 10) + " B"
	}
}
