package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pmilanese/kinseek/internal/model"
	"github.com/pmilanese/kinseek/internal/normalize"
)

// Cache defines the interface for caching fetched search pages.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a stable cache key for a source and query. Normalized fields go
// into the hash so spelling-insignificant variants share an entry.
func Key(source string, q model.SearchQuery) string {
	year := ""
	if q.BirthYear != nil {
		year = strconv.Itoa(*q.BirthYear)
	}
	raw := strings.Join([]string{
		source,
		normalize.Key(q.GivenName),
		normalize.Key(q.Surname),
		year,
		normalize.Key(q.Location),
	}, "|")
	hash := sha256.Sum256([]byte(raw))
	return "kinseek:v1:" + hex.EncodeToString(hash[:])
}

// FromConfig builds the layered cache the pipeline uses, or nil when caching
// is disabled.
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	memTTL := time.Duration(cfg.MemoryTTLMin) * time.Minute
	if memTTL <= 0 {
		memTTL = 30 * time.Minute
	}
	diskTTL := time.Duration(cfg.DiskTTLHours) * time.Hour
	if diskTTL <= 0 {
		diskTTL = 24 * time.Hour
	}
	return NewLayeredCache(memTTL, ExpandPath(cfg.Dir), diskTTL)
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
