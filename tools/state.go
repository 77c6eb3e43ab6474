package tools

import (
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/krakend/docindex-mcp/internal/config"
)

const (
	sourcesDir     = "sources"
	cacheMetaFile  = "sources/cache.meta"
	indexDir       = "search/index"
	indexStateFile = "search/index.meta"
	lockFile       = "search/index.lock"
)

var (
	dataDir    = filepath.Join(".", "data") // Data directory for sources and the search index
	settings   = config.DefaultConfig()
	logger     = zap.NewNop().Sugar()
	httpClient = &http.Client{Timeout: settings.HTTPTimeout}
)

// Configure sets the configuration, data directory and logger used by the
// tools. It must be called before any tool is registered.
func Configure(cfg *config.Config, dir string, log *zap.Logger) {
	if cfg != nil {
		settings = cfg
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if dir != "" {
		dataDir = dir
	}
	SetLogger(log)
}

// SetLogger replaces the package logger. A nil logger discards output.
func SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	logger = log.Named("tools").Sugar()
}

func dataPath(rel string) string {
	return filepath.Join(dataDir, filepath.FromSlash(rel))
}
