package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/krakend/docindex-mcp/internal/config"
	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// maxSourceBytes caps a single search_index.js download.
const maxSourceBytes = 64 << 20

// cacheMeta records the last successful download.
type cacheMeta struct {
	LastUpdate  time.Time `yaml:"last_update"`
	Fingerprint string    `yaml:"fingerprint"`
	Sources     []string  `yaml:"sources"`
}

// fetchSource downloads one search_index.js.
func fetchSource(ctx context.Context, src config.Source) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/javascript, application/json;q=0.9, */*;q=0.1")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxSourceBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxSourceBytes)
	}
	return data, nil
}

// downloadSources fetches and validates every source concurrently. The
// first failure cancels the rest; results keep the configured order.
func downloadSources(ctx context.Context, sources []config.Source) ([]*sourceIndex, error) {
	results := make([]*sourceIndex, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(settings.FetchConcurrency)

	for i, src := range sources {
		g.Go(func() error {
			start := time.Now()
			logger.Infof("Downloading %s from %s", src.Name, src.URL)

			raw, err := fetchSource(gctx, src)
			if err != nil {
				return fmt.Errorf("source %s: %w", src.Name, err)
			}

			si, err := parseSource(src, raw)
			if err != nil {
				return err
			}
			results[i] = si

			logger.Infof("Downloaded %s: %d records, %d bytes in %v",
				src.Name, si.Index.Len(), len(raw), time.Since(start).Round(time.Millisecond))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// saveSources writes validated payloads to the source cache in canonical
// form, then records the download in cache.meta.
func saveSources(cat *catalog) error {
	if err := os.MkdirAll(dataPath(sourcesDir), 0755); err != nil {
		return fmt.Errorf("failed to create sources directory: %w", err)
	}
	for _, src := range cat.sources {
		if err := searchindex.WriteFile(cachedSourcePath(src.Source.Name), src.Index); err != nil {
			return fmt.Errorf("failed to cache source %s: %w", src.Source.Name, err)
		}
	}
	return writeCacheMeta(cacheMeta{
		LastUpdate:  time.Now().UTC(),
		Fingerprint: cat.fingerprint,
		Sources:     cat.names(),
	})
}

func writeCacheMeta(meta cacheMeta) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode cache meta: %w", err)
	}
	if err := os.WriteFile(dataPath(cacheMetaFile), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache meta: %w", err)
	}
	return nil
}

func readCacheMeta() (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(dataPath(cacheMetaFile))
	if err != nil {
		return meta, err
	}
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse cache meta: %w", err)
	}
	return meta, nil
}

// needsRefresh reports whether the downloaded sources are missing or older
// than the cache TTL.
func needsRefresh() bool {
	meta, err := readCacheMeta()
	if err != nil || meta.LastUpdate.IsZero() {
		return true
	}
	return time.Since(meta.LastUpdate) > settings.CacheTTL
}
