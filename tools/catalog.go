package tools

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/krakend/docindex-mcp/internal/config"
	"github.com/krakend/docindex-mcp/internal/indexing"
	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// Where a catalog's payloads came from.
const (
	originEmbedded = "embedded"
	originCache    = "cache"
	originRemote   = "remote"
)

// sourceIndex is one validated search_index.js payload.
type sourceIndex struct {
	Source      config.Source
	Index       *searchindex.Index
	Report      *searchindex.Report
	Fingerprint string
}

// BaseURL is the site root links are resolved against.
func (s *sourceIndex) BaseURL() string {
	return s.Source.ResolvedBaseURL()
}

// catalog is the set of sources behind the live search index.
type catalog struct {
	sources     []*sourceIndex
	fingerprint string
	origin      string
}

func newCatalog(origin string, sources []*sourceIndex) *catalog {
	fps := make([]indexing.SourceFingerprint, 0, len(sources))
	for _, src := range sources {
		fps = append(fps, indexing.SourceFingerprint{Name: src.Source.Name, Fingerprint: src.Fingerprint})
	}
	return &catalog{
		sources:     sources,
		fingerprint: indexing.CombineFingerprints(fps),
		origin:      origin,
	}
}

// lookup returns the named source, or every source when name is empty.
func (c *catalog) lookup(name string) ([]*sourceIndex, error) {
	if name == "" {
		return c.sources, nil
	}
	for _, src := range c.sources {
		if src.Source.Name == name {
			return []*sourceIndex{src}, nil
		}
	}
	return nil, fmt.Errorf("unknown source %q (available: %s)", name, strings.Join(c.names(), ", "))
}

func (c *catalog) names() []string {
	names := make([]string, len(c.sources))
	for i, src := range c.sources {
		names[i] = src.Source.Name
	}
	return names
}

// baseURL returns the base URL of the named source.
func (c *catalog) baseURL(name string) string {
	for _, src := range c.sources {
		if src.Source.Name == name {
			return src.BaseURL()
		}
	}
	return ""
}

// chunks flattens every source into index documents.
func (c *catalog) chunks(opts indexing.Options) []indexing.DocChunk {
	var chunks []indexing.DocChunk
	for _, src := range c.sources {
		chunks = append(chunks, indexing.ChunkIndex(src.Source.Name, src.Index, src.BaseURL(), opts)...)
	}
	return chunks
}

func (c *catalog) records() int {
	n := 0
	for _, src := range c.sources {
		n += src.Index.Len()
	}
	return n
}

// parseSource validates a downloaded or cached payload. Warnings are
// logged; any error rejects the payload.
func parseSource(src config.Source, raw []byte) (*sourceIndex, error) {
	idx, report, err := searchindex.Require(raw, searchindex.Options{Strict: settings.Strict})
	if err != nil {
		for _, issue := range report.Errors {
			logger.Debugf("Source %s: %s %s: %s", src.Name, issue.Code, issue.Path, issue.Message)
		}
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	for _, issue := range report.Warnings {
		logger.Debugf("Source %s: %s %s: %s", src.Name, issue.Code, issue.Path, issue.Message)
	}
	if n := len(report.Warnings); n > 0 {
		logger.Infof("Source %s: %d validation warnings", src.Name, n)
	}

	fp, err := searchindex.Fingerprint(idx)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", src.Name, err)
	}
	return &sourceIndex{Source: src, Index: idx, Report: report, Fingerprint: fp}, nil
}

type sourceManifest struct {
	Sources []config.Source `yaml:"sources"`
}

// loadEmbeddedCatalog reads the payloads bundled with the binary.
func loadEmbeddedCatalog(provider DataProvider) (*catalog, error) {
	var manifest sourceManifest
	if data, err := provider.ReadFile(embeddedManifest); err == nil {
		if err := yaml.Unmarshal(data, &manifest); err != nil {
			return nil, fmt.Errorf("failed to parse embedded manifest: %w", err)
		}
	}

	entries, err := provider.ReadDir(embeddedSourcesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded sources: %w", err)
	}

	// Manifest order first, then unlisted payloads by file name
	var ordered []config.Source
	listed := make(map[string]bool)
	for _, src := range manifest.Sources {
		ordered = append(ordered, src)
		listed[src.Name] = true
	}
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".js")
		if entry.IsDir() || !ok || listed[name] {
			continue
		}
		ordered = append(ordered, config.Source{Name: name})
	}

	var sources []*sourceIndex
	for _, src := range ordered {
		raw, err := provider.ReadFile(path.Join(embeddedSourcesDir, src.Name+".js"))
		if err != nil {
			logger.Warnf("Embedded source %s listed but missing: %v", src.Name, err)
			continue
		}
		si, err := parseSource(src, raw)
		if err != nil {
			return nil, fmt.Errorf("embedded %w", err)
		}
		sources = append(sources, si)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no embedded sources found")
	}
	return newCatalog(originEmbedded, sources), nil
}

// cachedSourcePath is where a downloaded payload is kept.
func cachedSourcePath(name string) string {
	return filepath.Join(dataPath(sourcesDir), name+".js")
}

// loadCachedCatalog reads previously downloaded payloads of the configured
// sources. Missing or invalid files are skipped.
func loadCachedCatalog() (*catalog, error) {
	var sources []*sourceIndex
	for _, src := range settings.Sources {
		raw, err := os.ReadFile(cachedSourcePath(src.Name))
		if err != nil {
			if !os.IsNotExist(err) {
				logger.Warnf("Cached source %s unreadable: %v", src.Name, err)
			}
			continue
		}
		si, err := parseSource(src, raw)
		if err != nil {
			logger.Warnf("Cached source rejected: %v", err)
			continue
		}
		sources = append(sources, si)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no cached sources")
	}
	return newCatalog(originCache, sources), nil
}

// loadCatalog prefers cached downloads over the bundled documentation.
func loadCatalog() (*catalog, error) {
	if len(settings.Sources) > 0 {
		cat, err := loadCachedCatalog()
		if err == nil {
			return cat, nil
		}
		logger.Infof("No usable cached sources (%v), using embedded documentation", err)
	}
	return loadEmbeddedCatalog(defaultDataProvider)
}
