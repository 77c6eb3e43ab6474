package indexing

import (
	"fmt"
	"os"
	"time"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// State describes an on-disk index. It lives next to the index directory.
type State struct {
	Version     int       `yaml:"version"`
	Fingerprint string    `yaml:"fingerprint"`
	Sources     []string  `yaml:"sources,omitempty"`
	Chunks      int       `yaml:"chunks"`
	BuiltAt     time.Time `yaml:"built_at"`
}

// StatePath returns the state file of the index at indexDir.
func StatePath(indexDir string) string {
	return indexDir + ".meta"
}

// ReadState reads a state file. A missing file yields the zero State and
// an error satisfying os.IsNotExist.
func ReadState(path string) (State, error) {
	var state State
	data, err := os.ReadFile(path)
	if err != nil {
		return state, err
	}
	if err := yaml.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse index state: %w", err)
	}
	return state, nil
}

// WriteState writes a state file.
func WriteState(path string, state State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode index state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write index state: %w", err)
	}
	return nil
}

// SourceFingerprint names the payload fingerprint of one source.
type SourceFingerprint struct {
	Name        string
	Fingerprint string
}

// CombineFingerprints identifies an index built from sources, in order.
func CombineFingerprints(sources []SourceFingerprint) string {
	h := xxhash.New()
	for _, src := range sources {
		h.WriteString(src.Name)
		h.Write([]byte{0})
		h.WriteString(src.Fingerprint)
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
