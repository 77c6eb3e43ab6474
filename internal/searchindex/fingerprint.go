package searchindex

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint identifies a documentation build by hashing the canonical
// payload. Two indexes with the same records in the same order share a
// fingerprint regardless of how their source files were formatted.
func Fingerprint(idx *Index) (string, error) {
	payload, err := MarshalPayload(idx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(payload)), nil
}

// RecordHash hashes a single record, separating fields so that moving text
// between fields changes the hash.
func RecordHash(r Record) string {
	d := xxhash.New()
	for _, field := range []string{r.Location, r.Page, r.Title, r.Text, string(r.Category)} {
		d.WriteString(field)
		d.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
