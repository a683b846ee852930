package diagram

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// Digest returns a stable content hash of the diagram. Map keys are sorted by
// encoding/json, so equal diagrams always hash the same.
func (d *Diagram) Digest() string {
	if d == nil {
		return ""
	}
	b, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
