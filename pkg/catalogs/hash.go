package catalogs

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/agentstation/fieldmap/pkg/errors"
)

// ContentHash fingerprints a catalog document. Object keys are sorted and
// the volatile coordinateArraySchema.relationalDamreyDbSchema.updatedAt
// field is dropped, so a re-published but unchanged document hashes the same.
func ContentHash(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return "", errors.WrapParse("json", "catalog", err)
	}

	if root, ok := doc.(map[string]any); ok {
		if schema, ok := root["coordinateArraySchema"].(map[string]any); ok {
			if db, ok := schema["relationalDamreyDbSchema"].(map[string]any); ok {
				delete(db, "updatedAt")
			}
		}
	}

	// encoding/json writes map keys in sorted order.
	canonical, err := json.Marshal(doc)
	if err != nil {
		return "", errors.WrapParse("json", "catalog", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
