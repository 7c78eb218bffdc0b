package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"github.com/mitchellh/hashstructure/v2"
)

// CacheKey is the canonical identity of one cached query result. Identity
// is the operation name, the document hash and the decoded variables.
// Fields ride along for eviction and are not part of the identity.
type CacheKey struct {
	Name    string
	DocHash string
	Vars    map[string]any
	Fields  []string

	fp uint64
}

// keyIdentity is the hashed portion of a cache key
type keyIdentity struct {
	Name    string
	DocHash string
	Vars    map[string]any
}

// DeriveKey builds the cache key for an operation. It is deterministic:
// the same name, document and structurally-equal variables always produce
// the same key regardless of JSON field order. Empty variable objects are
// normalized to no variables.
func DeriveKey(op *Operation) (CacheKey, error) {
	if op == nil || op.Name == "" {
		return CacheKey{}, fmt.Errorf("cache key: operation must be named")
	}

	k := CacheKey{Name: op.Name}
	if len(op.Fields) > 0 {
		k.Fields = append([]string(nil), op.Fields...)
	}

	if len(op.Query) > 0 {
		h := sha256.Sum256(op.Query)
		k.DocHash = hex.EncodeToString(h[:])
	}

	if len(op.Vars) > 0 {
		if err := json.Unmarshal(op.Vars, &k.Vars); err != nil {
			return CacheKey{}, fmt.Errorf("cache key: invalid variables: %w", err)
		}
		if len(k.Vars) == 0 {
			k.Vars = nil
		}
	}

	fp, err := hashstructure.Hash(keyIdentity{
		Name:    k.Name,
		DocHash: k.DocHash,
		Vars:    k.Vars,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		return CacheKey{}, fmt.Errorf("cache key: %w", err)
	}
	k.fp = fp

	return k, nil
}

// Fingerprint returns a stable, order-independent hash of the key's
// identity, suitable for map indexing. Matches are confirmed with Equal.
func (k CacheKey) Fingerprint() uint64 { return k.fp }

// Equal reports deep structural equality of two key identities. Distinct
// instances built from reordered but equivalent variable JSON are equal.
func (k CacheKey) Equal(o CacheKey) bool {
	return k.Name == o.Name &&
		k.DocHash == o.DocHash &&
		cmp.Equal(k.Vars, o.Vars)
}

// String returns the store-level key
func (k CacheKey) String() string {
	doc := k.DocHash
	if len(doc) > 8 {
		doc = doc[:8]
	}
	return fmt.Sprintf("op:%s:doc:%s:fp:%016x", k.Name, doc, k.fp)
}
