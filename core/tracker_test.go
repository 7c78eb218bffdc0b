package core

import (
	"encoding/json"
	"testing"
)

func mustKey(t *testing.T, name, vars string) CacheKey {
	t.Helper()
	op := &Operation{Kind: OpQuery, Name: name}
	if vars != "" {
		op.Vars = json.RawMessage(vars)
	}
	key, err := DeriveKey(op)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	return key
}

func TestQueryKeyTracker_AddIsIdempotent(t *testing.T) {
	tr := newQueryKeyTracker()

	// structurally equal keys built as distinct instances
	tr.add("ListItems", mustKey(t, "ListItems", `{"a": 1, "b": 2}`))
	tr.add("ListItems", mustKey(t, "ListItems", `{"b": 2, "a": 1}`))

	if got := len(tr.keysFor("ListItems")); got != 1 {
		t.Errorf("expected 1 tracked key after duplicate add, got %d", got)
	}
}

func TestQueryKeyTracker_VariableSetsAreIndependent(t *testing.T) {
	tr := newQueryKeyTracker()

	kx := mustKey(t, "ListItems", `{"filter": "x"}`)
	ky := mustKey(t, "ListItems", `{"filter": "y"}`)
	tr.add("ListItems", kx)
	tr.add("ListItems", ky)

	keys := tr.keysFor("ListItems")
	if len(keys) != 2 {
		t.Fatalf("expected 2 tracked keys, got %d", len(keys))
	}

	// insertion order preserved
	if !keys[0].Equal(kx) || !keys[1].Equal(ky) {
		t.Errorf("expected insertion order to be preserved")
	}
}

func TestQueryKeyTracker_RemoveIsExact(t *testing.T) {
	tr := newQueryKeyTracker()

	kx := mustKey(t, "ListItems", `{"filter": "x"}`)
	ky := mustKey(t, "ListItems", `{"filter": "y"}`)
	tr.add("ListItems", kx)
	tr.add("ListItems", ky)

	// removal uses a fresh structurally-equal instance
	tr.remove("ListItems", mustKey(t, "ListItems", `{"filter": "x"}`))

	keys := tr.keysFor("ListItems")
	if len(keys) != 1 || !keys[0].Equal(ky) {
		t.Errorf("expected only the y-filter key to remain, got %v", keys)
	}

	// removing an untracked key is a no-op
	tr.remove("ListItems", mustKey(t, "ListItems", `{"filter": "z"}`))
	if got := len(tr.keysFor("ListItems")); got != 1 {
		t.Errorf("expected remove of untracked key to be a no-op, got %d keys", got)
	}
}

func TestQueryKeyTracker_Has(t *testing.T) {
	tr := newQueryKeyTracker()

	if tr.has("ListItems") {
		t.Errorf("expected no tracked keys initially")
	}

	key := mustKey(t, "ListItems", "")
	tr.add("ListItems", key)
	if !tr.has("ListItems") {
		t.Errorf("expected tracked key to be reported")
	}

	tr.remove("ListItems", key)
	if tr.has("ListItems") {
		t.Errorf("expected no tracked keys after removal")
	}
}
