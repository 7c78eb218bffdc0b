package core

import (
	"encoding/json"
	"testing"
)

func TestDeriveKey_Determinism(t *testing.T) {
	op := &Operation{
		Kind:  OpQuery,
		Name:  "ListItems",
		Query: []byte(`query ListItems { items { id } }`),
		Vars:  json.RawMessage(`{"limit": 10, "offset": 0}`),
	}

	key1, err := DeriveKey(op)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(op)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if key1.String() != key2.String() {
		t.Errorf("expected deterministic keys, got %s vs %s", key1, key2)
	}
	if key1.Fingerprint() != key2.Fingerprint() {
		t.Errorf("expected deterministic fingerprints")
	}
}

func TestDeriveKey_VariableOrderIndependence(t *testing.T) {
	base := &Operation{
		Kind:  OpQuery,
		Name:  "ListItems",
		Query: []byte(`query ListItems { items { id } }`),
	}

	op1 := *base
	op1.Vars = json.RawMessage(`{"a": 1, "b": "x"}`)
	op2 := *base
	op2.Vars = json.RawMessage(`{"b": "x", "a": 1}`)

	key1, err := DeriveKey(&op1)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(&op2)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if !key1.Equal(key2) {
		t.Errorf("expected structural equality for reordered variables")
	}
	if key1.Fingerprint() != key2.Fingerprint() {
		t.Errorf("expected equal fingerprints for reordered variables")
	}
}

func TestDeriveKey_DifferentVariables(t *testing.T) {
	op1 := &Operation{Kind: OpQuery, Name: "ListItems", Vars: json.RawMessage(`{"filter": "x"}`)}
	op2 := &Operation{Kind: OpQuery, Name: "ListItems", Vars: json.RawMessage(`{"filter": "y"}`)}

	key1, err := DeriveKey(op1)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(op2)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if key1.Equal(key2) {
		t.Errorf("expected different keys for different variables")
	}
	if key1.String() == key2.String() {
		t.Errorf("expected different store keys for different variables")
	}
}

func TestDeriveKey_EmptyVarsNormalized(t *testing.T) {
	op1 := &Operation{Kind: OpQuery, Name: "ListItems"}
	op2 := &Operation{Kind: OpQuery, Name: "ListItems", Vars: json.RawMessage(`{}`)}

	key1, err := DeriveKey(op1)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(op2)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if !key1.Equal(key2) {
		t.Errorf("expected nil and empty-object variables to derive equal keys")
	}
}

func TestDeriveKey_DocumentIsolation(t *testing.T) {
	op1 := &Operation{Kind: OpQuery, Name: "ListItems", Query: []byte(`query ListItems { items { id } }`)}
	op2 := &Operation{Kind: OpQuery, Name: "ListItems", Query: []byte(`query ListItems { items { id name } }`)}

	key1, err := DeriveKey(op1)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(op2)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if key1.Equal(key2) {
		t.Errorf("expected different keys for different documents with same name")
	}
}

func TestDeriveKey_FieldsNotPartOfIdentity(t *testing.T) {
	op1 := &Operation{Kind: OpQuery, Name: "ListItems", Fields: []string{"items"}}
	op2 := &Operation{Kind: OpQuery, Name: "ListItems"}

	key1, err := DeriveKey(op1)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}
	key2, err := DeriveKey(op2)
	if err != nil {
		t.Fatalf("failed to derive key: %v", err)
	}

	if !key1.Equal(key2) {
		t.Errorf("expected fields to be excluded from key identity")
	}
	if key1.Fingerprint() != key2.Fingerprint() {
		t.Errorf("expected fields to be excluded from the fingerprint")
	}
}

func TestDeriveKey_AnonymousRejected(t *testing.T) {
	tests := []struct {
		name string
		op   *Operation
	}{
		{name: "nil operation", op: nil},
		{name: "unnamed operation", op: &Operation{Kind: OpQuery, Query: []byte(`{ items { id } }`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DeriveKey(tt.op); err == nil {
				t.Errorf("expected an error for %s", tt.name)
			}
		})
	}
}

func TestDeriveKey_InvalidVariables(t *testing.T) {
	op := &Operation{Kind: OpQuery, Name: "ListItems", Vars: json.RawMessage(`{not json`)}
	if _, err := DeriveKey(op); err == nil {
		t.Errorf("expected an error for malformed variable JSON")
	}
}
