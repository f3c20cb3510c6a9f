/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"encoding/json"
	"testing"

	"github.com/suparena/cleardata/errors"
)

type widget struct {
	Name string `json:"name"`
}

type gadget struct{}

func (gadget) EntityType() string { return "Gadget" }

type gizmo struct{}

func (*gizmo) EntityType() string { return "Gizmo" }

type unregistered struct{}

func TestEntityTypeRegistry(t *testing.T) {
	RegisterEntityType[widget]("Widget")
	RegisterEntityType[widget]("Widget") // idempotent

	t.Run("Registered", func(t *testing.T) {
		name, err := EntityTypeOf[widget]()
		if err != nil || name != "Widget" {
			t.Fatalf("got %q, %v", name, err)
		}
		if typ, ok := LookupEntityType("Widget"); !ok || typ.Name() != "widget" {
			t.Errorf("reverse lookup failed: %v %v", typ, ok)
		}
	})

	t.Run("EntityTyper", func(t *testing.T) {
		if name, err := EntityTypeOf[gadget](); err != nil || name != "Gadget" {
			t.Errorf("value receiver: got %q, %v", name, err)
		}
		if name, err := EntityTypeOf[gizmo](); err != nil || name != "Gizmo" {
			t.Errorf("pointer receiver: got %q, %v", name, err)
		}
	})

	t.Run("Unregistered", func(t *testing.T) {
		_, err := EntityTypeOf[unregistered]()
		if !errors.Is(err, errors.ErrNoEntityType) {
			t.Errorf("expected ErrNoEntityType, got %v", err)
		}
	})

	t.Run("Conflicts", func(t *testing.T) {
		assertPanics(t, func() { RegisterEntityType[widget]("Other") })
		assertPanics(t, func() { RegisterEntityType[unregistered]("Widget") })
		assertPanics(t, func() { RegisterEntityType[unregistered]("") })
	})
}

func TestDecoderRegistry(t *testing.T) {
	RegisterDecoder("Widget", func(raw []byte) (interface{}, error) {
		var w widget
		err := json.Unmarshal(raw, &w)
		return &w, err
	})

	if !HasDecoder("Widget") || HasDecoder("Nothing") {
		t.Fatal("HasDecoder mismatch")
	}

	fn, err := GetDecoder("Widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := fn([]byte(`{"name":"w1"}`))
	if err != nil || v.(*widget).Name != "w1" {
		t.Errorf("decoded %v, %v", v, err)
	}

	if _, err := GetDecoder("Nothing"); err == nil {
		t.Error("expected error for unknown entity type")
	}
	assertPanics(t, func() {
		RegisterDecoder("Widget", func([]byte) (interface{}, error) { return nil, nil })
	})
}

func assertPanics(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	fn()
}
