/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package document

import (
	"encoding/json"
	"fmt"

	"github.com/suparena/cleardata/registry"
)

// DecodeAny decodes a raw document with the decoder registered for its
// entityType. Documents of unregistered types decode to map[string]any.
func DecodeAny(raw []byte) (any, error) {
	var head struct {
		EntityType string `json:"entityType"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}

	if fn, err := registry.GetDecoder(head.EntityType); err == nil {
		v, err := fn(raw)
		if err != nil {
			return nil, fmt.Errorf("decode %s document: %w", head.EntityType, err)
		}
		return v, nil
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
