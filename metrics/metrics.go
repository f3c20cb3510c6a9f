/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package metrics

// Recorder receives the operational signals emitted by the document and
// relational facades.
type Recorder interface {
	// ObserveRequestCharge records the cost reported by the store for op.
	ObserveRequestCharge(op, container string, charge float64)

	// BatchChunk counts one executed batch chunk.
	BatchChunk(container string, success bool)

	// DeleteFailure counts one document that DeleteAll could not remove.
	DeleteFailure(container string)
}

type nop struct{}

// Nop returns a Recorder that drops every observation.
func Nop() Recorder { return nop{} }

func (nop) ObserveRequestCharge(string, string, float64) {}
func (nop) BatchChunk(string, bool)                      {}
func (nop) DeleteFailure(string)                         {}
