package rts

import (
	"encoding/json"
)

// Lists a traced file can belong to.
const (
	ListCore     = "core"
	ListExtended = "extended"
	ListLinker   = "linker"
)

// Trace records which lineage layer contributed a file to a descriptor.
type Trace struct {
	File  string `json:"file"`
	List  string `json:"list"`
	Layer string `json:"layer"`
	Rule  string `json:"rule,omitempty"`
}

// Trace returns the provenance of file, which may be a source or a linker
// script.
func (d *TargetDescriptor) Trace(file string) (Trace, bool) {
	trace, ok := d.provenance[file]
	return trace, ok
}

// ToJSON serialises the trace into JSON for logging or transport helpers.
func (t Trace) ToJSON() ([]byte, error) {
	type alias Trace
	return json.Marshal(alias(t))
}

// TraceFromJSON deserialises a JSON payload that was previously generated via
// ToJSON.
func TraceFromJSON(payload []byte) (Trace, error) {
	type alias Trace
	var trace alias
	if err := json.Unmarshal(payload, &trace); err != nil {
		return Trace{}, err
	}
	return Trace(trace), nil
}
