package graph

import "encoding/json"

// JSON returns the canonical serialized form of the graph: a systems
// array and a subsystems array, references rendered as
// {"id": ..., "index": n|null}. Clients receive these bytes as-is and
// the snapshot store compares them between builds.
func (g *Graph) JSON() ([]byte, error) {
	return json.MarshalIndent(g, "", "  ")
}
