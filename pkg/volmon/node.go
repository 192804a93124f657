package volmon

import "math"

// NodeID identifies a node bound in the audio graph. The maximum value is
// reserved by the graph as "invalid/unset", and 0 is never handed out for a
// running node.
type NodeID uint32

// InvalidNodeID is the reserved "no node" identifier.
const InvalidNodeID NodeID = math.MaxUint32

// Valid reports whether id refers to a bindable node.
func (id NodeID) Valid() bool {
	return id > 0 && id < InvalidNodeID
}

// NodeInfo is the registry's view of a single audio-sink node.
type NodeInfo struct {
	ID          NodeID
	Name        string
	Description string
	Properties  map[string]string
}
