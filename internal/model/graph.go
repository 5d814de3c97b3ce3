package model

import "time"

// NodeKind is the type of code entity a graph Node represents.
type NodeKind string

const (
	NodeFunction NodeKind = "function"
	NodeMethod   NodeKind = "method"
	NodeClass    NodeKind = "class"
	NodeModule   NodeKind = "module"
)

// Node is a graph vertex created from a chunk (spec §3 "Node").
type Node struct {
	ID         string
	Kind       NodeKind
	Label      string
	Properties NodeProperties
	CreatedAt  time.Time
}

// NodeProperties is the node property bag from spec §3.
type NodeProperties struct {
	ChunkID    string `json:"chunk_id"`
	FilePath   string `json:"file_path"`
	Language   string `json:"language"`
	Repository string `json:"repository"`
	Signature  string `json:"signature,omitempty"`
	Complexity int    `json:"complexity,omitempty"`
	IsBarrel   bool   `json:"is_barrel,omitempty"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
}

// RelationKind enumerates the edge relation types the graph constructor
// emits.
type RelationKind string

const (
	RelationCalls     RelationKind = "calls"
	RelationImports   RelationKind = "imports"
	RelationReExports RelationKind = "re_exports"
)

// Edge is a graph edge between two nodes (spec §3 "Edge").
//
// Invariant: Source and Target must reference existing nodes in the same
// repository; no self-loops for trivial aliases; anonymous chunks are never
// given nodes, so they never appear as an edge endpoint.
type Edge struct {
	ID         string
	Source     string
	Target     string
	Relation   RelationKind
	Properties EdgeProperties
	CreatedAt  time.Time
}

// EdgeProperties is the edge property bag from spec §3.
type EdgeProperties struct {
	CallName   string `json:"call_name,omitempty"`
	SourceFile string `json:"source_file,omitempty"`
	TargetFile string `json:"target_file,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
	Original   string `json:"original,omitempty"`
}

// GraphStats summarizes one graph-construction run (spec §4.10).
type GraphStats struct {
	Repository           string
	TotalNodes            int
	TotalEdges            int
	NodesByType           map[string]int
	EdgesByType           map[string]int
	ConstructionTime      float64
	ResolutionAccuracy    float64
}
