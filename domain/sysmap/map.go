// Package sysmap holds the system-map domain model: a named directed
// graph of typed nodes and links, and the operations that mutate it
// while preserving link referential integrity.
package sysmap

import (
	"time"
)

// Node is a typed, identified vertex in a map. Identity is the ID field;
// it is the only thing links reference, so every operation that changes
// a node's identity must also rewrite the link list.
type Node struct {
	ID          string   `json:"id"`
	Group       string   `json:"group"`
	Description string   `json:"description,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`

	// LegacyType is read from documents written before the group field
	// existed. Never written; only consulted as a group fallback.
	LegacyType string `json:"type,omitempty"`
}

// GroupOrDefault resolves the node's group, falling back to the legacy
// type field and then to a literal "Node"
func (n Node) GroupOrDefault() string {
	if n.Group != "" {
		return n.Group
	}
	if n.LegacyType != "" {
		return n.LegacyType
	}
	return "Node"
}

// Link is a directed connection between two node ids
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Map is the unit of persistence and editing: a named directed graph
type Map struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Nodes       []Node    `json:"nodes"`
	Links       []Link    `json:"links"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// Metadata is the denormalized summary kept in sync with every map
// write, used for list views without loading full graphs
type Metadata struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	NodeCount   int       `json:"nodeCount"`
	Updated     time.Time `json:"updated"`
}

// NewMap creates a map with the given identity and graph, stamping both
// timestamps to now
func NewMap(id, name, description string, nodes []Node, links []Link) *Map {
	now := time.Now().UTC()
	if nodes == nil {
		nodes = []Node{}
	}
	if links == nil {
		links = []Link{}
	}
	return &Map{
		ID:          id,
		Name:        name,
		Description: description,
		Nodes:       nodes,
		Links:       links,
		Created:     now,
		Updated:     now,
	}
}

// Summary computes the metadata projection for this map
func (m *Map) Summary() Metadata {
	return Metadata{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		NodeCount:   len(m.Nodes),
		Updated:     m.Updated,
	}
}

// Touch refreshes the updated timestamp
func (m *Map) Touch() {
	m.Updated = time.Now().UTC()
}

// FindNode returns a pointer into the node slice, or nil if absent
func (m *Map) FindNode(id string) *Node {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i]
		}
	}
	return nil
}

// HasNode reports whether a node with the given id exists
func (m *Map) HasNode(id string) bool {
	return m.FindNode(id) != nil
}

// NodeIDSet returns the set of node ids for integrity checks
func (m *Map) NodeIDSet() map[string]struct{} {
	ids := make(map[string]struct{}, len(m.Nodes))
	for _, n := range m.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}
