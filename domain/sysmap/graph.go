package sysmap

import (
	"strings"

	apperrors "sysmap-backend/pkg/errors"
)

// UnknownType marks a connection endpoint whose node no longer exists
const UnknownType = "Unknown"

// DefaultGroup is assigned when a node is created or renamed without one
const DefaultGroup = "Default"

// NodePatch carries the mutable node fields for an update. Nil fields
// are left untouched; the node id itself is never changed by a patch.
type NodePatch struct {
	Group       *string
	Description *string
	Attributes  *[]string
}

// RenameResult reports link accounting after a rename so callers can
// detect link loss (LinksAfter should always equal LinksBefore).
type RenameResult struct {
	OldID        string
	NewID        string
	LinksUpdated int
	LinksBefore  int
	LinksAfter   int
	Node         Node
}

// RemoveLinkResult reports what a link removal did
type RemoveLinkResult struct {
	Removed        int
	RemainingLinks int
}

// AddNode appends a node and one link per parent id.
//
// Parent ids are intentionally not checked for existence: a client may
// reference a parent it is about to create. The integrity validator and
// the connection views tolerate the resulting dangling links.
func (m *Map) AddNode(node Node, parentIDs []string, maxNodes int) error {
	if strings.TrimSpace(node.ID) == "" {
		return apperrors.NewValidationError("node id is required")
	}
	if m.HasNode(node.ID) {
		return apperrors.NewConflictError("a node with this id already exists")
	}
	if maxNodes > 0 && len(m.Nodes) >= maxNodes {
		return apperrors.NewLimitExceededError("node", maxNodes)
	}

	if node.Group == "" {
		node.Group = DefaultGroup
	}
	if node.Attributes == nil {
		node.Attributes = []string{}
	}
	node.LegacyType = ""

	m.Nodes = append(m.Nodes, node)

	for _, parentID := range parentIDs {
		if strings.TrimSpace(parentID) == "" {
			continue
		}
		m.Links = append(m.Links, Link{Source: parentID, Target: node.ID})
	}

	m.Touch()
	return nil
}

// UpdateNode merges patch fields onto an existing node. When parentIDs
// is non-nil the node's incoming links are replaced: every link whose
// target is the node is dropped, then one link is added per parent id
// that is non-blank and resolves to an existing node. Unresolvable
// parent ids are skipped silently; that is replacement semantics, not a
// validation failure.
func (m *Map) UpdateNode(nodeID string, patch NodePatch, parentIDs *[]string) (*Node, error) {
	node := m.FindNode(nodeID)
	if node == nil {
		return nil, apperrors.NewNotFoundError("node")
	}

	if patch.Group != nil {
		node.Group = *patch.Group
	}
	if patch.Description != nil {
		node.Description = *patch.Description
	}
	if patch.Attributes != nil {
		node.Attributes = *patch.Attributes
	}

	if parentIDs != nil {
		m.replaceParents(nodeID, *parentIDs)
	}

	m.Touch()
	return node, nil
}

// RenameNode changes a node's identity and rewrites every link that
// references the old id. The traversal must visit 100% of links: a
// missed link silently disconnects the renamed node from the graph.
func (m *Map) RenameNode(oldID, newID string, attrs NodePatch, parentIDs *[]string) (*RenameResult, error) {
	if strings.TrimSpace(newID) == "" {
		return nil, apperrors.NewValidationError("new node id is required")
	}

	node := m.FindNode(oldID)
	if node == nil {
		return nil, apperrors.NewNotFoundError("node")
	}

	// A different node already holding the new id is a conflict;
	// renaming a node to its own id is allowed.
	if existing := m.FindNode(newID); existing != nil && oldID != newID {
		return nil, apperrors.NewConflictError("a node with the new id already exists")
	}

	linksBefore := m.countLinksTouching(oldID)

	// Step 1: replace the node record in place, preserving its
	// position in the node sequence. Rename is a replacement, not a
	// merge: omitted fields fall back to their zero forms.
	node.ID = newID
	node.Group = DefaultGroup
	if attrs.Group != nil && *attrs.Group != "" {
		node.Group = *attrs.Group
	}
	node.Description = ""
	if attrs.Description != nil {
		node.Description = *attrs.Description
	}
	node.Attributes = []string{}
	if attrs.Attributes != nil {
		node.Attributes = *attrs.Attributes
	}
	node.LegacyType = ""

	// Step 2: rewrite every link. Source and target are checked
	// independently so a self-loop gets both endpoints updated.
	linksUpdated := 0
	for i := range m.Links {
		changed := false
		if m.Links[i].Source == oldID {
			m.Links[i].Source = newID
			changed = true
		}
		if m.Links[i].Target == oldID {
			m.Links[i].Target = newID
			changed = true
		}
		if changed {
			linksUpdated++
		}
	}

	// Step 3: optional parent replacement, keyed on the new id since
	// the node no longer has the old one.
	if parentIDs != nil {
		m.replaceParents(newID, *parentIDs)
	}

	// Step 4
	m.Touch()

	return &RenameResult{
		OldID:        oldID,
		NewID:        newID,
		LinksUpdated: linksUpdated,
		LinksBefore:  linksBefore,
		LinksAfter:   m.countLinksTouching(newID),
		Node:         *node,
	}, nil
}

// DeleteNode removes a node and cascades to every link touching it, so
// no dangling link survives by construction
func (m *Map) DeleteNode(nodeID string) error {
	if !m.HasNode(nodeID) {
		return apperrors.NewNotFoundError("node")
	}

	nodes := m.Nodes[:0]
	for _, n := range m.Nodes {
		if n.ID != nodeID {
			nodes = append(nodes, n)
		}
	}
	m.Nodes = nodes

	links := m.Links[:0]
	for _, l := range m.Links {
		if l.Source != nodeID && l.Target != nodeID {
			links = append(links, l)
		}
	}
	m.Links = links

	m.Touch()
	return nil
}

// RemoveLink removes all links matching the exact (source, target) pair
func (m *Map) RemoveLink(source, target string) (*RemoveLinkResult, error) {
	before := len(m.Links)

	links := m.Links[:0]
	for _, l := range m.Links {
		if !(l.Source == source && l.Target == target) {
			links = append(links, l)
		}
	}
	m.Links = links

	removed := before - len(m.Links)
	if removed == 0 {
		return nil, apperrors.NewNotFoundError("connection")
	}

	m.Touch()
	return &RemoveLinkResult{Removed: removed, RemainingLinks: len(m.Links)}, nil
}

// replaceParents drops every incoming link of nodeID and adds one link
// per parent id that is non-blank and names an existing node
func (m *Map) replaceParents(nodeID string, parentIDs []string) {
	links := m.Links[:0]
	for _, l := range m.Links {
		if l.Target != nodeID {
			links = append(links, l)
		}
	}
	m.Links = links

	for _, parentID := range parentIDs {
		if strings.TrimSpace(parentID) == "" {
			continue
		}
		if !m.HasNode(parentID) {
			continue
		}
		m.Links = append(m.Links, Link{Source: parentID, Target: nodeID})
	}
}

// countLinksTouching counts links whose source or target is id
func (m *Map) countLinksTouching(id string) int {
	count := 0
	for _, l := range m.Links {
		if l.Source == id || l.Target == id {
			count++
		}
	}
	return count
}
