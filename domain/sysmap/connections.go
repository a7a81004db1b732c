package sysmap

import (
	"fmt"

	apperrors "sysmap-backend/pkg/errors"
)

// Connection is one enriched endpoint of a node's neighborhood view
type Connection struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Direction  string   `json:"direction"`
	Attributes []string `json:"attributes"`
}

// ConnectionView is the neighborhood of a single node
type ConnectionView struct {
	NodeID           string `json:"nodeId"`
	NodeName         string `json:"nodeName"`
	NodeType         string `json:"nodeType"`
	TotalConnections int    `json:"totalConnections"`
	ParentCount      int    `json:"parentCount"`
	ChildCount       int    `json:"childCount"`
	Connections      struct {
		Parents  []Connection `json:"parents"`
		Children []Connection `json:"children"`
		All      []Connection `json:"all"`
	} `json:"connections"`
}

// Endpoint is one side of an enriched map-wide connection entry
type Endpoint struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
}

// EnrichedLink is a link annotated with both endpoints' node data
type EnrichedLink struct {
	Source       Endpoint `json:"source"`
	Target       Endpoint `json:"target"`
	Relationship string   `json:"relationship"`
}

// MapConnections is the map-wide connection view
type MapConnections struct {
	MapID            string         `json:"mapId"`
	TotalConnections int            `json:"totalConnections"`
	Connections      []EnrichedLink `json:"connections"`
}

// endpoint builds an enriched endpoint, tolerating a dangling id rather
// than failing: a missing node is reported with the Unknown type.
func (m *Map) endpoint(id string) Endpoint {
	e := Endpoint{ID: id, Name: id, Type: UnknownType, Attributes: []string{}}
	if node := m.FindNode(id); node != nil {
		e.Type = node.GroupOrDefault()
		if node.Attributes != nil {
			e.Attributes = node.Attributes
		}
	}
	return e
}

// Connections returns the enriched neighborhood of nodeID: parents are
// distinct sources of links into the node, children distinct targets of
// links out of it
func (m *Map) Connections(nodeID string) (*ConnectionView, error) {
	node := m.FindNode(nodeID)
	if node == nil {
		return nil, apperrors.NewNotFoundError("node")
	}

	view := &ConnectionView{
		NodeID:   nodeID,
		NodeName: node.ID,
		NodeType: node.GroupOrDefault(),
	}
	view.Connections.Parents = []Connection{}
	view.Connections.Children = []Connection{}

	seenParents := make(map[string]struct{})
	seenChildren := make(map[string]struct{})

	for _, link := range m.Links {
		if link.Target == nodeID {
			if _, dup := seenParents[link.Source]; dup {
				continue
			}
			seenParents[link.Source] = struct{}{}
			ep := m.endpoint(link.Source)
			view.Connections.Parents = append(view.Connections.Parents, Connection{
				ID:         ep.ID,
				Name:       ep.Name,
				Type:       ep.Type,
				Direction:  "parent",
				Attributes: ep.Attributes,
			})
		}
	}

	for _, link := range m.Links {
		if link.Source == nodeID {
			if _, dup := seenChildren[link.Target]; dup {
				continue
			}
			seenChildren[link.Target] = struct{}{}
			ep := m.endpoint(link.Target)
			view.Connections.Children = append(view.Connections.Children, Connection{
				ID:         ep.ID,
				Name:       ep.Name,
				Type:       ep.Type,
				Direction:  "child",
				Attributes: ep.Attributes,
			})
		}
	}

	view.ParentCount = len(view.Connections.Parents)
	view.ChildCount = len(view.Connections.Children)
	view.TotalConnections = view.ParentCount + view.ChildCount
	view.Connections.All = append(
		append([]Connection{}, view.Connections.Parents...),
		view.Connections.Children...,
	)

	return view, nil
}

// AllConnections returns every link enriched with both endpoints
func (m *Map) AllConnections() *MapConnections {
	out := &MapConnections{
		MapID:       m.ID,
		Connections: make([]EnrichedLink, 0, len(m.Links)),
	}

	for _, link := range m.Links {
		out.Connections = append(out.Connections, EnrichedLink{
			Source:       m.endpoint(link.Source),
			Target:       m.endpoint(link.Target),
			Relationship: fmt.Sprintf("%s -> %s", link.Source, link.Target),
		})
	}

	out.TotalConnections = len(out.Connections)
	return out
}
