// Package redaction implements the anonymizing transform that turns an
// internal system map into a structurally equivalent, identifier-scrubbed
// snapshot safe for public sharing.
package redaction

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"sysmap-backend/domain/sysmap"
)

// RedactedNode carries only the allowlisted fields. Any field not
// explicitly copied here must never appear in public output, so new
// fields added to the internal node model stay private by default.
type RedactedNode struct {
	ID    string `json:"id"`
	Group string `json:"group"`
	Name  string `json:"name"`
}

// RedactedLink connects two redacted node ids
type RedactedLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// RedactedMap is the immutable public snapshot
type RedactedMap struct {
	ID     string                 `json:"id"`
	Nodes  []RedactedNode         `json:"nodes"`
	Links  []RedactedLink         `json:"links"`
	Config map[string]interface{} `json:"config"`
}

// Redact builds the anonymized snapshot of m under the given snapshot id.
//
// Nodes are processed in lexicographic id order so the per-group sequence
// numbers in the synthetic names are deterministic for a given node set,
// independent of the map's internal storage order. Each node gets a fresh
// random id; the original-to-redacted id mapping lives only on this
// function's stack and is discarded on return, so stored redacted data
// alone cannot be reversed.
func Redact(m *sysmap.Map, redactedID string, config map[string]interface{}) *RedactedMap {
	sorted := make([]sysmap.Node, len(m.Nodes))
	copy(sorted, m.Nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idMapping := make(map[string]string, len(sorted))
	groupCounters := make(map[string]int)

	nodes := make([]RedactedNode, 0, len(sorted))
	for _, original := range sorted {
		group := original.GroupOrDefault()
		groupCounters[group]++

		newID := uuid.New().String()
		idMapping[original.ID] = newID

		// Allowlist copy: id, group, and a synthetic name. Nothing else.
		nodes = append(nodes, RedactedNode{
			ID:    newID,
			Group: group,
			Name:  syntheticName(group, groupCounters[group]),
		})
	}

	// A link is emitted only when both endpoints mapped; links touching
	// a missing node are dropped rather than emitted half-rewritten.
	links := make([]RedactedLink, 0, len(m.Links))
	for _, link := range m.Links {
		source, sourceOK := idMapping[link.Source]
		target, targetOK := idMapping[link.Target]
		if sourceOK && targetOK {
			links = append(links, RedactedLink{Source: source, Target: target})
		}
	}

	return &RedactedMap{
		ID:     redactedID,
		Nodes:  nodes,
		Links:  links,
		Config: config,
	}
}

// syntheticName builds the display label; counters start at 1 per
// group: Server_1, Server_2, Database_1.
func syntheticName(group string, n int) string {
	return fmt.Sprintf("%s_%d", group, n)
}
