package sysmap

// OrphanedLink is a link that references at least one missing node
type OrphanedLink struct {
	Link
	Reason string `json:"reason"`
}

// IntegrityReport partitions a map's links into those whose endpoints
// both resolve and those that reference missing nodes. The partition is
// complete: len(ValidLinks) + len(OrphanedLinks) == len(map.Links).
type IntegrityReport struct {
	ValidLinks    []Link         `json:"validLinks"`
	OrphanedLinks []OrphanedLink `json:"orphanedLinks"`
}

// Consistent reports whether every link resolved
func (r *IntegrityReport) Consistent() bool {
	return len(r.OrphanedLinks) == 0
}

// ValidateIntegrity inspects every link without mutating the map.
// Repair is the caller's choice: keep ValidLinks, drop OrphanedLinks.
func (m *Map) ValidateIntegrity() *IntegrityReport {
	ids := m.NodeIDSet()

	report := &IntegrityReport{
		ValidLinks:    []Link{},
		OrphanedLinks: []OrphanedLink{},
	}

	for _, link := range m.Links {
		_, sourceExists := ids[link.Source]
		_, targetExists := ids[link.Target]

		if sourceExists && targetExists {
			report.ValidLinks = append(report.ValidLinks, link)
			continue
		}

		reason := ""
		switch {
		case !sourceExists && !targetExists:
			reason = "source+target missing"
		case !sourceExists:
			reason = "source missing"
		default:
			reason = "target missing"
		}
		report.OrphanedLinks = append(report.OrphanedLinks, OrphanedLink{Link: link, Reason: reason})
	}

	return report
}
