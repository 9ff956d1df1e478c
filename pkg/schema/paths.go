package schema

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Evidence IDs are dotted paths into the snapshot, e.g.
// "snapshot.market_summary.note". They must resolve against the actual value
// tree of the paired snapshot, not merely match a naming convention.

var evidenceIDPattern = regexp.MustCompile(`^snapshot\.[a-z_0-9]+(\.[a-z_0-9]+)*$`)

// ValidEvidenceIDFormat reports whether the id is a well-formed dotted path.
func ValidEvidenceIDFormat(id string) bool {
	return len(id) <= 60 && evidenceIDPattern.MatchString(id)
}

// ResolveEvidenceID reports whether the dotted path resolves to a field that
// exists in the given snapshot. Optional blocks that are nil in this snapshot
// do not resolve: citing them would reference data the run never had.
func ResolveEvidenceID(snapshot *Snapshot, id string) bool {
	if snapshot == nil || !ValidEvidenceIDFormat(id) {
		return false
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return false
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return false
	}

	segments := strings.Split(id, ".")[1:] // drop leading "snapshot"
	var current any = tree
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return false
		}
		next, ok := node[segment]
		if !ok || next == nil {
			return false
		}
		current = next
	}
	return true
}

// EvidenceResolver resolves many ids against one snapshot without
// re-marshaling it per call.
type EvidenceResolver struct {
	tree map[string]any
}

// NewEvidenceResolver builds a resolver for one snapshot.
func NewEvidenceResolver(snapshot *Snapshot) (*EvidenceResolver, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return &EvidenceResolver{tree: tree}, nil
}

// Resolves reports whether the id points at an existing, non-nil field.
func (r *EvidenceResolver) Resolves(id string) bool {
	if r == nil || !ValidEvidenceIDFormat(id) {
		return false
	}
	segments := strings.Split(id, ".")[1:]
	var current any = r.tree
	for _, segment := range segments {
		node, ok := current.(map[string]any)
		if !ok {
			return false
		}
		next, ok := node[segment]
		if !ok || next == nil {
			return false
		}
		current = next
	}
	return true
}
