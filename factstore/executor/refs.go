package executor

import (
	"sort"

	"github.com/wbrown/factstore/factstore"
)

// refIndex is a two-way adjacency index over a Store's Refs, built
// once per Execute call and read-only for its duration. Keying by
// both endpoints up front replaces a per-outer-eid linear scan of the
// ref table, and returns every match rather than stopping at the
// first.
type refIndex map[factstore.EntityID][]factstore.EntityID

func buildRefIndex(refs []factstore.Ref) refIndex {
	idx := make(refIndex, len(refs)*2)
	add := func(from, to factstore.EntityID) {
		idx[from] = append(idx[from], to)
	}
	for _, r := range refs {
		add(r.E, r.V)
		add(r.V, r.E)
	}
	return idx
}

// translate maps a sorted, deduplicated set of child-namespace entity
// ids through the ref index, returning the sorted, deduplicated union
// of every id reachable by one ref hop. A join's child emits ids in
// its own namespace; this hop is what lets the enclosing level test
// its entities against them.
func (idx refIndex) translate(eids []factstore.EntityID) []factstore.EntityID {
	seen := make(map[factstore.EntityID]struct{})
	for _, eid := range eids {
		for _, neighbor := range idx[eid] {
			seen[neighbor] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[factstore.EntityID]struct{}) []factstore.EntityID {
	out := make([]factstore.EntityID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// containsID reports whether the sorted slice eids contains id.
func containsID(eids []factstore.EntityID, id factstore.EntityID) bool {
	i := sort.Search(len(eids), func(i int) bool { return eids[i] >= id })
	return i < len(eids) && eids[i] == id
}
