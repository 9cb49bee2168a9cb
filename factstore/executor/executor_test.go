package executor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/factstore/factstore"
)

func sampleStore() *factstore.Store {
	s := factstore.New()
	s.Datums = []factstore.Datum{
		{E: 1, A: "person/name", V: "alice", T: 1},
		{E: 1, A: "person/age", V: "30", T: 1},
		{E: 2, A: "person/name", V: "bob", T: 2},
		{E: 2, A: "person/age", V: "41", T: 2},
		{E: 3, A: "order/item", V: "widget", T: 3},
		{E: 3, A: "order/customer", V: "2", T: 3},
	}
	s.Refs = []factstore.Ref{
		{E: 3, A: "order/person/customer/name", V: 2, T: 3},
	}
	s.Offset = 4
	return s
}

func TestExecuteQueryBaseExpression(t *testing.T) {
	store := sampleStore()
	view, err := ExecuteQuery(store, "a=person/name")
	require.NoError(t, err)
	require.Len(t, view.Datums, 2)
	require.Equal(t, factstore.EntityID(1), view.Datums[0].E)
	require.Equal(t, factstore.EntityID(2), view.Datums[1].E)
}

func TestExecuteQueryEmptyQueryMatchesEverything(t *testing.T) {
	store := sampleStore()
	view, err := ExecuteQuery(store, "")
	require.NoError(t, err)
	require.Len(t, view.Datums, len(store.Datums))
}

func TestExecuteQueryOr(t *testing.T) {
	store := sampleStore()
	view, err := ExecuteQuery(store, "a=person/name v=alice | a=person/name v=bob")
	require.NoError(t, err)
	require.Len(t, view.Datums, 2)
}

func TestExecuteQueryComparators(t *testing.T) {
	store := sampleStore()
	view, err := ExecuteQuery(store, "a=person/age v>35")
	require.NoError(t, err)
	require.Len(t, view.Datums, 1)
	require.Equal(t, factstore.EntityID(2), view.Datums[0].E)
}

func TestExecuteQueryJoinTranslatesThroughRefs(t *testing.T) {
	store := sampleStore()

	// Find orders whose customer ref points at an entity with
	// person/name = bob.
	view, err := ExecuteQuery(store, `e:(a=person/name v=bob) a=order/customer`)
	require.NoError(t, err)
	require.Len(t, view.Datums, 1)
	require.Equal(t, factstore.EntityID(3), view.Datums[0].E)
	require.Equal(t, factstore.Attribute("order/customer"), view.Datums[0].A)
}

func TestExecuteQueryJoinWithNoMatchesIsEmpty(t *testing.T) {
	store := sampleStore()
	view, err := ExecuteQuery(store, `e:(a=person/name v=nobody) a=order/customer`)
	require.NoError(t, err)
	require.Empty(t, view.Datums)
}

func TestExecuteQueryOnEmptyStore(t *testing.T) {
	store := factstore.New()
	view, err := ExecuteQuery(store, "a=x")
	require.NoError(t, err)
	require.Empty(t, view.Datums)
}

func TestExecuteQueryPropagatesParseError(t *testing.T) {
	store := sampleStore()
	_, err := ExecuteQuery(store, "t:5")
	require.Error(t, err)
}

func TestExecutorReuseAcrossQueries(t *testing.T) {
	store := sampleStore()
	ex := New(store, Options{Workers: 2})

	v1, err := ex.ExecuteText("a=person/name")
	require.NoError(t, err)
	require.Len(t, v1.Datums, 2)

	v2, err := ex.ExecuteText("a=order/item")
	require.NoError(t, err)
	require.Len(t, v2.Datums, 1)
}

// TestRefIndexTranslatesBothDirections guards the two-way contract: a
// ref index must union every matching neighbor in either direction,
// never just the first hit in one direction.
func TestRefIndexTranslatesBothDirections(t *testing.T) {
	refs := []factstore.Ref{
		{E: 10, A: "a/b", V: 1, T: 0},
		{E: 10, A: "a/b", V: 2, T: 0},
		{E: 20, A: "a/b", V: 1, T: 0},
	}
	idx := buildRefIndex(refs)

	got := idx.translate([]factstore.EntityID{1})
	require.ElementsMatch(t, []factstore.EntityID{10, 20}, got, "translate must union all ref endpoints, not just the first match")

	got = idx.translate([]factstore.EntityID{10})
	require.ElementsMatch(t, []factstore.EntityID{1, 2}, got)
}

func TestWorkerPoolPanicIsSurfacedAsSingleError(t *testing.T) {
	pool := NewWorkerPool(4)
	err := pool.Run(100, func(lo, hi int) {
		if lo == 0 {
			panic("boom")
		}
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestWorkerPoolRunsEveryIndex(t *testing.T) {
	pool := NewWorkerPool(3)
	seen := make([]bool, 37)
	// Each worker only ever touches its own disjoint [lo, hi) range, so
	// no additional synchronization is needed between goroutines.
	err := pool.Run(len(seen), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			seen[i] = true
		}
	})
	require.NoError(t, err)
	for i, ok := range seen {
		require.True(t, ok, "index %d was never visited", i)
	}
}
