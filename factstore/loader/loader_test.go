package loader

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wbrown/factstore/factstore"
)

func TestRobotize(t *testing.T) {
	require.Equal(t, "first_name", robotize("First Name"))
	require.Equal(t, "id", robotize("ID"))
}

func TestIngestBuildsDatumsPerNonTimeColumn(t *testing.T) {
	store := factstore.New()
	table := Table{
		Header: []string{"Name", "Age", "Time"},
		Rows: [][]string{
			{"alice", "30", "1"},
			{"bob", "41", "2"},
		},
	}
	cfg := Config{Entity: "person", TimeHeader: "Time"}

	n, err := Ingest(store, table, cfg)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Len(t, store.Datums, 4)
	require.Equal(t, factstore.EntityID(0), store.Datums[0].E)
	require.Equal(t, factstore.Attribute("person/name"), store.Datums[0].A)
	require.Equal(t, "alice", store.Datums[0].V)
	require.Equal(t, factstore.Time(1), store.Datums[0].T)
	require.Equal(t, factstore.EntityID(1), store.Datums[2].E)
	require.Equal(t, factstore.EntityID(2), store.Offset)
}

func TestIngestAdvancesOffsetAcrossCalls(t *testing.T) {
	store := factstore.New()
	table := Table{
		Header: []string{"Name", "Time"},
		Rows:   [][]string{{"alice", "1"}},
	}
	cfg := Config{Entity: "person", TimeHeader: "Time"}

	_, err := Ingest(store, table, cfg)
	require.NoError(t, err)
	require.Equal(t, factstore.EntityID(1), store.Offset)

	_, err = Ingest(store, table, cfg)
	require.NoError(t, err)
	require.Equal(t, factstore.EntityID(2), store.Offset)
	require.Equal(t, factstore.EntityID(1), store.Datums[len(store.Datums)-1].E)
}

func TestIngestMissingTimeHeaderFails(t *testing.T) {
	store := factstore.New()
	table := Table{
		Header: []string{"Name"},
		Rows:   [][]string{{"alice"}},
	}
	cfg := Config{Entity: "person", TimeHeader: "Time"}

	_, err := Ingest(store, table, cfg)
	require.Error(t, err)
	var tfe *factstore.TabularFormatError
	require.ErrorAs(t, err, &tfe)
	require.Empty(t, store.Datums, "store must be left untouched on error")
}

func TestIngestNonIntegerTimeFailsAllOrNothing(t *testing.T) {
	store := factstore.New()
	table := Table{
		Header: []string{"Name", "Time"},
		Rows: [][]string{
			{"alice", "1"},
			{"bob", "not-a-number"},
		},
	}
	cfg := Config{Entity: "person", TimeHeader: "Time"}

	_, err := Ingest(store, table, cfg)
	require.Error(t, err)
	require.Empty(t, store.Datums, "a failure partway through must leave the store untouched, not partially ingested")
	require.Empty(t, store.Refs)
	require.Equal(t, factstore.EntityID(0), store.Offset)
}

func TestIngestResolvesJoins(t *testing.T) {
	store := factstore.New()

	people := Table{
		Header: []string{"Name", "Time"},
		Rows: [][]string{
			{"alice", "1"},
			{"bob", "1"},
		},
	}
	_, err := Ingest(store, people, Config{Entity: "person", TimeHeader: "Time"})
	require.NoError(t, err)

	orders := Table{
		Header: []string{"Customer", "Item", "Time"},
		Rows: [][]string{
			{"bob", "widget", "2"},
		},
	}
	cfg := Config{
		Entity:     "order",
		TimeHeader: "Time",
		Joins: []Join{
			{Column: "Customer", Query: "a=person/name"},
		},
	}
	_, err = Ingest(store, orders, cfg)
	require.NoError(t, err)

	require.Len(t, store.Refs, 1)
	ref := store.Refs[0]
	require.Equal(t, factstore.EntityID(1), ref.V, "order's customer ref must point at bob's entity id")
	require.Equal(t, factstore.Attribute("order/person"), ref.A)
}

func TestIngestRaggedRowFailsAllOrNothing(t *testing.T) {
	store := factstore.New()
	table := Table{
		Header: []string{"Name", "Age", "Time"},
		Rows: [][]string{
			{"alice", "30", "1"},
			{"bob", "2"},
		},
	}

	_, err := Ingest(store, table, Config{Entity: "person", TimeHeader: "Time"})
	require.Error(t, err)
	var tfe *factstore.TabularFormatError
	require.ErrorAs(t, err, &tfe)
	require.Empty(t, store.Datums)
}

func TestIngestRefEndpointsAlwaysHaveDatums(t *testing.T) {
	store := factstore.New()

	artists := Table{
		Header: []string{"Name", "Time"},
		Rows:   [][]string{{"holst", "1"}, {"ravel", "1"}},
	}
	_, err := Ingest(store, artists, Config{Entity: "artist", TimeHeader: "Time"})
	require.NoError(t, err)

	albums := Table{
		Header: []string{"Title", "Artist", "Time"},
		Rows: [][]string{
			{"the planets", "holst", "2"},
			{"bolero", "ravel", "2"},
			{"ma mere l'oye", "ravel", "2"},
		},
	}
	cfg := Config{
		Entity:     "album",
		TimeHeader: "Time",
		Joins:      []Join{{Column: "Artist", Query: "a=artist/name"}},
	}
	_, err = Ingest(store, albums, cfg)
	require.NoError(t, err)
	require.Len(t, store.Refs, 3)

	entities := make(map[factstore.EntityID]bool)
	for _, d := range store.Datums {
		entities[d.E] = true
	}
	for _, r := range store.Refs {
		require.True(t, entities[r.E], "ref source %d must exist as a datum entity", r.E)
		require.True(t, entities[r.V], "ref target %d must exist as a datum entity", r.V)
	}
}

func TestIngestJoinWithNoMatchProducesNoRefs(t *testing.T) {
	store := factstore.New()

	people := Table{
		Header: []string{"Name", "Time"},
		Rows:   [][]string{{"alice", "1"}},
	}
	_, err := Ingest(store, people, Config{Entity: "person", TimeHeader: "Time"})
	require.NoError(t, err)

	orders := Table{
		Header: []string{"Customer", "Time"},
		Rows:   [][]string{{"nobody", "2"}},
	}
	cfg := Config{
		Entity:     "order",
		TimeHeader: "Time",
		Joins:      []Join{{Column: "Customer", Query: "a=person/name"}},
	}
	_, err = Ingest(store, orders, cfg)
	require.NoError(t, err)
	require.Empty(t, store.Refs)
}
