// Package loader maps already-tabular rows into the Datum/Ref model,
// discovering entity-to-entity references by running a query per
// declared join clause. Reading the table itself (CSV parsing, file
// I/O) belongs to the caller; this package only consumes an
// already-parsed Table.
package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/wbrown/factstore/factstore"
	"github.com/wbrown/factstore/factstore/executor"
)

// Table is a header row plus data rows, the boundary interface to the
// out-of-scope tabular file reader.
type Table struct {
	Header []string
	Rows   [][]string
}

// Join declares that the values of Column should be resolved, via
// Query, against entities already in the store, producing Refs from
// the newly ingested rows to whatever Query's results point at.
type Join struct {
	Column string
	Query  string
}

// Config describes one ingest call: which entity the rows belong to,
// which header carries the transaction time, and which columns are
// entity-valued joins.
type Config struct {
	Entity     string
	TimeHeader string
	Joins      []Join
}

// Ingest appends table's rows to store as new Datums, resolves every
// declared Join into new Refs, and advances store.Offset. Ingestion
// is all-or-nothing: on any error, store is left byte-identical to
// its pre-call state, and the returned error carries a batch id so a
// REPL session ingesting many tables can tell which call failed.
func Ingest(store *factstore.Store, table Table, cfg Config) (int, error) {
	batch := uuid.NewString()

	timeIdx := -1
	for i, h := range table.Header {
		if h == cfg.TimeHeader {
			timeIdx = i
			break
		}
	}
	if timeIdx == -1 {
		return 0, &factstore.TabularFormatError{
			Batch:   batch,
			Message: fmt.Sprintf("missing time header %q", cfg.TimeHeader),
		}
	}

	newDatums, err := buildDatums(table, cfg, timeIdx, store.Offset, batch)
	if err != nil {
		return 0, err
	}

	newRefs, err := resolveJoins(store, newDatums, cfg, batch)
	if err != nil {
		return 0, err
	}

	store.Datums = append(store.Datums, newDatums...)
	store.Refs = append(store.Refs, newRefs...)
	store.Offset += factstore.EntityID(len(table.Rows))

	return len(table.Rows), nil
}

func buildDatums(table Table, cfg Config, timeIdx int, offset factstore.EntityID, batch string) ([]factstore.Datum, error) {
	var out []factstore.Datum

	for k, row := range table.Rows {
		if len(row) != len(table.Header) {
			return nil, &factstore.TabularFormatError{
				Batch:   batch,
				Message: fmt.Sprintf("row %d has %d cells, expected %d", k, len(row), len(table.Header)),
			}
		}
		t, err := strconv.ParseUint(row[timeIdx], 10, 64)
		if err != nil {
			return nil, &factstore.TabularFormatError{
				Batch:   batch,
				Message: fmt.Sprintf("time column value %q is not an integer", row[timeIdx]),
			}
		}

		eid := offset + factstore.EntityID(k)
		for i, h := range table.Header {
			if i == timeIdx {
				continue
			}
			attr := factstore.Attribute(cfg.Entity + "/" + robotize(h))
			out = append(out, factstore.Datum{
				E: eid,
				A: attr,
				V: row[i],
				T: factstore.Time(t),
			})
		}
	}
	return out, nil
}

// resolveJoins runs each join's query against the store as it stood
// before this ingest, then links every freshly built datum for that
// join's column to every matching pre-existing entity.
func resolveJoins(store *factstore.Store, newDatums []factstore.Datum, cfg Config, batch string) ([]factstore.Ref, error) {
	var refs []factstore.Ref

	for _, join := range cfg.Joins {
		attr := factstore.Attribute(cfg.Entity + "/" + robotize(join.Column))

		view, err := executor.ExecuteQuery(store, join.Query)
		if err != nil {
			return nil, fmt.Errorf("loader: batch %s: join on %q: %w", batch, join.Column, err)
		}

		index := indexByValue(view.Datums)

		for _, n := range newDatums {
			if n.A != attr {
				continue
			}
			for _, o := range index[n.V] {
				refs = append(refs, factstore.Ref{
					E: n.E,
					A: factstore.Attribute(n.A.Entity() + "/" + o.A.Entity()),
					V: o.E,
					T: n.T,
				})
			}
		}
	}

	return refs, nil
}

func indexByValue(datums []factstore.Datum) map[string][]factstore.Datum {
	index := make(map[string][]factstore.Datum)
	for _, d := range datums {
		index[d.V] = append(index[d.V], d)
	}
	return index
}

// robotize lowercases a header and replaces spaces with underscores.
func robotize(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, " ", "_"))
}
