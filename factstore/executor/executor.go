// Package executor evaluates a planner.QueryPlan over a factstore.Store in
// parallel, managing the per-datum tag bitsets and the inter-stage
// entity-id cache that makes joins work.
package executor

import (
	"sort"

	"github.com/wbrown/factstore/factstore"
	"github.com/wbrown/factstore/factstore/planner"
	"github.com/wbrown/factstore/factstore/query"
)

// Options configures an Executor.
type Options struct {
	// Workers is the worker pool width; <= 0 uses DefaultWorkers.
	Workers int
}

// Executor evaluates plans over a fixed Store. It holds no mutable
// state between calls to Execute — the Store is shared immutably
// across all workers for the duration of one query, and an Executor
// may be reused across any number of sequential queries.
type Executor struct {
	store *factstore.Store
	pool  *WorkerPool
}

// New creates an Executor over store with the given options.
func New(store *factstore.Store, opts Options) *Executor {
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Executor{store: store, pool: NewWorkerPool(workers)}
}

// ExecuteQuery parses and plans text before executing it with a
// default-width Executor; a convenience for callers (such as the
// loader) that only have raw query text.
func ExecuteQuery(store *factstore.Store, text string) (factstore.View, error) {
	ast, err := query.Parse(text)
	if err != nil {
		return factstore.View{}, err
	}
	plan, err := planner.Plan(ast)
	if err != nil {
		return factstore.View{}, err
	}
	return New(store, Options{}).Execute(plan)
}

// ExecuteText parses and plans text using the Executor's own worker
// configuration, then executes it.
func (ex *Executor) ExecuteText(text string) (factstore.View, error) {
	ast, err := query.Parse(text)
	if err != nil {
		return factstore.View{}, err
	}
	plan, err := planner.Plan(ast)
	if err != nil {
		return factstore.View{}, err
	}
	return ex.Execute(plan)
}

// Execute runs plan against the Executor's store and returns a view
// of every matching datum, in the store's original insertion order.
func (ex *Executor) Execute(plan *planner.QueryPlan) (factstore.View, error) {
	datums := ex.store.Datums
	if len(datums) == 0 {
		return factstore.View{}, nil
	}

	tags := make([]tagSet, len(datums))
	for i := range tags {
		tags[i] = newTagSet(len(plan.Tasks))
	}

	cache := make(map[int][]factstore.EntityID)
	joinChild := joinChildSet(plan.Tasks)
	refs := buildRefIndex(ex.store.Refs)

	for _, stage := range plan.Stages {
		if len(stage) == 0 {
			continue
		}

		stageTasks := make([]planner.Task, len(stage))
		for i, id := range stage {
			stageTasks[i] = plan.Tasks[id]
		}

		err := ex.pool.Run(len(datums), func(lo, hi int) {
			for i := lo; i < hi; i++ {
				d := datums[i]
				for _, task := range stageTasks {
					if evalTask(task, d, tags[i], cache) {
						tags[i].set(task.ID)
					}
				}
			}
		})
		if err != nil {
			return factstore.View{}, err
		}

		for _, id := range stage {
			task := plan.Tasks[id]
			if !task.Collect {
				continue
			}
			eids := distinctEntityIDs(id, tags, datums)
			if joinChild[id] {
				eids = refs.translate(eids)
			}
			cache[id] = eids
		}
	}

	var out []factstore.Datum
	for i, d := range datums {
		if tags[i].test(plan.Root) {
			out = append(out, d)
		}
	}
	return factstore.View{Datums: out}, nil
}

// evalTask tests whether task's predicate holds for datum d, given the
// tag bits already recorded for d (from earlier stages only — a
// task's own stage never needs its siblings' bits) and the cache
// populated by earlier stages.
func evalTask(task planner.Task, d factstore.Datum, tags tagSet, cache map[int][]factstore.EntityID) bool {
	switch task.Kind {
	case planner.KindBase:
		return testInt(task.Preds.E, uint64(d.E)) &&
			testStr(task.Preds.A, string(d.A)) &&
			testStr(task.Preds.V, d.V) &&
			testInt(task.Preds.T, uint64(d.T))

	case planner.KindJoin:
		// The join's E predicate is a structural marker, not a
		// runtime string operation: membership in the child's
		// (ref-translated) entity-id set replaces the usual int test.
		eMatch := containsID(cache[task.Child], d.E)
		return eMatch &&
			testStr(task.Preds.A, string(d.A)) &&
			testStr(task.Preds.V, d.V) &&
			testInt(task.Preds.T, uint64(d.T))

	case planner.KindOr:
		// Both operands were already evaluated in their own earlier
		// stages; disjunction short-circuits only here, in the tag
		// lookup, never in scheduling.
		return tags.test(task.Left) || tags.test(task.Right)

	default:
		return false
	}
}

func joinChildSet(tasks []planner.Task) map[int]bool {
	set := make(map[int]bool)
	for _, t := range tasks {
		if t.Kind == planner.KindJoin {
			set[t.Child] = true
		}
	}
	return set
}

// distinctEntityIDs forms the sorted, deduplicated list of D.e for
// every datum tagged with taskID.
func distinctEntityIDs(taskID int, tags []tagSet, datums []factstore.Datum) []factstore.EntityID {
	seen := make(map[factstore.EntityID]struct{})
	for i, d := range datums {
		if tags[i].test(taskID) {
			seen[d.E] = struct{}{}
		}
	}
	out := make([]factstore.EntityID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
