// Package planner flattens a query AST into dense-integer-indexed
// tasks arranged into dependency-ordered stages: the data-parallel
// analogue of a topologically sorted SSA form. Every task's
// dependencies live in strictly earlier stages, so the executor can
// evaluate a whole stage in parallel and only synchronize between
// stages.
package planner

import "github.com/wbrown/factstore/factstore/query"

// Kind identifies the shape of an indexed task.
type Kind int

const (
	KindBase Kind = iota
	KindOr
	KindJoin
)

// Task is one node of the flattened plan. Every task, regardless of
// Collect, is tagged during execution (see executor); Collect marks
// the subset whose matching entity-id set must also be materialized
// into the inter-stage cache — the root task and every task feeding a
// Join as its Child.
type Task struct {
	ID      int
	Kind    Kind
	Preds   query.Preds // KindBase, KindJoin
	Child   int         // KindJoin: task id of the child sub-plan
	Left    int         // KindOr
	Right   int         // KindOr
	Collect bool
}

// QueryPlan is a query AST flattened into tasks and grouped into stages:
// every task's dependencies lie in strictly earlier stages, and tasks
// within a stage carry no dependencies among themselves.
type QueryPlan struct {
	Tasks  []Task
	Stages [][]int
	Root   int
}
