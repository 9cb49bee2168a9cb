package planner

import (
	"fmt"

	"github.com/wbrown/factstore/factstore/query"
)

// Plan walks ast pre-order, reverses that order to index children
// before parents, and assigns each indexed task to the earliest stage
// strictly after all of its dependencies.
func Plan(ast query.Node) (*QueryPlan, error) {
	preorder := walk(ast, nil)

	// Reverse so children are numbered before parents.
	nodes := make([]query.Node, len(preorder))
	for i, n := range preorder {
		nodes[len(preorder)-1-i] = n
	}

	ids := make(map[query.Node]int, len(nodes))
	for i, n := range nodes {
		ids[n] = i
	}

	stages := [][]int{{}}
	tasks := make([]Task, len(nodes))

	for id, n := range nodes {
		task, err := indexNode(n, id, ids)
		if err != nil {
			return nil, err
		}
		tasks[id] = task

		stageIdx, err := taskStage(task, stages)
		if err != nil {
			return nil, err
		}
		growStages(&stages, stageIdx)
		stages[stageIdx] = append(stages[stageIdx], id)
	}

	root := len(nodes) - 1
	markCollect(tasks, root)

	return &QueryPlan{Tasks: tasks, Stages: stages, Root: root}, nil
}

// walk returns the AST in pre-order (node before its children).
func walk(n query.Node, acc []query.Node) []query.Node {
	acc = append(acc, n)
	switch t := n.(type) {
	case *query.Or:
		acc = walk(t.Left, acc)
		acc = walk(t.Right, acc)
	case *query.Join:
		acc = walk(t.Child, acc)
	}
	return acc
}

func indexNode(n query.Node, id int, ids map[query.Node]int) (Task, error) {
	switch t := n.(type) {
	case query.True:
		return Task{ID: id, Kind: KindBase}, nil
	case *query.Expression:
		return Task{ID: id, Kind: KindBase, Preds: t.Preds}, nil
	case *query.Join:
		childID, ok := ids[t.Child]
		if !ok {
			return Task{}, fmt.Errorf("planner: join child not found in index")
		}
		return Task{ID: id, Kind: KindJoin, Preds: t.Preds, Child: childID}, nil
	case *query.Or:
		leftID, ok := ids[t.Left]
		if !ok {
			return Task{}, fmt.Errorf("planner: or left operand not found in index")
		}
		rightID, ok := ids[t.Right]
		if !ok {
			return Task{}, fmt.Errorf("planner: or right operand not found in index")
		}
		return Task{ID: id, Kind: KindOr, Left: leftID, Right: rightID}, nil
	default:
		return Task{}, fmt.Errorf("planner: unknown node type %T", n)
	}
}

// taskStage computes the stage a task belongs to: 0 for a Base task,
// otherwise one past the latest stage any of its dependencies live in.
func taskStage(t Task, stages [][]int) (int, error) {
	switch t.Kind {
	case KindBase:
		return 0, nil
	case KindJoin:
		dep, err := findStage(stages, t.Child)
		if err != nil {
			return 0, err
		}
		return dep + 1, nil
	case KindOr:
		leftStage, err := findStage(stages, t.Left)
		if err != nil {
			return 0, err
		}
		rightStage, err := findStage(stages, t.Right)
		if err != nil {
			return 0, err
		}
		if leftStage > rightStage {
			return leftStage + 1, nil
		}
		return rightStage + 1, nil
	default:
		return 0, fmt.Errorf("planner: unknown task kind %v", t.Kind)
	}
}

func findStage(stages [][]int, taskID int) (int, error) {
	for idx, stage := range stages {
		for _, id := range stage {
			if id == taskID {
				return idx, nil
			}
		}
	}
	return 0, fmt.Errorf("planner: task %d has no assigned stage", taskID)
}

// growStages grows stages until index stageIdx exists. The condition
// must be len(stages) < stageIdx+1: an earlier draft compared against
// stageIdx-1 and undershot the required stage count by two whenever a
// task landed more than one stage past the current table size.
func growStages(stages *[][]int, stageIdx int) {
	for len(*stages) < stageIdx+1 {
		*stages = append(*stages, []int{})
	}
}

// markCollect flags the root task and every task that is the Child of
// a Join as Collect: their matching entity-id set must be materialized
// into the cache between stages so a dependent Join can test against
// it.
func markCollect(tasks []Task, root int) {
	tasks[root].Collect = true
	for _, t := range tasks {
		if t.Kind == KindJoin {
			tasks[t.Child].Collect = true
		}
	}
}
