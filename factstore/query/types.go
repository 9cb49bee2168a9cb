// Package query implements the text grammar and AST for factstore's
// query language: a compact language of field predicates over
// entity/attribute/value/time, composed with conjunction, disjunction
// and entity-valued joins.
package query

import "fmt"

// Field identifies one of the four datum fields a predicate can test.
type Field byte

const (
	FieldE Field = 'e'
	FieldA Field = 'a'
	FieldV Field = 'v'
	FieldT Field = 't'
)

func (f Field) String() string { return string(f) }

// Comparator identifies a predicate's comparison operator.
type Comparator int

const (
	Eq Comparator = iota
	Gt
	Ge
	Lt
	Le
	Contains // ':' — substring for a/v, join-membership for e
)

func (c Comparator) String() string {
	switch c {
	case Eq:
		return "="
	case Gt:
		return ">"
	case Ge:
		return ">="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Contains:
		return ":"
	default:
		return "?"
	}
}

// IntPred is a predicate over an integer-valued field (e or t).
type IntPred struct {
	Op  Comparator
	Val uint64
}

// StrPred is a predicate over a string-valued field (a or v).
type StrPred struct {
	Op  Comparator
	Val string
}

// Preds holds up to one predicate per field. A nil field always
// holds (matches every datum).
type Preds struct {
	E *IntPred
	A *StrPred
	V *StrPred
	T *IntPred
}

func (p Preds) String() string {
	s := ""
	if p.E != nil {
		s += fmt.Sprintf("e%s%d ", p.E.Op, p.E.Val)
	}
	if p.A != nil {
		s += fmt.Sprintf("a%s%s ", p.A.Op, p.A.Val)
	}
	if p.V != nil {
		s += fmt.Sprintf("v%s%s ", p.V.Op, p.V.Val)
	}
	if p.T != nil {
		s += fmt.Sprintf("t%s%d ", p.T.Op, p.T.Val)
	}
	return s
}

// Node is an AST node: True, *Expression, *Join or *Or.
type Node interface {
	node()
	String() string
}

// True matches every datum; it is the parse of an empty query.
type True struct{}

func (True) node()          {}
func (True) String() string { return "true" }

// Expression is a conjunction of up to four field predicates.
type Expression struct {
	Preds Preds
}

func (*Expression) node()          {}
func (e *Expression) String() string { return "[" + e.Preds.String() + "]" }

// Join is like Expression, except its E predicate (always Contains)
// binds to the entity-id set produced by evaluating Child.
type Join struct {
	Preds Preds
	Child Node
}

func (*Join) node()          {}
func (j *Join) String() string { return fmt.Sprintf("[%s: %s]", j.Preds, j.Child) }

// Or is a disjunction of two subtrees.
type Or struct {
	Left, Right Node
}

func (*Or) node()          {}
func (o *Or) String() string { return fmt.Sprintf("(%s | %s)", o.Left, o.Right) }
