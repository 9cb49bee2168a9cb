package executor

import (
	"strings"

	"github.com/wbrown/factstore/factstore/query"
)

// testInt evaluates an optional integer predicate; a nil predicate
// always holds. The parser never produces Contains for e/t outside a
// join marker, so that case is unreachable here.
func testInt(pred *query.IntPred, val uint64) bool {
	if pred == nil {
		return true
	}
	switch pred.Op {
	case query.Eq:
		return val == pred.Val
	case query.Gt:
		return val > pred.Val
	case query.Ge:
		return val >= pred.Val
	case query.Lt:
		return val < pred.Val
	case query.Le:
		return val <= pred.Val
	default:
		return false
	}
}

// testStr evaluates an optional string predicate. Ordering for >/< is
// plain codepoint order (byte-wise, for valid UTF-8) — no collation.
func testStr(pred *query.StrPred, val string) bool {
	if pred == nil {
		return true
	}
	switch pred.Op {
	case query.Eq:
		return val == pred.Val
	case query.Contains:
		return strings.Contains(val, pred.Val)
	case query.Gt:
		return val > pred.Val
	case query.Ge:
		return val >= pred.Val
	case query.Lt:
		return val < pred.Val
	case query.Le:
		return val <= pred.Val
	default:
		return false
	}
}
