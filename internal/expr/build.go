package expr

import (
	"fmt"

	"github.com/roach88/exprsql/internal/ir"
)

// Member references a member of owner.
func Member(owner ir.TypeID, member string) MemberRef {
	return MemberRef{Owner: owner, Member: member}
}

// MemberOf references a member of owner with a known value kind.
func MemberOf(owner ir.TypeID, member string, kind ir.Kind) MemberRef {
	return MemberRef{Owner: owner, Member: member, Kind: kind}
}

// Const wraps a Go or IR value in a Constant.
// Panics if v has no IR representation; use ConstOf for untrusted input.
func Const(v any) Constant {
	c, err := ConstOf(v)
	if err != nil {
		panic(err)
	}
	return c
}

// ConstOf wraps a Go or IR value in a Constant.
func ConstOf(v any) (Constant, error) {
	val, err := ir.FromGo(v)
	if err != nil {
		return Constant{}, fmt.Errorf("constant: %w", err)
	}
	return Constant{Value: val}, nil
}

// Char is a character constant.
func Char(r rune) Constant {
	return Constant{Value: ir.IRChar(r)}
}

// Null is the null constant.
func Null() Constant {
	return Constant{Value: ir.IRNull{}}
}

// Binary builds left <op> right.
func Binary(left Node, op Operator, right Node) BinaryOp {
	return BinaryOp{Left: left, Op: op, Right: right}
}

// And folds nodes left-to-right into a chain of &&.
// Returns nil for no nodes and the node itself for one.
func And(nodes ...Node) Node { return chain(OpAnd, nodes) }

// Or folds nodes left-to-right into a chain of ||.
func Or(nodes ...Node) Node { return chain(OpOr, nodes) }

func chain(op Operator, nodes []Node) Node {
	if len(nodes) == 0 {
		return nil
	}
	acc := nodes[0]
	for _, n := range nodes[1:] {
		acc = BinaryOp{Left: acc, Op: op, Right: n}
	}
	return acc
}

func Eq(l, r Node) BinaryOp { return Binary(l, OpEq, r) }
func Ne(l, r Node) BinaryOp { return Binary(l, OpNe, r) }
func Lt(l, r Node) BinaryOp { return Binary(l, OpLt, r) }
func Le(l, r Node) BinaryOp { return Binary(l, OpLe, r) }
func Gt(l, r Node) BinaryOp { return Binary(l, OpGt, r) }
func Ge(l, r Node) BinaryOp { return Binary(l, OpGe, r) }

// Not negates a boolean node.
func Not(n Node) UnaryOp {
	return UnaryOp{Op: OpNot, Operand: n}
}

// Convert wraps n in a conversion to kind.
func Convert(n Node, kind ir.Kind) UnaryOp {
	return UnaryOp{Op: OpConvert, Operand: n, Type: kind}
}

// Call builds receiver.method(args...).
func Call(receiver Node, method string, args ...Node) MethodCall {
	return MethodCall{Receiver: receiver, Method: method, Args: args}
}

// New builds a Constructed value of the given kind.
func New(kind ir.Kind, args ...Node) Constructed {
	return Constructed{Type: kind, Args: args}
}

// Lambda1 builds param => body.
func Lambda1(param ir.TypeID, body Node) Lambda {
	return Lambda{Param: param, Body: body}
}

// Root is the bare parameter placeholder of typ.
func Root(typ ir.TypeID) Param {
	return Param{Type: typ}
}

// KeyEquals builds the conjunction owner.k1 == params.k1 && ... for the given
// members, in order. It is the predicate used to address one row by key.
func KeyEquals(entity, params ir.TypeID, members ...string) Node {
	nodes := make([]Node, len(members))
	for i, m := range members {
		nodes[i] = Eq(Member(entity, m), Member(params, m))
	}
	return And(nodes...)
}
