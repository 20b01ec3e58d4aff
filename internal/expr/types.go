package expr

import "github.com/roach88/exprsql/internal/ir"

// Node is a sealed interface implemented by every AST variant.
type Node interface {
	exprNode() // Marker method - seals interface to this package
}

// Operator identifies a unary or binary operation.
type Operator string

const (
	// Logical
	OpAnd Operator = "&&"
	OpOr  Operator = "||"

	// Comparison
	OpEq Operator = "=="
	OpNe Operator = "!="
	OpLt Operator = "<"
	OpLe Operator = "<="
	OpGt Operator = ">"
	OpGe Operator = ">="

	// Arithmetic (host-evaluated only)
	OpAdd Operator = "+"
	OpSub Operator = "-"
	OpMul Operator = "*"
	OpDiv Operator = "/"
	OpMod Operator = "%"

	// Unary
	OpNot     Operator = "!"
	OpNegate  Operator = "neg"
	OpConvert Operator = "convert"
)

// IsLogical reports whether op is && or ||.
func (op Operator) IsLogical() bool { return op == OpAnd || op == OpOr }

// IsComparison reports whether op is one of == != < <= > >=.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	default:
		return false
	}
}

// IsArithmetic reports whether op is one of + - * / %.
func (op Operator) IsArithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return true
	default:
		return false
	}
}

// BinaryOp applies Op to Left and Right.
type BinaryOp struct {
	Left  Node
	Op    Operator
	Right Node
}

func (BinaryOp) exprNode() {}

// UnaryOp applies Op to Operand.
// For OpConvert, Type is the target kind of the conversion.
type UnaryOp struct {
	Op      Operator
	Operand Node
	Type    ir.Kind
}

func (UnaryOp) exprNode() {}

// MemberRef references Member declared by the type Owner.
//
// Owner decides the leaf classification: the entity type renders a column,
// the parameter type renders a bind parameter, anything else (for example a
// closure scope) is evaluated on the host. Kind is the member's value kind
// when known.
type MemberRef struct {
	Owner  ir.TypeID
	Member string
	Kind   ir.Kind
}

func (MemberRef) exprNode() {}

// Constant is a literal value. Kind overrides the kind derived from Value
// when set (for example a char stored as IRInt).
type Constant struct {
	Value ir.IRValue
	Kind  ir.Kind
}

func (Constant) exprNode() {}

// ValueKind returns the declared kind, or the kind of Value.
func (c Constant) ValueKind() ir.Kind {
	if c.Kind != ir.KindUnknown {
		return c.Kind
	}
	return ir.KindOf(c.Value)
}

// MethodCall invokes Method on Receiver with Args.
// A nil Receiver denotes a static call such as Count() on the query root.
type MethodCall struct {
	Receiver Node
	Method   string
	Args     []Node
}

func (MethodCall) exprNode() {}

// Constructed builds a value of kind Type from Args,
// e.g. Constructed{Type: ir.KindTime, Args: [2020, 1, 2]}.
type Constructed struct {
	Type ir.Kind
	Args []Node
}

func (Constructed) exprNode() {}

// Lambda is a one-parameter function x => Body, where Param is the type of x.
// Used for order and aggregate selectors.
type Lambda struct {
	Param ir.TypeID
	Body  Node
}

func (Lambda) exprNode() {}

// Param is the bare parameter placeholder of type Type. It terminates order
// and aggregate chains: Param.OrderBy(...).OrderByDescending(...).
type Param struct {
	Type ir.TypeID
}

func (Param) exprNode() {}

// Unwrap returns the value form of pointer nodes and n unchanged otherwise.
func Unwrap(n Node) Node {
	switch v := n.(type) {
	case *BinaryOp:
		if v == nil {
			return nil
		}
		return *v
	case *UnaryOp:
		if v == nil {
			return nil
		}
		return *v
	case *MemberRef:
		if v == nil {
			return nil
		}
		return *v
	case *Constant:
		if v == nil {
			return nil
		}
		return *v
	case *MethodCall:
		if v == nil {
			return nil
		}
		return *v
	case *Constructed:
		if v == nil {
			return nil
		}
		return *v
	case *Lambda:
		if v == nil {
			return nil
		}
		return *v
	case *Param:
		if v == nil {
			return nil
		}
		return *v
	default:
		return n
	}
}
