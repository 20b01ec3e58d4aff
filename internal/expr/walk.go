package expr

import "github.com/roach88/exprsql/internal/ir"

// Children returns the direct sub-nodes of n in evaluation order.
func Children(n Node) []Node {
	switch v := Unwrap(n).(type) {
	case BinaryOp:
		return []Node{v.Left, v.Right}
	case UnaryOp:
		return []Node{v.Operand}
	case MethodCall:
		out := make([]Node, 0, len(v.Args)+1)
		if v.Receiver != nil {
			out = append(out, v.Receiver)
		}
		return append(out, v.Args...)
	case Constructed:
		return v.Args
	case Lambda:
		return []Node{v.Body}
	default:
		return nil
	}
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the current node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// References reports whether the tree contains a member reference owned by
// any of types, a placeholder of those types, or a lambda over them.
func References(n Node, types ...ir.TypeID) bool {
	found := false
	Walk(n, func(c Node) bool {
		if found {
			return false
		}
		switch v := Unwrap(c).(type) {
		case MemberRef:
			found = containsType(types, v.Owner)
		case Param:
			found = containsType(types, v.Type)
		case Lambda:
			found = containsType(types, v.Param)
		}
		return !found
	})
	return found
}

// Foldable reports whether n can be evaluated on the host: it references
// neither entity nor params and contains no lambda or placeholder.
func Foldable(n Node, entity, params ir.TypeID) bool {
	foldable := true
	Walk(n, func(c Node) bool {
		switch v := Unwrap(c).(type) {
		case Lambda, Param:
			foldable = false
		case MemberRef:
			if v.Owner == entity || (!params.IsZero() && v.Owner == params) {
				foldable = false
			}
		}
		return foldable
	})
	return foldable
}

func containsType(types []ir.TypeID, t ir.TypeID) bool {
	for _, x := range types {
		if x == t && !t.IsZero() {
			return true
		}
	}
	return false
}
