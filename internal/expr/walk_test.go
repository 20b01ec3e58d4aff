package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprsql/internal/ir"
)

const (
	student ir.TypeID = "Student"
	keyArgs ir.TypeID = "StudentKey"
)

func TestAnd_FoldsLeft(t *testing.T) {
	a, b, c := Const(true), Const(false), Const(true)

	n := And(a, b, c)
	outer, ok := n.(BinaryOp)
	require.True(t, ok)
	assert.Equal(t, OpAnd, outer.Op)
	assert.Equal(t, c, outer.Right)

	inner, ok := outer.Left.(BinaryOp)
	require.True(t, ok)
	assert.Equal(t, a, inner.Left)
	assert.Equal(t, b, inner.Right)

	assert.Nil(t, And())
	assert.Equal(t, a, Or(a))
}

func TestKeyEquals(t *testing.T) {
	n := KeyEquals(student, keyArgs, "Cource", "Letter")
	assert.Equal(t, "((Student.Cource == StudentKey.Cource) && (Student.Letter == StudentKey.Letter))", Format(n))
}

func TestWalk_PreOrderAndSkip(t *testing.T) {
	n := And(Eq(Member(student, "Cource"), Const(1)), Not(Member(student, "Active")))

	var seen []string
	Walk(n, func(c Node) bool {
		seen = append(seen, nodeName(c))
		_, isNot := c.(UnaryOp)
		return !isNot
	})

	assert.Equal(t, []string{"BinaryOp", "BinaryOp", "MemberRef", "Constant", "UnaryOp"}, seen)
}

func TestWalk_PointerNodes(t *testing.T) {
	n := &BinaryOp{Left: &MemberRef{Owner: student, Member: "Cource"}, Op: OpEq, Right: &Constant{Value: ir.IRInt(1)}}

	count := 0
	Walk(n, func(Node) bool { count++; return true })
	assert.Equal(t, 3, count)
	assert.True(t, References(n, student))
}

func TestReferences(t *testing.T) {
	n := Eq(Member(student, "Cource"), Member(keyArgs, "Cource"))

	assert.True(t, References(n, student))
	assert.True(t, References(n, keyArgs))
	assert.False(t, References(n, "Teacher"))
	assert.False(t, References(Const(1), student))
	assert.True(t, References(Lambda1(student, Const(1)), student))
	assert.False(t, References(n, ""))
}

func TestFoldable(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"constant", Const(1), true},
		{"captured", Member(locals, "x"), true},
		{"call on captured", Call(Member(locals, "x"), "Trim"), true},
		{"entity member", Member(student, "Cource"), false},
		{"param member", Member(keyArgs, "Cource"), false},
		{"nested entity member", Binary(Const(1), OpAdd, Member(student, "Cource")), false},
		{"placeholder", Root(student), false},
		{"lambda", Lambda1("Other", Const(1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Foldable(tt.node, student, keyArgs))
		})
	}
}

func nodeName(n Node) string {
	switch n.(type) {
	case BinaryOp:
		return "BinaryOp"
	case UnaryOp:
		return "UnaryOp"
	case MemberRef:
		return "MemberRef"
	case Constant:
		return "Constant"
	default:
		return "other"
	}
}
