package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/exprsql/internal/ir"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{"nil", nil, "<nil>"},
		{"starts with", Call(Member(student, "FirstName"), "StartsWith", Const("Iv")), `Student.FirstName.StartsWith("Iv")`},
		{"char convert", Eq(Convert(Member(student, "Letter"), ir.KindInt), Const(65)), "(convert<int>(Student.Letter) == 65)"},
		{"not", Not(Member(student, "Active")), "!Student.Active"},
		{"null", Eq(Member(student, "Birthday"), Null()), "(Student.Birthday == null)"},
		{"char", Char('A'), "'A'"},
		{"lambda", Lambda1(student, Member(student, "Cource")), "Student => Student.Cource"},
		{"order chain", Call(Call(Root(student), "OrderBy", Lambda1(student, Member(student, "Birthday"))), "OrderByDescending", Lambda1(student, Member(student, "SecondName"))),
			"Student.OrderBy(Student => Student.Birthday).OrderByDescending(Student => Student.SecondName)"},
		{"constructed", New(ir.KindTime, Const(2020), Const(1), Const(2)), "new time(2020, 1, 2)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.node))
		})
	}
}
