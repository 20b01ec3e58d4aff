package exprparse

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// exprLexer tokenizes the lambda text syntax.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Float", Pattern: `\d+\.\d+`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Char", Pattern: `'(?:\\.|[^'\\])'`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Operator", Pattern: `=>|==|!=|<=|>=|&&|\|\||[-+*/%<>!.,()@$]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

var parser = participle.MustBuild[Expression](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String", "Char"),
	participle.UseLookahead(4),
)

// Expression is a lambda or a plain disjunction.
type Expression struct {
	Pos    lexer.Position
	Lambda *LambdaExpr `  @@`
	Or     *OrExpr     `| @@`
}

// LambdaExpr is x => body.
type LambdaExpr struct {
	Pos   lexer.Position
	Param string      `@Ident "=>"`
	Body  *Expression `@@`
}

type OrExpr struct {
	Left  *AndExpr   `@@`
	Right []*AndExpr `( "||" @@ )*`
}

type AndExpr struct {
	Left  *Comparison   `@@`
	Right []*Comparison `( "&&" @@ )*`
}

type Comparison struct {
	Left  *Addition `@@`
	Op    string    `( @( "==" | "!=" | "<=" | ">=" | "<" | ">" )`
	Right *Addition `  @@ )?`
}

type Addition struct {
	Left *Multiplication `@@`
	Rest []*AddOp        `@@*`
}

type AddOp struct {
	Op    string          `@( "+" | "-" )`
	Right *Multiplication `@@`
}

type Multiplication struct {
	Left *Unary   `@@`
	Rest []*MulOp `@@*`
}

type MulOp struct {
	Op    string `@( "*" | "/" | "%" )`
	Right *Unary `@@`
}

type Unary struct {
	Pos     lexer.Position
	Op      string   `  ( @( "!" | "-" )`
	Operand *Unary   `    @@ )`
	Postfix *Postfix `| @@`
}

// Postfix is a primary followed by member accesses and method calls.
type Postfix struct {
	Primary   *Primary    `@@`
	Selectors []*Selector `@@*`
}

// Selector is .Name or .Name(args).
type Selector struct {
	Pos  lexer.Position
	Name string        `"." @Ident`
	Call bool          `( @"("`
	Args []*Expression `  ( @@ ( "," @@ )* )? ")" )?`
}

type Primary struct {
	Pos    lexer.Position
	Float  *float64    `  @Float`
	Int    *int64      `| @Int`
	String *string     `| @String`
	Char   *string     `| @Char`
	Bool   *string     `| @( "true" | "false" )`
	Null   bool        `| @"null"`
	Param  *string     `| "@" @Ident`
	Var    *string     `| "$" @Ident`
	Func   *FuncCall   `| @@`
	Ident  *string     `| @Ident`
	Sub    *Expression `| "(" @@ ")"`
}

// FuncCall is a receiver-less call: constructors, conversions and root
// chain methods.
type FuncCall struct {
	Pos  lexer.Position
	Name string        `@Ident "("`
	Args []*Expression `( @@ ( "," @@ )* )? ")"`
}
