package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/exprparse"
	"github.com/roach88/exprsql/internal/ir"
	"github.com/roach88/exprsql/internal/meta"
	"github.com/roach88/exprsql/internal/schema"
	"github.com/roach88/exprsql/internal/sqlexpr"
)

// ErrCodeFailed is the case error code for failures without a dedicated code.
const ErrCodeFailed = "FAILED"

// Harness compiles scenario cases against one resolver.
type Harness struct {
	resolver *meta.Resolver
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the harness logger. Defaults to a discarding logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// WithNaming sets the naming policy of the harness resolver.
func WithNaming(p meta.NamingPolicy) Option {
	return func(h *Harness) { h.resolver = meta.NewResolver(meta.WithNaming(p)) }
}

// WithResolver compiles against an existing resolver, e.g. one already
// populated from a schema directory.
func WithResolver(r *meta.Resolver) Option {
	return func(h *Harness) { h.resolver = r }
}

// Run executes a scenario with default options.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// New creates a harness with a fresh resolver.
func New(opts ...Option) *Harness {
	h := &Harness{
		resolver: meta.NewResolver(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Load the scenario schema directory, if any
// 2. Register inline entities
// 3. Compile every case and record its SQL or error code
// 4. Compare each outcome with the case expectation
//
// Errors loading entities abort the run. Case failures are reported in
// the result.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	if err := h.register(scenario); err != nil {
		return nil, err
	}

	result := NewResult()
	for _, c := range scenario.Cases {
		result.AddCase(h.Compile(c, scenario.Dialect))
	}

	for _, msg := range EvaluateCases(scenario.Cases, result.Cases) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) register(scenario *Scenario) error {
	if scenario.Schema != "" {
		loaded, errs := schema.Load(scenario.Schema, schema.LoadModeFailFast)
		if len(errs) > 0 {
			return fmt.Errorf("failed to load schema %s: %w", scenario.Schema, errs[0])
		}
		if err := loaded.Register(h.resolver); err != nil {
			return fmt.Errorf("failed to register schema entities: %w", err)
		}
	}

	for _, e := range scenario.Entities {
		d := e.Descriptor()
		if verrs := schema.Validate(d); len(verrs) > 0 {
			return fmt.Errorf("entity %s: %w", e.Type, verrs[0])
		}
		if _, err := h.resolver.Register(d); err != nil {
			return fmt.Errorf("entity %s: %w", e.Type, err)
		}
	}
	return nil
}

// Compile compiles a single case against the harness resolver. The case
// dialect wins over defaultDialect, which falls back to sqlite.
func (h *Harness) Compile(c Case, defaultDialect string) CaseResult {
	var got CaseResult
	sql, params, err := h.compile(c, defaultDialect)
	if err != nil {
		got = CaseResult{Name: c.Name, Error: ErrorCode(err), Detail: err.Error()}
	} else {
		got = CaseResult{Name: c.Name, SQL: sql, Params: params}
	}
	h.logger.Debug("case compiled",
		"case", c.Name,
		"entity", c.Entity,
		"sql", got.SQL,
		"error", got.Error,
	)
	return got
}

func (h *Harness) compile(c Case, defaultDialect string) (string, []string, error) {
	m, err := h.resolver.Lookup(ir.TypeID(c.Entity))
	if err != nil {
		return "", nil, err
	}

	name := c.Dialect
	if name == "" {
		name = defaultDialect
	}
	if name == "" {
		name = dialect.SQLite
	}
	d, err := dialect.Lookup(name)
	if err != nil {
		return "", nil, err
	}

	paramType := ir.TypeID(c.Params)
	if paramType == "" {
		paramType = exprparse.DefaultParamType
	}
	opts := exprparse.Options{Metadata: m, ParamType: paramType}

	var env *expr.Env
	if len(c.Vars) > 0 {
		env = &expr.Env{}
		for k, v := range c.Vars {
			env.Bind(exprparse.LocalsType, k, v)
		}
	}

	node, err := parseOptional(c.Expr, opts)
	if err != nil {
		return "", nil, err
	}

	switch c.Kind {
	case KindSelect, KindCount:
		order, err := parseOptional(c.Order, opts)
		if err != nil {
			return "", nil, err
		}
		q := dialect.Query{Where: node, Order: order, ParamType: paramType, Env: env, Limit: c.Limit}
		var st dialect.Statement
		if c.Kind == KindSelect {
			st, err = dialect.Select(d, m, q)
		} else {
			st, err = dialect.Count(d, m, q)
		}
		if err != nil {
			return "", nil, err
		}
		return st.SQL, st.Binder.Names(), nil
	}

	b := dialect.NewBinder(d)
	ctx := sqlexpr.Context{Metadata: m, ParamType: paramType, Marker: b.Marker, Env: env}
	var frag sqlexpr.Fragment
	switch c.Kind {
	case KindPredicate:
		frag, err = sqlexpr.CompilePredicateFragment(ctx, node)
	case KindOrder:
		frag, err = sqlexpr.CompileOrderFragment(ctx, node)
	case KindScalar:
		frag, err = sqlexpr.CompileScalarFragment(ctx, node)
	default:
		err = fmt.Errorf("invalid kind %q", c.Kind)
	}
	if err != nil {
		return "", nil, err
	}
	return frag.SQL, frag.Params, nil
}

func parseOptional(src string, opts exprparse.Options) (expr.Node, error) {
	if src == "" {
		return nil, nil
	}
	return exprparse.Parse(src, opts)
}

// ErrorCode maps a compile failure onto its stable code.
func ErrorCode(err error) string {
	if code := sqlexpr.Code(err); code != "" {
		return code
	}
	switch {
	case exprparse.IsParseError(err):
		return exprparse.ErrCodeParse
	case meta.IsConfigurationError(err):
		return meta.ErrCodeConfiguration
	default:
		return ErrCodeFailed
	}
}
