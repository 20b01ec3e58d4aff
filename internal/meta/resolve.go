package meta

import (
	"io"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/exprsql/internal/ir"
)

// Resolver turns descriptors into cached EntityMetadata.
//
// Thread-safety: all methods are safe for concurrent use. The cache uses
// insert-if-absent semantics; concurrent first resolutions of the same type
// are collapsed, and a lost race always observes the stored winner.
type Resolver struct {
	naming   NamingPolicy
	logger   *slog.Logger
	cache    sync.Map // ir.TypeID → *EntityMetadata
	registry sync.Map // ir.TypeID → *Descriptor
	group    singleflight.Group
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithNaming selects the default naming policy.
func WithNaming(p NamingPolicy) Option {
	return func(r *Resolver) { r.naming = p }
}

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// NewResolver creates a Resolver with an empty cache.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		naming: NamingLower,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Naming returns the resolver's naming policy.
func (r *Resolver) Naming() NamingPolicy { return r.naming }

// Resolve returns the metadata for src, building and caching it on first use.
//
// The cache is keyed by type id: once a type is resolved, later calls return
// the same pointer even if a different descriptor for that id is passed.
// Fails with *ConfigurationError when src is nil or inconsistent.
func (r *Resolver) Resolve(src Source) (*EntityMetadata, error) {
	if src == nil {
		return nil, configErr("", "", "cannot resolve absent type")
	}
	d := src.Descriptor()
	if d == nil {
		return nil, configErr("", "", "cannot resolve absent type")
	}
	if d.Type.IsZero() {
		return nil, configErr("", "", "descriptor has empty type id")
	}

	if cached, ok := r.cache.Load(d.Type); ok {
		return cached.(*EntityMetadata), nil
	}

	v, err, _ := r.group.Do(string(d.Type), func() (any, error) {
		if cached, ok := r.cache.Load(d.Type); ok {
			return cached, nil
		}
		m, err := build(d, r.naming)
		if err != nil {
			return nil, err
		}
		actual, loaded := r.cache.LoadOrStore(d.Type, m)
		if !loaded {
			r.logger.Debug("metadata resolved",
				"type", d.Type,
				"table", m.tableName,
				"fields", len(m.fields),
				"identity", m.isIdentityEntity)
		}
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*EntityMetadata), nil
}

// MustResolve is like Resolve but panics on error.
// Use only in tests or for package-level mappings known to be valid.
func (r *Resolver) MustResolve(src Source) *EntityMetadata {
	m, err := r.Resolve(src)
	if err != nil {
		panic(err)
	}
	return m
}

// Register records a descriptor for later Lookup by type id.
// The descriptor is validated eagerly by resolving it.
func (r *Resolver) Register(src Source) (*EntityMetadata, error) {
	m, err := r.Resolve(src)
	if err != nil {
		return nil, err
	}
	r.registry.LoadOrStore(m.sourceType, src.Descriptor())
	return m, nil
}

// Lookup returns the metadata of a registered type.
func (r *Resolver) Lookup(typ ir.TypeID) (*EntityMetadata, error) {
	d, ok := r.registry.Load(typ)
	if !ok {
		return nil, configErr(typ, "", "type is not registered")
	}
	return r.Resolve(d.(*Descriptor))
}

// Registered returns the registered type ids in sorted order.
func (r *Resolver) Registered() []ir.TypeID {
	var ids []ir.TypeID
	r.registry.Range(func(k, _ any) bool {
		ids = append(ids, k.(ir.TypeID))
		return true
	})
	slices.Sort(ids)
	return ids
}

// build is the pure, deterministic resolution of one descriptor.
func build(d *Descriptor, naming NamingPolicy) (*EntityMetadata, error) {
	identity := d.IdentityMember
	for _, f := range d.Fields {
		if !f.Identity {
			continue
		}
		if identity != "" && identity != f.Member {
			return nil, configErr(d.Type, f.Member, "more than one identity field (already %q)", identity)
		}
		identity = f.Member
	}

	m := &EntityMetadata{
		sourceType:       d.Type,
		tableName:        d.Table,
		byMember:         make(map[string]int, len(d.Fields)),
		isIdentityEntity: identity != "",
	}
	if m.tableName == "" {
		m.tableName = naming.Apply(string(d.Type))
	}

	columns := make(map[string]string, len(d.Fields))
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if f.Member == "" {
			return nil, configErr(d.Type, "", "field with empty member name")
		}
		if seen[f.Member] {
			return nil, configErr(d.Type, f.Member, "duplicate member")
		}
		seen[f.Member] = true

		if f.Ignore {
			if f.Member == identity {
				return nil, configErr(d.Type, f.Member, "identity member cannot be ignored")
			}
			continue
		}

		col := f.Column
		if col == "" {
			col = naming.Apply(f.Member)
		}
		if other, dup := columns[col]; dup {
			return nil, configErr(d.Type, f.Member, "column %q already mapped by %q", col, other)
		}
		columns[col] = f.Member

		isIdentity := identity != "" && f.Member == identity
		fm := FieldMapping{
			MemberName: f.Member,
			ColumnName: col,
			// Identity entities are keyed by their identity member only.
			IsPrimaryKey: isIdentity || (identity == "" && f.Key),
			IsIdentity:   isIdentity,
			Kind:         f.Kind,
			Generated:    f.Generated,
		}
		m.byMember[f.Member] = len(m.fields)
		m.fields = append(m.fields, fm)
	}

	if identity != "" {
		if _, ok := m.byMember[identity]; !ok {
			return nil, configErr(d.Type, identity, "identity member is not a declared field")
		}
	}

	fp, err := ir.Fingerprint(ir.DomainMetadata, m.canonical())
	if err != nil {
		return nil, configErr(d.Type, "", "fingerprint: %v", err)
	}
	m.fingerprint = fp

	return m, nil
}
