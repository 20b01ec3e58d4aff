package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/expr"
	"github.com/roach88/exprsql/internal/meta"
)

// Params are bind values by parameter member name.
type Params map[string]any

// Bind returns the parameter values of p as described by m.
func Bind[P any](m *meta.Mapping[P], p *P) Params {
	return m.Values(p)
}

// Table is the typed repository for records of type T.
type Table[T any] struct {
	store   *Store
	mapping *meta.Mapping[T]
	meta    *meta.EntityMetadata
}

// NewTable resolves the metadata of mapping with the store's resolver.
func NewTable[T any](s *Store, mapping *meta.Mapping[T]) (*Table[T], error) {
	m, err := s.resolver.Resolve(mapping)
	if err != nil {
		return nil, err
	}
	for _, f := range m.Fields() {
		var zero T
		if _, ok := mapping.Ptr(&zero, f.MemberName); !ok {
			return nil, &meta.ConfigurationError{
				Type:    m.SourceType(),
				Member:  f.MemberName,
				Message: "mapped field has no accessor",
			}
		}
	}
	return &Table[T]{store: s, mapping: mapping, meta: m}, nil
}

// Metadata returns the resolved entity metadata.
func (t *Table[T]) Metadata() *meta.EntityMetadata { return t.meta }

// Insert writes rec. Zero fields generated as UUIDs are filled first, and
// the identity value assigned by the database is written back into rec.
func (t *Table[T]) Insert(ctx context.Context, rec *T) error {
	if err := t.generate(rec); err != nil {
		return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
	}

	st, err := dialect.Insert(t.store.dialect, t.meta)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
	}
	values := t.mapping.Values(rec)

	if st.Returning == "" {
		if _, err := t.store.Exec(ctx, st, values); err != nil {
			return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
		}
		return nil
	}

	idPtr, _ := t.mapping.Ptr(rec, st.Returning)
	if t.store.dialect.Returning() {
		row, err := t.store.QueryRow(ctx, st, values)
		if err != nil {
			return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
		}
		if err := row.Scan(idPtr); err != nil {
			return fmt.Errorf("insert %s: scan identity: %w", t.meta.SourceType(), err)
		}
		return nil
	}

	res, err := t.store.Exec(ctx, st, values)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert %s: last insert id: %w", t.meta.SourceType(), err)
	}
	if err := setInt(idPtr, id); err != nil {
		return fmt.Errorf("insert %s: %w", t.meta.SourceType(), err)
	}
	return nil
}

// Update rewrites the non-key columns of the row addressed by rec's key.
// Returns the number of rows affected.
func (t *Table[T]) Update(ctx context.Context, rec *T) (int64, error) {
	st, err := dialect.Update(t.store.dialect, t.meta)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", t.meta.SourceType(), err)
	}
	return t.exec(ctx, "update", st, t.mapping.Values(rec))
}

// Delete removes the row addressed by rec's key.
// Returns the number of rows affected.
func (t *Table[T]) Delete(ctx context.Context, rec *T) (int64, error) {
	st, err := dialect.Delete(t.store.dialect, t.meta)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.meta.SourceType(), err)
	}
	return t.exec(ctx, "delete", st, t.mapping.Values(rec))
}

// DeleteWhere removes every row matching q.Where.
func (t *Table[T]) DeleteWhere(ctx context.Context, q dialect.Query, params Params) (int64, error) {
	if q.Where == nil {
		return 0, fmt.Errorf("delete %s: refusing to delete without a predicate", t.meta.SourceType())
	}
	st, err := dialect.DeleteWhere(t.store.dialect, t.meta, q)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", t.meta.SourceType(), err)
	}
	return t.exec(ctx, "delete", st, params)
}

func (t *Table[T]) exec(ctx context.Context, op string, st dialect.Statement, values map[string]any) (int64, error) {
	res, err := t.store.Exec(ctx, st, values)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, t.meta.SourceType(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %s: rows affected: %w", op, t.meta.SourceType(), err)
	}
	return n, nil
}

// Get loads the row addressed by the key members of rec into rec.
// Returns ErrNotFound when no row matches.
func (t *Table[T]) Get(ctx context.Context, rec *T) error {
	st, err := dialect.Get(t.store.dialect, t.meta)
	if err != nil {
		return fmt.Errorf("get %s: %w", t.meta.SourceType(), err)
	}
	row, err := t.store.QueryRow(ctx, st, t.mapping.Values(rec))
	if err != nil {
		return fmt.Errorf("get %s: %w", t.meta.SourceType(), err)
	}
	if err := row.Scan(t.dest(rec)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get %s: %w", t.meta.SourceType(), err)
	}
	return nil
}

// Find returns the rows matching q. Returns an empty slice (not nil) when
// no row matches.
func (t *Table[T]) Find(ctx context.Context, q dialect.Query, params Params) ([]T, error) {
	st, err := dialect.Select(t.store.dialect, t.meta, q)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.meta.SourceType(), err)
	}
	rows, err := t.store.Query(ctx, st, params)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", t.meta.SourceType(), err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var rec T
		if err := rows.Scan(t.dest(&rec)...); err != nil {
			return nil, fmt.Errorf("find %s: scan: %w", t.meta.SourceType(), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: iterate: %w", t.meta.SourceType(), err)
	}
	return out, nil
}

// Count returns the number of rows matching q.Where.
func (t *Table[T]) Count(ctx context.Context, q dialect.Query, params Params) (int64, error) {
	st, err := dialect.Count(t.store.dialect, t.meta, q)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.meta.SourceType(), err)
	}
	row, err := t.store.QueryRow(ctx, st, params)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.meta.SourceType(), err)
	}
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.meta.SourceType(), err)
	}
	return n, nil
}

// Aggregate evaluates a scalar projection such as Average or Sum over the
// rows matching q.Where. The result is invalid when no row matches.
func (t *Table[T]) Aggregate(ctx context.Context, scalar expr.Node, q dialect.Query, params Params) (sql.NullFloat64, error) {
	var out sql.NullFloat64
	st, err := dialect.Aggregate(t.store.dialect, t.meta, scalar, q)
	if err != nil {
		return out, fmt.Errorf("aggregate %s: %w", t.meta.SourceType(), err)
	}
	row, err := t.store.QueryRow(ctx, st, params)
	if err != nil {
		return out, fmt.Errorf("aggregate %s: %w", t.meta.SourceType(), err)
	}
	if err := row.Scan(&out); err != nil {
		return out, fmt.Errorf("aggregate %s: %w", t.meta.SourceType(), err)
	}
	return out, nil
}

// dest returns the scan destinations of rec in column order.
func (t *Table[T]) dest(rec *T) []any {
	fields := t.meta.Fields()
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i], _ = t.mapping.Ptr(rec, f.MemberName)
	}
	return out
}

// generate fills zero fields marked meta.GenerateUUID from the store's
// ID generator.
func (t *Table[T]) generate(rec *T) error {
	for _, f := range t.meta.Fields() {
		if f.Generated != meta.GenerateUUID {
			continue
		}
		ptr, _ := t.mapping.Ptr(rec, f.MemberName)
		switch p := ptr.(type) {
		case *uuid.UUID:
			if *p != uuid.Nil {
				continue
			}
			id, err := t.store.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate %s: %w", f.MemberName, err)
			}
			*p = id
		case *string:
			if *p != "" {
				continue
			}
			id, err := t.store.ids.NewID()
			if err != nil {
				return fmt.Errorf("generate %s: %w", f.MemberName, err)
			}
			*p = id.String()
		default:
			return fmt.Errorf("generate %s: uuid generation needs a uuid.UUID or string field, got %T", f.MemberName, ptr)
		}
	}
	return nil
}

func setInt(ptr any, v int64) error {
	switch p := ptr.(type) {
	case *int64:
		*p = v
	case *int:
		*p = int(v)
	case *int32:
		*p = int32(v)
	case *uint64:
		*p = uint64(v)
	case *sql.NullInt64:
		*p = sql.NullInt64{Int64: v, Valid: true}
	default:
		return fmt.Errorf("identity field must be an integer, got %T", ptr)
	}
	return nil
}
