package store

import (
	"context"
	"fmt"

	"github.com/roach88/exprsql/internal/dialect"
	"github.com/roach88/exprsql/internal/meta"
)

// Record is one row keyed by member name.
type Record map[string]any

// FindRecords runs a SELECT for an entity known only by its metadata and
// returns each row as a Record. Byte slices are returned as strings.
func (s *Store) FindRecords(ctx context.Context, m *meta.EntityMetadata, q dialect.Query, params Params) ([]Record, error) {
	st, err := dialect.Select(s.dialect, m, q)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.SourceType(), err)
	}
	rows, err := s.Query(ctx, st, params)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", m.SourceType(), err)
	}
	defer rows.Close()

	fields := m.Fields()
	out := []Record{}
	for rows.Next() {
		vals := make([]any, len(fields))
		dest := make([]any, len(fields))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("find %s: scan: %w", m.SourceType(), err)
		}
		rec := make(Record, len(fields))
		for i, f := range fields {
			if b, ok := vals[i].([]byte); ok {
				rec[f.MemberName] = string(b)
			} else {
				rec[f.MemberName] = vals[i]
			}
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: iterate: %w", m.SourceType(), err)
	}
	return out, nil
}
