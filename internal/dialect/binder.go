package dialect

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Binder renders bind markers for one statement and maps named values onto
// driver arguments in marker order. A Binder is not safe for concurrent
// marker rendering; build statements on one goroutine and share the result.
type Binder struct {
	style MarkerStyle
	names []string
	index map[string]int
}

// NewBinder returns an empty binder for d.
func NewBinder(d Dialect) *Binder {
	return &Binder{style: d.MarkerStyle(), index: make(map[string]int)}
}

// Marker renders the marker for name and records it.
func (b *Binder) Marker(name string) string {
	switch b.style {
	case MarkerNumbered:
		i, ok := b.index[name]
		if !ok {
			b.names = append(b.names, name)
			i = len(b.names)
			b.index[name] = i
		}
		return "$" + strconv.Itoa(i)
	case MarkerPositional:
		b.names = append(b.names, name)
		return "?"
	default:
		if _, ok := b.index[name]; !ok {
			b.names = append(b.names, name)
			b.index[name] = len(b.names)
		}
		return "@" + name
	}
}

// Names returns the parameter names in driver argument order.
func (b *Binder) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Args maps values by parameter name onto driver arguments.
// Every recorded name must be present in values.
func (b *Binder) Args(values map[string]any) ([]any, error) {
	args := make([]any, 0, len(b.names))
	for _, name := range b.names {
		v, ok := values[name]
		if !ok {
			return nil, fmt.Errorf("no value bound for parameter %q", name)
		}
		if b.style == MarkerNamed {
			args = append(args, sql.Named(name, v))
		} else {
			args = append(args, v)
		}
	}
	return args, nil
}
