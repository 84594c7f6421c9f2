package frame

import (
	"fmt"
	"math"
	"time"
)

// Role classifies a column at the point of creation. Downstream stages branch
// on roles instead of matching column names.
type Role int

const (
	// RoleRaw marks columns read straight from a source table.
	RoleRaw Role = iota
	// RoleMomentum marks return/momentum/volatility/volume columns whose
	// warm-up gaps are never imputed.
	RoleMomentum
	// RoleTechnical marks the indicator battery; warm-up gaps are gap-filled
	// by the finalizer.
	RoleTechnical
	// RoleMerged marks columns joined in from a lower-frequency source.
	RoleMerged
	// RoleDerived marks cross-source composite features.
	RoleDerived
	// RoleForward marks look-ahead columns, valid only as label inputs.
	RoleForward
	// RoleLabel marks prediction targets.
	RoleLabel
)

func (r Role) String() string {
	switch r {
	case RoleMomentum:
		return "momentum"
	case RoleTechnical:
		return "technical"
	case RoleMerged:
		return "merged"
	case RoleDerived:
		return "derived"
	case RoleForward:
		return "forward"
	case RoleLabel:
		return "label"
	default:
		return "raw"
	}
}

type Column struct {
	Name   string
	Role   Role
	Values []float64
}

// Frame is a time-indexed table of float columns. NaN is the absence value.
// The index is strictly ascending and shared by every column. Pipeline stages
// treat frames as immutable: each stage clones its input and returns the
// clone, so stage ordering is explicit rather than an artifact of shared
// mutation.
type Frame struct {
	index  []time.Time
	cols   []*Column
	byName map[string]int
}

func New(index []time.Time) (*Frame, error) {
	for i := 1; i < len(index); i++ {
		if !index[i].After(index[i-1]) {
			return nil, fmt.Errorf("index not strictly ascending at position %d (%s >= %s)",
				i, index[i-1].Format(time.RFC3339), index[i].Format(time.RFC3339))
		}
	}
	idx := make([]time.Time, len(index))
	copy(idx, index)
	return &Frame{index: idx, byName: make(map[string]int)}, nil
}

func (f *Frame) Len() int     { return len(f.index) }
func (f *Frame) NumCols() int { return len(f.cols) }

// Index returns the shared timestamp index. Callers must not mutate it.
func (f *Frame) Index() []time.Time { return f.index }

func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.Name
	}
	return names
}

func (f *Frame) Has(name string) bool {
	_, ok := f.byName[name]
	return ok
}

func (f *Frame) HasAll(names ...string) bool {
	for _, n := range names {
		if !f.Has(n) {
			return false
		}
	}
	return true
}

func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.byName[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Values returns the backing slice for a column, or nil if absent.
func (f *Frame) Values(name string) []float64 {
	if c, ok := f.Column(name); ok {
		return c.Values
	}
	return nil
}

func (f *Frame) AddColumn(name string, role Role, values []float64) error {
	if len(values) != len(f.index) {
		return fmt.Errorf("column %s has %d values, index has %d", name, len(values), len(f.index))
	}
	if _, exists := f.byName[name]; exists {
		return fmt.Errorf("column %s already exists", name)
	}
	f.byName[name] = len(f.cols)
	f.cols = append(f.cols, &Column{Name: name, Role: role, Values: values})
	return nil
}

func (f *Frame) DropColumn(name string) {
	i, ok := f.byName[name]
	if !ok {
		return
	}
	f.cols = append(f.cols[:i], f.cols[i+1:]...)
	delete(f.byName, name)
	for j := i; j < len(f.cols); j++ {
		f.byName[f.cols[j].Name] = j
	}
}

func (f *Frame) NamesWithRole(role Role) []string {
	var names []string
	for _, c := range f.cols {
		if c.Role == role {
			names = append(names, c.Name)
		}
	}
	return names
}

func (f *Frame) Clone() *Frame {
	out := &Frame{
		index:  append([]time.Time(nil), f.index...),
		cols:   make([]*Column, len(f.cols)),
		byName: make(map[string]int, len(f.byName)),
	}
	for i, c := range f.cols {
		out.cols[i] = &Column{
			Name:   c.Name,
			Role:   c.Role,
			Values: append([]float64(nil), c.Values...),
		}
		out.byName[c.Name] = i
	}
	return out
}

// SelectRows returns a new frame containing only the rows where keep is true.
func (f *Frame) SelectRows(keep []bool) *Frame {
	n := 0
	for _, k := range keep {
		if k {
			n++
		}
	}
	out := &Frame{
		index:  make([]time.Time, 0, n),
		cols:   make([]*Column, len(f.cols)),
		byName: make(map[string]int, len(f.byName)),
	}
	for i, t := range f.index {
		if keep[i] {
			out.index = append(out.index, t)
		}
	}
	for ci, c := range f.cols {
		vals := make([]float64, 0, n)
		for i, v := range c.Values {
			if keep[i] {
				vals = append(vals, v)
			}
		}
		out.cols[ci] = &Column{Name: c.Name, Role: c.Role, Values: vals}
		out.byName[c.Name] = ci
	}
	return out
}

// AlignTo projects this frame onto a finer target index: each target timestamp
// takes the last value at or before it (step-function upsampling; values are
// never interpolated or averaged). Timestamps before the first source row stay
// NaN for the caller's fill policy to resolve.
func (f *Frame) AlignTo(target []time.Time) *Frame {
	out := &Frame{
		index:  append([]time.Time(nil), target...),
		byName: make(map[string]int, len(f.byName)),
	}
	// For each target position, index of the latest source row at or before it.
	pos := make([]int, len(target))
	j := -1
	for i, t := range target {
		for j+1 < len(f.index) && !f.index[j+1].After(t) {
			j++
		}
		pos[i] = j
	}
	for _, c := range f.cols {
		vals := make([]float64, len(target))
		for i := range target {
			if pos[i] < 0 {
				vals[i] = math.NaN()
			} else {
				vals[i] = c.Values[pos[i]]
			}
		}
		out.byName[c.Name] = len(out.cols)
		out.cols = append(out.cols, &Column{Name: c.Name, Role: c.Role, Values: vals})
	}
	return out
}
