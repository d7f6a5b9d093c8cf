package query

import (
	"fmt"

	"github.com/truora/miniql/types"
)

// ConvertFunc coerces a value into a target type
type ConvertFunc func(types.Value) (types.Value, error)

type slot struct {
	value     types.Value
	bound     bool
	tags      []string
	converts  map[string]ConvertFunc
	converted map[string]types.Value
}

// Params is the parameter registry of one parsed statement. Names are kept in
// the order they were first registered. It is not safe for concurrent use.
type Params struct {
	names []string
	slots map[string]*slot
}

// NewParams creates an empty registry
func NewParams() *Params {
	return &Params{slots: map[string]*slot{}}
}

func (p *Params) slot(name string) *slot {
	s, ok := p.slots[name]
	if !ok {
		s = &slot{converts: map[string]ConvertFunc{}}
		p.slots[name] = s
		p.names = append(p.names, name)
	}

	return s
}

// Register adds name to the registry and returns its placeholder. Registering
// the same name again returns the same placeholder, so every occurrence binds
// together.
func (p *Params) Register(name string) types.Value {
	p.slot(name)

	return types.Param(name)
}

// RegisterConverted adds name to the registry and returns a placeholder that
// reads the bound value through convert. The value is shared with every
// other occurrence of name, the conversion only applies to this placeholder
// and to others registered with the same tag.
func (p *Params) RegisterConverted(name, tag string, convert ConvertFunc) types.Value {
	s := p.slot(name)

	if _, ok := s.converts[tag]; !ok {
		s.tags = append(s.tags, tag)
	}

	s.converts[tag] = convert

	return types.ConvertedParam(name, tag)
}

// Bind sets the value of a registered parameter and runs its conversions, so
// a value no converted occurrence accepts fails here. Binding twice replaces
// the previous value.
func (p *Params) Bind(name string, value types.Value) error {
	s, ok := p.slots[name]
	if !ok {
		return types.NewQueryError("unknown parameter %q, the statement declares %v", name, p.names)
	}

	if value.HasParams() {
		return types.NewInvalidArgumentError("parameter %q cannot be bound to another parameter", name)
	}

	converted := make(map[string]types.Value, len(s.tags))

	for _, tag := range s.tags {
		v, err := s.converts[tag](value)
		if err != nil {
			return fmt.Errorf("%w: binding parameter %q as %s", err, name, tag)
		}

		converted[tag] = v
	}

	s.value = value
	s.converted = converted
	s.bound = true

	return nil
}

// Names returns every parameter name in first encountered order
func (p *Params) Names() []string {
	return append([]string{}, p.names...)
}

// Len returns the number of registered parameters
func (p *Params) Len() int {
	return len(p.names)
}

// IsEmpty reports whether the statement declares no parameter
func (p *Params) IsEmpty() bool {
	return len(p.names) == 0
}

// Unbound returns the names still missing a value in first encountered order
func (p *Params) Unbound() []string {
	unbound := []string{}

	for _, name := range p.names {
		if !p.slots[name].bound {
			unbound = append(unbound, name)
		}
	}

	return unbound
}

// Value returns the bound value of name, before any conversion
func (p *Params) Value(name string) (types.Value, bool) {
	s, ok := p.slots[name]
	if !ok || !s.bound {
		return types.Value{}, false
	}

	return s.value, true
}

// Resolve maps a placeholder to its bound value, converted when the
// placeholder carries a conversion. It is meant for Replace.
func (p *Params) Resolve(v types.Value) (types.Value, error) {
	name := v.ParamName()

	s, ok := p.slots[name]
	if !ok || !s.bound {
		return types.Value{}, types.NewUnboundParamsError([]string{name})
	}

	tag := v.ParamConversion()
	if tag == "" {
		return s.value, nil
	}

	converted, ok := s.converted[tag]
	if !ok {
		return types.Value{}, types.NewQueryError("parameter %q has no %s conversion", name, tag)
	}

	return converted, nil
}

// Realize returns stmt with every parameter replaced by its bound value. It
// fails with a QueryError listing every unbound name when any remains.
func (p *Params) Realize(stmt Statement) (Statement, error) {
	if unbound := p.Unbound(); len(unbound) > 0 {
		return nil, types.NewUnboundParamsError(unbound)
	}

	if p.IsEmpty() {
		return stmt, nil
	}

	return stmt.Replace(p.Resolve)
}
