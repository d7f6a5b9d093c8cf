package interpreter

import (
	"strconv"
	"strings"
	"time"

	"github.com/truora/miniql/query"
	"github.com/truora/miniql/types"
)

const dateLayout = "2006-01-02"

// Converters is the registry behind convert(value, type). Tags are matched
// ignoring case. Enum types registered here also validate enum literals.
type Converters struct {
	funcs map[string]query.ConvertFunc
	enums map[string]map[string]bool
}

// NewConverters returns a registry with the string, number, int, bool, date
// and time conversions
func NewConverters() *Converters {
	c := &Converters{
		funcs: map[string]query.ConvertFunc{},
		enums: map[string]map[string]bool{},
	}

	c.Register("string", toString)
	c.Register("number", toNumber)
	c.Register("int", toInt)
	c.Register("bool", toBool)
	c.Register("date", toDate)
	c.Register("time", toTime)

	return c
}

// Register adds or replaces the conversion of tag
func (c *Converters) Register(tag string, fn query.ConvertFunc) {
	c.funcs[strings.ToLower(tag)] = fn
}

// RegisterEnum registers an enum type, converting strings and members of the
// same type, and rejecting enum literals naming other members
func (c *Converters) RegisterEnum(typeName string, members ...string) {
	set := map[string]bool{}
	for _, m := range members {
		set[m] = true
	}

	c.enums[typeName] = set

	c.Register(typeName, func(v types.Value) (types.Value, error) {
		var member string

		switch v.Kind() {
		case types.KindString:
			member, _ = v.Text()
		case types.KindEnum:
			member = v.EnumMember()
		default:
			return types.Value{}, types.NewInvalidArgumentError("cannot convert %s to %s", v, typeName)
		}

		if !set[member] {
			return types.Value{}, types.NewInvalidArgumentError("%q is not a member of %s", member, typeName)
		}

		return types.Enum(typeName, member), nil
	})
}

// Lookup returns the conversion of tag
func (c *Converters) Lookup(tag string) (query.ConvertFunc, error) {
	fn, ok := c.funcs[strings.ToLower(tag)]
	if !ok {
		return nil, types.NewInvalidArgumentError("unknown conversion type %q", tag)
	}

	return fn, nil
}

// CheckEnum validates an enum literal against its registered type. Types
// never registered are accepted as written.
func (c *Converters) CheckEnum(v types.Value) error {
	members, ok := c.enums[v.EnumType()]
	if !ok || members[v.EnumMember()] {
		return nil
	}

	return types.NewInvalidArgumentError("%q is not a member of %s", v.EnumMember(), v.EnumType())
}

func toString(v types.Value) (types.Value, error) {
	switch v.Kind() {
	case types.KindString:
		return v, nil
	case types.KindNumber:
		return types.String(v.String()), nil
	case types.KindEnum:
		return types.String(v.EnumMember()), nil
	case types.KindBool:
		b, _ := v.Boolean()

		return types.String(strconv.FormatBool(b)), nil
	case types.KindTime:
		t, _ := v.Instant()

		return types.String(t.Format(time.RFC3339Nano)), nil
	}

	return types.Value{}, types.NewInvalidArgumentError("cannot convert %s to string", v)
}

func toNumber(v types.Value) (types.Value, error) {
	switch v.Kind() {
	case types.KindNumber:
		return v, nil
	case types.KindString:
		s, _ := v.Text()

		return types.NumberFromString(strings.TrimSpace(s))
	}

	return types.Value{}, types.NewInvalidArgumentError("cannot convert %s to number", v)
}

func toInt(v types.Value) (types.Value, error) {
	n, err := toNumber(v)
	if err != nil {
		return types.Value{}, err
	}

	i, err := n.Int64()
	if err != nil {
		return types.Value{}, err
	}

	return types.Int(i), nil
}

func toBool(v types.Value) (types.Value, error) {
	switch v.Kind() {
	case types.KindBool:
		return v, nil
	case types.KindString:
		s, _ := v.Text()

		b, err := strconv.ParseBool(s)
		if err != nil {
			return types.Value{}, types.NewInvalidArgumentError("cannot convert %q to bool", s)
		}

		return types.Bool(b), nil
	}

	return types.Value{}, types.NewInvalidArgumentError("cannot convert %s to bool", v)
}

func toDate(v types.Value) (types.Value, error) {
	t, err := parseInstant(v, dateLayout)
	if err != nil {
		return types.Value{}, err
	}

	y, m, d := t.Date()

	return types.Time(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
}

func toTime(v types.Value) (types.Value, error) {
	t, err := parseInstant(v, time.RFC3339Nano, dateLayout)
	if err != nil {
		return types.Value{}, err
	}

	return types.Time(t), nil
}

func parseInstant(v types.Value, layouts ...string) (time.Time, error) {
	if t, ok := v.Instant(); ok {
		return t, nil
	}

	s, ok := v.Text()
	if !ok {
		return time.Time{}, types.NewInvalidArgumentError("cannot convert %s to a date", v)
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, types.NewInvalidArgumentError("cannot parse %q as a date, expected %s", s, strings.Join(layouts, " or "))
}
