package types

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	// KindInvalid zero value, holds nothing
	KindInvalid Kind = iota
	// KindString text literal
	KindString
	// KindNumber decimal-precision numeric literal
	KindNumber
	// KindBool boolean literal
	KindBool
	// KindEnum enum member of a named type
	KindEnum
	// KindParam named parameter placeholder
	KindParam
	// KindList ordered list of values
	KindList
	// KindMap ordered key to value mapping
	KindMap
	// KindTime instant produced by a date/time conversion
	KindTime
)

var kindNames = map[Kind]string{
	KindInvalid: "invalid",
	KindString:  "string",
	KindNumber:  "number",
	KindBool:    "bool",
	KindEnum:    "enum",
	KindParam:   "param",
	KindList:    "list",
	KindMap:     "map",
	KindTime:    "time",
}

func (k Kind) String() string {
	return kindNames[k]
}

// Pair is one entry of a map Value.
type Pair struct {
	Key   string `json:"K"`
	Value Value  `json:"V"`
}

// Value is the tagged union for literals, parameter references and nested
// structures. Values are immutable; accessors return copies of nested data.
type Value struct {
	kind  Kind
	str   string
	typ   string
	num   *apd.Decimal
	b     bool
	t     time.Time
	list  []Value
	pairs []Pair
}

// String builds a text value.
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number builds a numeric value from a decimal.
func Number(d *apd.Decimal) Value {
	return Value{kind: KindNumber, num: new(apd.Decimal).Set(d)}
}

// NumberFromString parses a decimal literal.
func NumberFromString(s string) (Value, error) {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		return Value{}, NewInvalidArgumentError("malformed number %q", s)
	}

	return Value{kind: KindNumber, num: d}, nil
}

// Int builds a numeric value from an integer.
func Int(i int64) Value {
	return Value{kind: KindNumber, num: apd.New(i, 0)}
}

// Float builds a numeric value from a float.
func Float(f float64) (Value, error) {
	d, err := new(apd.Decimal).SetFloat64(f)
	if err != nil {
		return Value{}, NewInvalidArgumentError("invalid number %v", f)
	}

	return Value{kind: KindNumber, num: d}, nil
}

// Bool builds a boolean value.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Enum builds an enum member value.
func Enum(typeName, member string) Value {
	return Value{kind: KindEnum, typ: typeName, str: member}
}

// Param builds a parameter placeholder. It carries no data until bound.
func Param(name string) Value {
	return Value{kind: KindParam, str: name}
}

// ConvertedParam builds a placeholder of name that reads its bound value
// through the conversion registered under tag. Other placeholders of the same
// name still read the value as bound.
func ConvertedParam(name, tag string) Value {
	return Value{kind: KindParam, str: name, typ: tag}
}

// Time builds an instant value.
func Time(t time.Time) Value {
	return Value{kind: KindTime, t: t}
}

// List builds a list value.
func List(values ...Value) Value {
	return Value{kind: KindList, list: append([]Value{}, values...)}
}

// Map builds an ordered map value. Later duplicated keys replace earlier ones
// in place.
func Map(pairs ...Pair) Value {
	out := make([]Pair, 0, len(pairs))
	index := map[string]int{}

	for _, p := range pairs {
		if i, ok := index[p.Key]; ok {
			out[i].Value = p.Value
			continue
		}

		index[p.Key] = len(out)
		out = append(out, p)
	}

	return Value{kind: KindMap, pairs: out}
}

// Kind returns the variant of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// IsZero reports whether the value holds nothing.
func (v Value) IsZero() bool {
	return v.kind == KindInvalid
}

// IsParam reports whether the value is a parameter placeholder.
func (v Value) IsParam() bool {
	return v.kind == KindParam
}

// ParamName returns the name of a parameter placeholder.
func (v Value) ParamName() string {
	if v.kind != KindParam {
		return ""
	}

	return v.str
}

// ParamConversion returns the conversion tag of a placeholder built with
// ConvertedParam, or ""
func (v Value) ParamConversion() string {
	if v.kind != KindParam {
		return ""
	}

	return v.typ
}

// Text returns the content of a string value.
func (v Value) Text() (string, bool) {
	return v.str, v.kind == KindString
}

// Decimal returns a copy of the number held by the value.
func (v Value) Decimal() (*apd.Decimal, bool) {
	if v.kind != KindNumber {
		return nil, false
	}

	return new(apd.Decimal).Set(v.num), true
}

// Int64 returns the number as an integer, failing for fractions.
func (v Value) Int64() (int64, error) {
	if v.kind != KindNumber {
		return 0, NewInvalidArgumentError("%s is not a number", v)
	}

	var reduced apd.Decimal
	reduced.Reduce(v.num)

	if reduced.Exponent < 0 {
		return 0, NewInvalidArgumentError("%s is not an integer", v)
	}

	i, err := reduced.Int64()
	if err != nil {
		return 0, NewInvalidArgumentError("%s overflows an integer", v)
	}

	return i, nil
}

// Boolean returns the content of a boolean value.
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

// EnumType returns the type name of an enum value.
func (v Value) EnumType() string {
	return v.typ
}

// EnumMember returns the member name of an enum value.
func (v Value) EnumMember() string {
	if v.kind != KindEnum {
		return ""
	}

	return v.str
}

// Instant returns the content of a time value.
func (v Value) Instant() (time.Time, bool) {
	return v.t, v.kind == KindTime
}

// Elements returns a copy of the list elements.
func (v Value) Elements() []Value {
	return append([]Value{}, v.list...)
}

// Pairs returns a copy of the map entries in order.
func (v Value) Pairs() []Pair {
	return append([]Pair{}, v.pairs...)
}

// Len returns the number of list elements or map entries.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.pairs)
	}

	return 0
}

// Get looks up a map entry.
func (v Value) Get(key string) (Value, bool) {
	for _, p := range v.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}

	return Value{}, false
}

// With returns a copy of the map with key set to val.
func (v Value) With(key string, val Value) Value {
	return Map(append(v.Pairs(), Pair{Key: key, Value: val})...)
}

// Without returns a copy of the map without the given keys.
func (v Value) Without(keys ...string) Value {
	drop := map[string]bool{}
	for _, k := range keys {
		drop[k] = true
	}

	out := []Pair{}

	for _, p := range v.pairs {
		if !drop[p.Key] {
			out = append(out, p)
		}
	}

	return Map(out...)
}

// Project keeps only the given keys, in the order requested.
func (v Value) Project(keys []string) Value {
	out := []Pair{}

	for _, k := range keys {
		if val, ok := v.Get(k); ok {
			out = append(out, Pair{Key: k, Value: val})
		}
	}

	return Map(out...)
}

// HasParams reports whether the value or any nested value is a parameter.
func (v Value) HasParams() bool {
	switch v.kind {
	case KindParam:
		return true
	case KindList:
		for _, e := range v.list {
			if e.HasParams() {
				return true
			}
		}
	case KindMap:
		for _, p := range v.pairs {
			if p.Value.HasParams() {
				return true
			}
		}
	}

	return false
}

// Replace rebuilds the value substituting every parameter with fn's result.
func (v Value) Replace(fn func(Value) (Value, error)) (Value, error) {
	switch v.kind {
	case KindParam:
		return fn(v)
	case KindList:
		out := make([]Value, 0, len(v.list))

		for _, e := range v.list {
			r, err := e.Replace(fn)
			if err != nil {
				return Value{}, err
			}

			out = append(out, r)
		}

		return List(out...), nil
	case KindMap:
		out := make([]Pair, 0, len(v.pairs))

		for _, p := range v.pairs {
			r, err := p.Value.Replace(fn)
			if err != nil {
				return Value{}, err
			}

			out = append(out, Pair{Key: p.Key, Value: r})
		}

		return Map(out...), nil
	}

	return v, nil
}

// String renders the value using the query literal syntax.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return strconv.Quote(v.str)
	case KindNumber:
		return v.num.Text('f')
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindEnum:
		return v.typ + "." + v.str
	case KindParam:
		if v.typ != "" {
			return fmt.Sprintf("convert(@%s, %s)", v.str, v.typ)
		}

		return "@" + v.str
	case KindTime:
		return fmt.Sprintf("convert(%q, time)", v.t.Format(time.RFC3339Nano))
	case KindList:
		parts := make([]string, 0, len(v.list))
		for _, e := range v.list {
			parts = append(parts, e.String())
		}

		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, 0, len(v.pairs))
		for _, p := range v.pairs {
			parts = append(parts, strconv.Quote(p.Key)+": "+p.Value.String())
		}

		return "{" + strings.Join(parts, ", ") + "}"
	}

	return "<invalid>"
}

// Key returns a canonical string identity for the value, used to address
// key-value entries and rows. The kind is part of the identity, so "10" and 10
// are different keys while 10 and 10.0 are the same one.
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return "string:" + v.str
	case KindNumber:
		var reduced apd.Decimal
		reduced.Reduce(v.num)

		return "number:" + reduced.Text('f')
	case KindEnum:
		return "enum:" + v.typ + "." + v.str
	case KindList:
		keys := make([]string, 0, len(v.list))
		for _, e := range v.list {
			keys = append(keys, e.Key())
		}

		return "list:[" + strings.Join(keys, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.pairs))
		for _, p := range v.pairs {
			keys = append(keys, strconv.Quote(p.Key)+": "+p.Value.Key())
		}

		return "map:{" + strings.Join(keys, ", ") + "}"
	}

	return v.kind.String() + ":" + v.String()
}

// Native converts the value into plain Go data suitable for JSON output.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return json.Number(v.num.Text('f'))
	case KindBool:
		return v.b
	case KindEnum:
		return v.str
	case KindParam:
		return "@" + v.str
	case KindTime:
		return v.t
	case KindList:
		out := make([]interface{}, 0, len(v.list))
		for _, e := range v.list {
			out = append(out, e.Native())
		}

		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.pairs))
		for _, p := range v.pairs {
			out[p.Key] = p.Value.Native()
		}

		return out
	}

	return nil
}

// Equal reports structural equality. Numbers compare by value, so 10 and
// 10.0 are equal.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindInvalid:
		return true
	case KindString:
		return a.str == b.str
	case KindParam:
		return a.str == b.str && a.typ == b.typ
	case KindNumber:
		return a.num.Cmp(b.num) == 0
	case KindBool:
		return a.b == b.b
	case KindEnum:
		return a.typ == b.typ && a.str == b.str
	case KindTime:
		return a.t.Equal(b.t)
	case KindList:
		return equalLists(a.list, b.list)
	case KindMap:
		return equalPairs(a.pairs, b.pairs)
	}

	return false
}

// Equal reports structural equality with other.
func (v Value) Equal(other Value) bool {
	return Equal(v, other)
}

func equalLists(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}

	return true
}

func equalPairs(a, b []Pair) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i].Key != b[i].Key || !Equal(a[i].Value, b[i].Value) {
			return false
		}
	}

	return true
}

// Compare orders two values of the same comparable kind. The second result is
// false when the values cannot be ordered against each other.
func Compare(a, b Value) (int, bool) {
	if a.kind != b.kind {
		return 0, false
	}

	switch a.kind {
	case KindString:
		return strings.Compare(a.str, b.str), true
	case KindNumber:
		return a.num.Cmp(b.num), true
	case KindTime:
		return a.t.Compare(b.t), true
	case KindBool:
		switch {
		case a.b == b.b:
			return 0, true
		case b.b:
			return -1, true
		default:
			return 1, true
		}
	case KindEnum:
		if a.typ != b.typ {
			return 0, false
		}

		return strings.Compare(a.str, b.str), true
	}

	return 0, false
}

// ValueOf converts plain Go data into a Value.
//
//gocyclo:ignore
func ValueOf(x interface{}) (Value, error) {
	switch t := x.(type) {
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint:
		return NumberFromString(strconv.FormatUint(uint64(t), 10))
	case uint64:
		return NumberFromString(strconv.FormatUint(t, 10))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case *apd.Decimal:
		return Number(t), nil
	case apd.Decimal:
		return Number(&t), nil
	case json.Number:
		return NumberFromString(t.String())
	case time.Time:
		return Time(t), nil
	case []Pair:
		return Map(t...), nil
	case nil:
		return Value{}, NewInvalidArgumentError("nil is not a valid value")
	}

	return reflectValueOf(reflect.ValueOf(x))
}

func reflectValueOf(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Value, 0, rv.Len())

		for i := 0; i < rv.Len(); i++ {
			e, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, err
			}

			out = append(out, e)
		}

		return List(out...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, NewInvalidArgumentError("map keys must be strings, got %s", rv.Type().Key())
		}

		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}

		sort.Strings(keys)

		pairs := make([]Pair, 0, len(keys))

		for _, k := range keys {
			e, err := ValueOf(rv.MapIndex(reflect.ValueOf(k).Convert(rv.Type().Key())).Interface())
			if err != nil {
				return Value{}, err
			}

			pairs = append(pairs, Pair{Key: k, Value: e})
		}

		return Map(pairs...), nil
	}

	return Value{}, NewInvalidArgumentError("unsupported value type %s", rv.Type())
}
