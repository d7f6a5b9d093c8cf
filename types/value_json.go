package types

import (
	"encoding/json"
	"time"
)

// taggedValue is the wire shape of a Value: exactly one field is set, named
// after the variant in the same spirit as DynamoDB's AttributeValue.
type taggedValue struct {
	S    *string     `json:"S,omitempty"`
	N    *string     `json:"N,omitempty"`
	BOOL *bool       `json:"BOOL,omitempty"`
	E    *taggedEnum `json:"E,omitempty"`
	P    *string     `json:"P,omitempty"`
	C    *string     `json:"C,omitempty"`
	T    *time.Time  `json:"T,omitempty"`
	L    *[]Value    `json:"L,omitempty"`
	M    *[]Pair     `json:"M,omitempty"`
}

type taggedEnum struct {
	Type   string `json:"T"`
	Member string `json:"M"`
}

// MarshalJSON encodes the value in its tagged form.
func (v Value) MarshalJSON() ([]byte, error) {
	var tv taggedValue

	switch v.kind {
	case KindString:
		tv.S = &v.str
	case KindNumber:
		n := v.num.Text('f')
		tv.N = &n
	case KindBool:
		tv.BOOL = &v.b
	case KindEnum:
		tv.E = &taggedEnum{Type: v.typ, Member: v.str}
	case KindParam:
		tv.P = &v.str

		if v.typ != "" {
			tv.C = &v.typ
		}
	case KindTime:
		tv.T = &v.t
	case KindList:
		l := v.Elements()
		tv.L = &l
	case KindMap:
		m := v.Pairs()
		tv.M = &m
	default:
		return []byte("null"), nil
	}

	return json.Marshal(tv)
}

// UnmarshalJSON decodes a value from its tagged form.
func (v *Value) UnmarshalJSON(data []byte) error {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return err
	}

	switch {
	case tv.S != nil:
		*v = String(*tv.S)
	case tv.N != nil:
		n, err := NumberFromString(*tv.N)
		if err != nil {
			return err
		}

		*v = n
	case tv.BOOL != nil:
		*v = Bool(*tv.BOOL)
	case tv.E != nil:
		*v = Enum(tv.E.Type, tv.E.Member)
	case tv.P != nil && tv.C != nil:
		*v = ConvertedParam(*tv.P, *tv.C)
	case tv.P != nil:
		*v = Param(*tv.P)
	case tv.T != nil:
		*v = Time(*tv.T)
	case tv.L != nil:
		*v = List(*tv.L...)
	case tv.M != nil:
		*v = Map(*tv.M...)
	default:
		*v = Value{}
	}

	return nil
}
