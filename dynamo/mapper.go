package dynamo

import (
	"sort"
	"time"

	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/truora/miniql/types"
)

// maps types to dynamo

//gocyclo:ignore
func toAttributeValue(v types.Value) (ddbtypes.AttributeValue, error) {
	switch v.Kind() {
	case types.KindString:
		s, _ := v.Text()

		return &ddbtypes.AttributeValueMemberS{Value: s}, nil
	case types.KindNumber:
		return &ddbtypes.AttributeValueMemberN{Value: v.String()}, nil
	case types.KindBool:
		b, _ := v.Boolean()

		return &ddbtypes.AttributeValueMemberBOOL{Value: b}, nil
	case types.KindEnum:
		return &ddbtypes.AttributeValueMemberS{Value: v.EnumMember()}, nil
	case types.KindTime:
		t, _ := v.Instant()

		return &ddbtypes.AttributeValueMemberS{Value: t.Format(time.RFC3339Nano)}, nil
	case types.KindList:
		out := make([]ddbtypes.AttributeValue, 0, v.Len())

		for _, e := range v.Elements() {
			av, err := toAttributeValue(e)
			if err != nil {
				return nil, err
			}

			out = append(out, av)
		}

		return &ddbtypes.AttributeValueMemberL{Value: out}, nil
	case types.KindMap:
		out, err := toItem(v)
		if err != nil {
			return nil, err
		}

		return &ddbtypes.AttributeValueMemberM{Value: out}, nil
	case types.KindParam:
		return nil, types.NewUnboundParamsError([]string{v.ParamName()})
	}

	return nil, types.NewInvalidArgumentError("cannot store an invalid value")
}

func toItem(row types.Value) (map[string]ddbtypes.AttributeValue, error) {
	item := make(map[string]ddbtypes.AttributeValue, row.Len())

	for _, p := range row.Pairs() {
		av, err := toAttributeValue(p.Value)
		if err != nil {
			return nil, err
		}

		item[p.Key] = av
	}

	return item, nil
}

// maps dynamo to types

//gocyclo:ignore
func fromAttributeValue(av ddbtypes.AttributeValue) (types.Value, bool, error) {
	switch t := av.(type) {
	case *ddbtypes.AttributeValueMemberS:
		return types.String(t.Value), true, nil
	case *ddbtypes.AttributeValueMemberN:
		n, err := types.NumberFromString(t.Value)

		return n, err == nil, err
	case *ddbtypes.AttributeValueMemberBOOL:
		return types.Bool(t.Value), true, nil
	case *ddbtypes.AttributeValueMemberNULL:
		return types.Value{}, false, nil
	case *ddbtypes.AttributeValueMemberL:
		return fromList(t.Value)
	case *ddbtypes.AttributeValueMemberM:
		row, err := fromItem(t.Value, "")

		return row, err == nil, err
	case *ddbtypes.AttributeValueMemberSS:
		out := make([]types.Value, 0, len(t.Value))
		for _, s := range t.Value {
			out = append(out, types.String(s))
		}

		return types.List(out...), true, nil
	case *ddbtypes.AttributeValueMemberNS:
		out := make([]types.Value, 0, len(t.Value))

		for _, s := range t.Value {
			n, err := types.NumberFromString(s)
			if err != nil {
				return types.Value{}, false, err
			}

			out = append(out, n)
		}

		return types.List(out...), true, nil
	}

	return types.Value{}, false, types.NewInvalidArgumentError("unsupported attribute value %T", av)
}

func fromList(values []ddbtypes.AttributeValue) (types.Value, bool, error) {
	out := make([]types.Value, 0, len(values))

	for _, av := range values {
		v, ok, err := fromAttributeValue(av)
		if err != nil {
			return types.Value{}, false, err
		}

		if ok {
			out = append(out, v)
		}
	}

	return types.List(out...), true, nil
}

// fromItem builds a row with the first field leading and the rest sorted by
// name, DynamoDB does not keep attribute order. NULL attributes are dropped.
func fromItem(item map[string]ddbtypes.AttributeValue, first string) (types.Value, error) {
	keys := make([]string, 0, len(item))

	for k := range item {
		if k != first {
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	if _, ok := item[first]; ok {
		keys = append([]string{first}, keys...)
	}

	pairs := make([]types.Pair, 0, len(keys))

	for _, k := range keys {
		v, ok, err := fromAttributeValue(item[k])
		if err != nil {
			return types.Value{}, err
		}

		if ok {
			pairs = append(pairs, types.Pair{Key: k, Value: v})
		}
	}

	return types.Map(pairs...), nil
}
