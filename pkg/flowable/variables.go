package flowable

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/kode4food/bpmspec/pkg/value"
)

// Variable types of the REST API
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeLong    = "long"
	TypeShort   = "short"
	TypeDouble  = "double"
	TypeBoolean = "boolean"
	TypeDate    = "date"
	TypeJSON    = "json"
	TypeNull    = "null"
)

var ErrBadVariable = errors.New("malformed variable")

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05-0700",
	"2006-01-02",
}

// EncodeVariable maps a value to the REST type that keeps its meaning.
// Whole numbers become integer or long, anything else a double
func EncodeVariable(name string, v value.Value) RestVariable {
	res := RestVariable{Name: name}
	switch v.Kind() {
	case value.KindString:
		res.Type = TypeString
		res.Value, _ = v.Str()
	case value.KindNumber:
		if i, ok := v.Integer(); ok {
			res.Type, res.Value = encodeInteger(i)
			break
		}
		f, _ := v.Float()
		res.Type, res.Value = encodeNumber(f)
	case value.KindBool:
		res.Type = TypeBoolean
		res.Value, _ = v.Boolean()
	case value.KindDate:
		t, _ := v.Time()
		res.Type = TypeDate
		res.Value = t.UTC().Format(time.RFC3339Nano)
	case value.KindDocument:
		res.Type = TypeJSON
		res.Value = json.RawMessage(v.Raw())
	default:
		res.Type = TypeNull
	}
	return res
}

// EncodeVariables encodes every variable, ordered by name
func EncodeVariables(vars value.Variables) []RestVariable {
	if len(vars) == 0 {
		return nil
	}
	res := make([]RestVariable, 0, len(vars))
	for _, name := range vars.Names() {
		res = append(res, EncodeVariable(name, vars[name]))
	}
	return res
}

// DecodeVariable reads a typed REST variable
func DecodeVariable(r gjson.Result) (value.Value, error) {
	v := r.Get("value")
	if !v.Exists() || v.Type == gjson.Null {
		return value.Null(), nil
	}
	switch typ := r.Get("type").String(); typ {
	case TypeString, "":
		return value.String(v.String()), nil
	case TypeInteger, TypeLong, TypeShort, TypeDouble:
		if v.Type != gjson.Number {
			return value.Null(), fmt.Errorf("%w: %s %q is not a number",
				ErrBadVariable, typ, v.Raw)
		}
		if typ == TypeDouble {
			return value.Number(v.Float()), nil
		}
		return value.Int(v.Int()), nil
	case TypeBoolean:
		return value.Bool(v.Bool()), nil
	case TypeDate:
		return decodeDate(v.String())
	case TypeJSON:
		if v.Type == gjson.String {
			return value.Document([]byte(v.String()))
		}
		return value.Document([]byte(v.Raw))
	case TypeNull:
		return value.Null(), nil
	default:
		return value.Of(v.Value()), nil
	}
}

// DecodeVariables reads an array of typed REST variables
func DecodeVariables(r gjson.Result) (value.Variables, error) {
	res := value.Variables{}
	for _, item := range r.Array() {
		v, err := DecodeVariable(item)
		if err != nil {
			return nil, err
		}
		res[item.Get("name").String()] = v
	}
	return res, nil
}

// ParseTime reads the timestamp formats the REST API produces
func ParseTime(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: bad date %q", ErrBadVariable, s)
}

func decodeDate(s string) (value.Value, error) {
	t, err := ParseTime(s)
	if err != nil {
		return value.Null(), err
	}
	return value.Date(t), nil
}

func encodeInteger(i int64) (string, any) {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return TypeInteger, i
	}
	return TypeLong, i
}

func encodeNumber(f float64) (string, any) {
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return TypeDouble, f
	}
	if f >= math.MinInt32 && f <= math.MaxInt32 {
		return TypeInteger, int64(f)
	}
	if f >= math.MinInt64 && f < math.MaxInt64 {
		return TypeLong, int64(f)
	}
	return TypeDouble, f
}
