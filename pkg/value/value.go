package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
)

type (
	// Kind identifies which member of the Value union is populated
	Kind uint8

	// Value is a process variable value. The zero Value is Null. Numbers
	// created from integers keep their exact int64 value
	Value struct {
		t     time.Time
		str   string
		doc   json.RawMessage
		num   float64
		i     int64
		kind  Kind
		b     bool
		exact bool
	}

	taggedValue struct {
		Type  string          `json:"type"`
		Value json.RawMessage `json:"value,omitempty"`
	}
)

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindDocument
)

var (
	ErrInvalidDocument = errors.New("invalid JSON document")
	ErrUnknownKind     = errors.New("unknown value kind")
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindString:   "string",
	KindNumber:   "number",
	KindBool:     "boolean",
	KindDate:     "date",
	KindDocument: "json",
}

// Null returns the empty Value
func Null() Value {
	return Value{}
}

// String wraps a string
func String(s string) Value {
	return Value{kind: KindString, str: s}
}

// Number wraps a floating point number
func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

// Int wraps an integer as a Number without losing precision
func Int(i int64) Value {
	return Value{kind: KindNumber, num: float64(i), i: i, exact: true}
}

// Bool wraps a boolean
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Date wraps a point in time
func Date(t time.Time) Value {
	return Value{kind: KindDate, t: t}
}

// Document wraps a JSON object or array
func Document(raw []byte) (Value, error) {
	trimmed := bytes.TrimSpace(raw)
	if !json.Valid(trimmed) || len(trimmed) == 0 {
		return Value{}, ErrInvalidDocument
	}
	if trimmed[0] != '{' && trimmed[0] != '[' {
		return Value{}, fmt.Errorf("%w: not an object or array",
			ErrInvalidDocument)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return Value{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return Value{kind: KindDocument, doc: buf.Bytes()}, nil
}

// Text returns a Document when s holds a JSON object or array, and a String
// otherwise
func Text(s string) Value {
	if doc, err := Document([]byte(s)); err == nil {
		return doc
	}
	return String(s)
}

// Of converts a native Go value, including values decoded from JSON or YAML,
// into a Value
func Of(v any) Value {
	switch v := v.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case *Value:
		if v == nil {
			return Null()
		}
		return *v
	case string:
		return String(v)
	case bool:
		return Bool(v)
	case int:
		return Int(int64(v))
	case int8:
		return Int(int64(v))
	case int16:
		return Int(int64(v))
	case int32:
		return Int(int64(v))
	case int64:
		return Int(v)
	case uint:
		return ofUint(uint64(v))
	case uint8:
		return Int(int64(v))
	case uint16:
		return Int(int64(v))
	case uint32:
		return Int(int64(v))
	case uint64:
		return ofUint(v)
	case float32:
		return Number(float64(v))
	case float64:
		return Number(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return Int(i)
		}
		if f, err := v.Float64(); err == nil {
			return Number(f)
		}
		return String(v.String())
	case time.Time:
		return Date(v)
	case json.RawMessage:
		if doc, err := Document(v); err == nil {
			return doc
		}
		return String(string(v))
	case []byte:
		return String(string(v))
	}

	data, err := json.Marshal(normalize(v))
	if err != nil {
		return String(fmt.Sprint(v))
	}
	if doc, err := Document(data); err == nil {
		return doc
	}
	return String(fmt.Sprint(v))
}

// Kind returns the populated member of the union
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull returns true if the Value carries nothing
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// Str returns the string member and whether the Value is a String
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the number member and whether the Value is a Number
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Integer returns the exact integer member and whether the Value is a
// Number created from an integer
func (v Value) Integer() (int64, bool) {
	return v.i, v.kind == KindNumber && v.exact
}

// Boolean returns the boolean member and whether the Value is a Bool
func (v Value) Boolean() (bool, bool) {
	return v.b, v.kind == KindBool
}

// Time returns the date member and whether the Value is a Date
func (v Value) Time() (time.Time, bool) {
	return v.t, v.kind == KindDate
}

// Raw returns the compacted JSON of a Document, or nil
func (v Value) Raw() json.RawMessage {
	if v.kind != KindDocument {
		return nil
	}
	return v.doc
}

// Native returns the Value as a plain Go value: nil, string, int64, float64,
// bool, time.Time, or the decoded document (map[string]any or []any)
func (v Value) Native() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.exact {
			return v.i
		}
		return v.num
	case KindBool:
		return v.b
	case KindDate:
		return v.t
	case KindDocument:
		var res any
		if err := json.Unmarshal(v.doc, &res); err != nil {
			return nil
		}
		return res
	default:
		return nil
	}
}

// Equal compares two Values by kind and content. Documents are compared
// structurally and dates by instant
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.numberEqual(other)
	case KindBool:
		return v.b == other.b
	case KindDate:
		return v.t.Equal(other.t)
	case KindDocument:
		return reflect.DeepEqual(v.Native(), other.Native())
	default:
		return false
	}
}

// Get resolves a gjson path against a Document. Missing paths and
// non-document values yield Null
func (v Value) Get(path string) Value {
	if v.kind != KindDocument {
		return Null()
	}
	return fromResult(gjson.GetBytes(v.doc, path))
}

func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		if v.exact {
			return strconv.FormatInt(v.i, 10)
		}
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDate:
		return v.t.Format(time.RFC3339Nano)
	case KindDocument:
		return string(v.doc)
	default:
		return "null"
	}
}

// MarshalJSON encodes the Value with its kind so that dates and documents
// survive a round trip
func (v Value) MarshalJSON() ([]byte, error) {
	res := taggedValue{Type: v.kind.String()}
	var err error
	switch v.kind {
	case KindNull:
	case KindDocument:
		res.Value = v.doc
	default:
		res.Value, err = json.Marshal(v.Native())
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(res)
}

// UnmarshalJSON decodes the tagged form written by MarshalJSON
func (v *Value) UnmarshalJSON(data []byte) error {
	var tv taggedValue
	if err := json.Unmarshal(data, &tv); err != nil {
		return err
	}
	kind, err := ParseKind(tv.Type)
	if err != nil {
		return err
	}

	switch kind {
	case KindNull:
		*v = Null()
	case KindString:
		var s string
		err = json.Unmarshal(tv.Value, &s)
		*v = String(s)
	case KindNumber:
		dec := json.NewDecoder(bytes.NewReader(tv.Value))
		dec.UseNumber()
		var n json.Number
		if err = dec.Decode(&n); err == nil {
			*v = Of(n)
		}
	case KindBool:
		var b bool
		err = json.Unmarshal(tv.Value, &b)
		*v = Bool(b)
	case KindDate:
		var t time.Time
		err = json.Unmarshal(tv.Value, &t)
		*v = Date(t)
	case KindDocument:
		*v, err = Document(tv.Value)
	}
	return err
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind resolves a kind from its name
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return KindNull, fmt.Errorf("%w: %s", ErrUnknownKind, name)
}

func ofUint(u uint64) Value {
	if u > math.MaxInt64 {
		return Number(float64(u))
	}
	return Int(int64(u))
}

// numberEqual compares exact integers without going through float64. An
// integer equals a float only when the float is whole and in range
func (v Value) numberEqual(other Value) bool {
	switch {
	case v.exact && other.exact:
		return v.i == other.i
	case v.exact:
		return floatIsInt(other.num, v.i)
	case other.exact:
		return floatIsInt(v.num, other.i)
	default:
		return v.num == other.num
	}
}

func floatIsInt(f float64, i int64) bool {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return false
	}
	return int64(f) == i
}

func fromResult(r gjson.Result) Value {
	if !r.Exists() {
		return Null()
	}
	switch r.Type {
	case gjson.String:
		return String(r.Str)
	case gjson.Number:
		if i, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
			return Int(i)
		}
		return Number(r.Num)
	case gjson.True:
		return Bool(true)
	case gjson.False:
		return Bool(false)
	case gjson.JSON:
		if doc, err := Document([]byte(r.Raw)); err == nil {
			return doc
		}
		return String(r.Raw)
	default:
		return Null()
	}
}

// normalize rewrites the map[any]any shapes that some decoders produce into
// something encoding/json accepts
func normalize(v any) any {
	switch v := v.(type) {
	case map[any]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[fmt.Sprint(k)] = normalize(e)
		}
		return res
	case map[string]any:
		res := make(map[string]any, len(v))
		for k, e := range v {
			res[k] = normalize(e)
		}
		return res
	case []any:
		res := make([]any, len(v))
		for i, e := range v {
			res[i] = normalize(e)
		}
		return res
	case Value:
		return v.Native()
	default:
		return v
	}
}
