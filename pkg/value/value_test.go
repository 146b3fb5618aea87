package value_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/bpmspec/pkg/value"
)

func TestOfNativeValues(t *testing.T) {
	now := time.Date(2015, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, value.KindNull, value.Of(nil).Kind())
	assert.Equal(t, value.KindString, value.Of("text").Kind())
	assert.Equal(t, value.KindBool, value.Of(true).Kind())
	assert.Equal(t, value.KindNumber, value.Of(42).Kind())
	assert.Equal(t, value.KindNumber, value.Of(int64(42)).Kind())
	assert.Equal(t, value.KindNumber, value.Of(4.2).Kind())
	assert.Equal(t, value.KindDate, value.Of(now).Kind())
	assert.Equal(t, value.KindDocument,
		value.Of(map[string]any{"a": 1}).Kind(),
	)
	assert.Equal(t, value.KindDocument, value.Of([]any{1, "two"}).Kind())
	assert.Equal(t, value.KindDocument,
		value.Of(map[any]any{"nested": map[any]any{"k": "v"}}).Kind(),
	)
}

func TestEqual(t *testing.T) {
	assert.True(t, value.Int(3).Equal(value.Number(3)))
	assert.False(t, value.String("3").Equal(value.Int(3)))
	assert.True(t, value.Null().Equal(value.Of(nil)))

	utc := time.Date(2020, 1, 1, 10, 0, 0, 0, time.UTC)
	other := utc.In(time.FixedZone("x", 3600))
	assert.True(t, value.Date(utc).Equal(value.Date(other)))

	a, err := value.Document([]byte(`{"a": 1, "b": [1, 2]}`))
	require.NoError(t, err)
	b, err := value.Document([]byte(`{"b":[1,2],"a":1}`))
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}

func TestLargeIntegers(t *testing.T) {
	const big = int64(1<<53 + 1)
	v := value.Int(big)

	assert.False(t, v.Equal(value.Int(big-1)))
	assert.False(t, v.Equal(value.Number(float64(big))))
	assert.True(t, value.Int(1<<53).Equal(value.Number(1<<53)))
	assert.Equal(t, "9007199254740993", v.String())
	assert.Equal(t, big, v.Native())
	assert.True(t, v.Equal(value.Of(uint64(big))))
	assert.False(t, value.Of(uint64(1<<63)).Equal(value.Int(-1<<63)))

	data, err := json.Marshal(v)
	require.NoError(t, err)
	var back value.Value
	require.NoError(t, json.Unmarshal(data, &back))
	i, ok := back.Integer()
	assert.True(t, ok)
	assert.Equal(t, big, i)

	doc, err := value.Document([]byte(`{"id": 9007199254740993}`))
	require.NoError(t, err)
	assert.True(t, v.Equal(doc.Get("id")))
}

func TestDocument(t *testing.T) {
	_, err := value.Document([]byte(`not json`))
	assert.ErrorIs(t, err, value.ErrInvalidDocument)

	_, err = value.Document([]byte(`"scalar"`))
	assert.ErrorIs(t, err, value.ErrInvalidDocument)

	doc, err := value.Document([]byte(` { "order" : { "id" : 7 } } `))
	assert.NoError(t, err)
	assert.Equal(t, `{"order":{"id":7}}`, string(doc.Raw()))
}

func TestText(t *testing.T) {
	assert.Equal(t, value.KindDocument, value.Text(`{"a":true}`).Kind())
	assert.Equal(t, value.KindString, value.Text(`plain`).Kind())
	assert.Equal(t, value.KindString, value.Text(`42`).Kind())
}

func TestGet(t *testing.T) {
	doc := value.Of(map[string]any{
		"customer": map[string]any{
			"name":   "Ada",
			"vip":    true,
			"orders": []any{10, 20},
		},
	})

	assert.True(t, value.String("Ada").Equal(doc.Get("customer.name")))
	assert.True(t, value.Bool(true).Equal(doc.Get("customer.vip")))
	assert.True(t, value.Int(20).Equal(doc.Get("customer.orders.1")))
	assert.Equal(t, value.KindDocument, doc.Get("customer.orders").Kind())
	assert.True(t, doc.Get("customer.missing").IsNull())
	assert.True(t, value.String("x").Get("anything").IsNull())
}

func TestString(t *testing.T) {
	assert.Equal(t, "null", value.Null().String())
	assert.Equal(t, "1.5", value.Number(1.5).String())
	assert.Equal(t, "12", value.Int(12).String())
	assert.Equal(t, "false", value.Bool(false).String())
}

func TestJSONRoundTrip(t *testing.T) {
	when := time.Date(2015, 3, 4, 5, 6, 7, 0, time.UTC)
	doc, err := value.Document([]byte(`{"k":[1,2,3]}`))
	require.NoError(t, err)

	vars := value.Variables{
		"none":  value.Null(),
		"name":  value.String("bob"),
		"count": value.Int(3),
		"ok":    value.Bool(true),
		"when":  value.Date(when),
		"doc":   doc,
	}

	data, err := json.Marshal(vars)
	require.NoError(t, err)

	var decoded value.Variables
	require.NoError(t, json.Unmarshal(data, &decoded))

	for name, expected := range vars {
		assert.True(t, expected.Equal(decoded[name]), "variable %s", name)
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	var v value.Value
	err := json.Unmarshal([]byte(`{"type":"blob","value":"x"}`), &v)
	assert.ErrorIs(t, err, value.ErrUnknownKind)
}

func TestVariablesSet(t *testing.T) {
	original := value.Variables{"existing": value.String("value")}

	result := original.Set("new_key", value.Int(1))

	assert.Contains(t, result, "new_key")
	assert.Contains(t, result, "existing")
	assert.NotContains(t, original, "new_key")

	var empty value.Variables
	assert.Len(t, empty.Set("a", value.Null()), 1)
}

func TestVariablesHelpers(t *testing.T) {
	vars := value.VariablesOf(map[string]any{"b": 2, "a": "x"})

	assert.Equal(t, []string{"a", "b"}, vars.Names())
	assert.Equal(t, map[string]any{"a": "x", "b": int64(2)}, vars.Native())

	merged := vars.Merge(value.Variables{"a": value.Bool(true)})
	assert.True(t, value.Bool(true).Equal(merged["a"]))
	assert.True(t, value.String("x").Equal(vars["a"]))

	var nilVars value.Variables
	assert.NotNil(t, nilVars.Clone())
}
