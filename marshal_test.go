package plist

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name    string   `plist:"name"`
	Age     int      `plist:"age"`
	Emails  []string `plist:"emails,omitempty"`
	Private string   `plist:"-"`
	Ignored string
}

func TestMarshalStructHonorsTagsAndOmitempty(t *testing.T) {
	p := person{Name: "James", Age: 42, Private: "secret"}
	v, err := Marshal(p)
	require.Nil(t, err)
	d, ok := v.DictionaryValueOf()
	require.True(t, ok)

	_, ok = d.Get("emails")
	assert.False(t, ok, "omitempty field with zero value should be dropped")
	_, ok = d.Get("Private")
	assert.False(t, ok, "plist:\"-\" field must never be marshaled")
	name, ok := d.Get("name")
	require.True(t, ok)
	s, _ := name.StringValue()
	assert.Equal(t, "James", s)
	ignored, ok := d.Get("Ignored")
	require.True(t, ok)
	s, _ = ignored.StringValue()
	assert.Equal(t, "", s)
}

func TestMarshalUnmarshalStructRoundTrip(t *testing.T) {
	p := person{Name: "Ada", Age: 36, Emails: []string{"ada@example.com"}}
	v, err := Marshal(p)
	require.Nil(t, err)

	var got person
	require.Nil(t, Unmarshal(bytesReaderOfXML(t, v), &got))
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Age, got.Age)
	assert.Equal(t, p.Emails, got.Emails)
}

func TestMarshalAndUnmarshalTimeAsDate(t *testing.T) {
	when := mustParseDate(t, "2030-06-15T08:00:00Z")
	v, err := Marshal(when)
	require.Nil(t, err)
	assert.Equal(t, DateKind, v.Kind())

	var got time.Time
	require.Nil(t, Unmarshal(bytesReaderOfXML(t, v), &got))
	assert.True(t, when.Equal(got))
}

func bytesReaderOfXML(t *testing.T, v Value) *bytes.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.Nil(t, WriteValue(NewXMLWriter(&buf), v))
	return bytes.NewReader(buf.Bytes())
}

func TestMarshalByteSliceBecomesData(t *testing.T) {
	v, err := Marshal([]byte{1, 2, 3})
	require.Nil(t, err)
	assert.Equal(t, DataKind, v.Kind())
}

func TestMarshalMapSortsKeys(t *testing.T) {
	v, err := Marshal(map[string]int{"z": 1, "a": 2, "m": 3})
	require.Nil(t, err)
	d, _ := v.DictionaryValueOf()
	assert.Equal(t, []string{"a", "m", "z"}, d.Keys())
}

func TestRawValueRoundTripsThroughUnmarshal(t *testing.T) {
	d := NewDictionary()
	d.Insert("kind", String("whatever"))
	payload := DictionaryValue(d)

	wrapper := NewDictionary()
	wrapper.Insert("payload", payload)

	var target struct {
		Payload RawValue `plist:"payload"`
	}
	require.Nil(t, Unmarshal(bytesReaderOfXML(t, DictionaryValue(wrapper)), &target))
	assert.True(t, payload.Equal(target.Payload.Value))

	back, merr := Marshal(target)
	require.Nil(t, merr)
	bd, _ := back.DictionaryValueOf()
	got, ok := bd.Get("payload")
	require.True(t, ok)
	assert.True(t, payload.Equal(got))
}

func TestDecodeIntoInterfaceProducesNativeTypes(t *testing.T) {
	d := NewDictionary()
	d.Insert("n", Int(7))
	d.Insert("s", String("hi"))
	d.Insert("list", ArrayValue([]Value{Bool(true), Bool(false)}))
	var out any
	require.Nil(t, Unmarshal(bytesReaderOfXML(t, DictionaryValue(d)), &out))

	m, ok := out.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "hi", m["s"])
	list, ok := m["list"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{true, false}, list)
}

func TestUnmarshalIntegerOutOfRangeErrors(t *testing.T) {
	var out int8
	err := Unmarshal(bytesReaderOfXML(t, Int(1000)), &out)
	require.NotNil(t, err)
	assert.Equal(t, ErrIntegerOutOfRange, err.Kind())
}
