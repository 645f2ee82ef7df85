package plist

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestASCIIReaderDictionaryWithCommaSeparators(t *testing.T) {
	r := NewASCIIReader(strings.NewReader(`{ name = James, age = 42 }`))

	want := []EventKind{StartDictionary, StringEvent, StringEvent, StringEvent, IntegerEvent, EndCollection}
	for i, k := range want {
		e, err := r.Next()
		require.Nilf(t, err, "event %d", i)
		assert.Equalf(t, k, e.Kind, "event %d", i)
	}
	_, err := r.Next()
	require.NotNil(t, err)
	assert.True(t, err.IsEOF() || err.Kind() == ErrUnexpectedEOF)
}

func TestASCIIReaderNestedArrayAndSemicolons(t *testing.T) {
	r := NewASCIIReader(strings.NewReader(`{ items = (1, 2, 3); flag = yes; }`))
	v, err := Read(r)
	require.Nil(t, err)
	d, ok := v.DictionaryValueOf()
	require.True(t, ok)

	items, ok := d.Get("items")
	require.True(t, ok)
	children, _ := items.ArrayValueOf()
	require.Len(t, children, 3)
	i0, _ := children[0].IntegerValueOf()
	s0, _ := i0.AsSigned()
	assert.Equal(t, int64(1), s0)

	flag, ok := d.Get("flag")
	require.True(t, ok)
	s, _ := flag.StringValue()
	assert.Equal(t, "yes", s)
}

func TestASCIIReaderQuotedStringEscapes(t *testing.T) {
	r := NewASCIIReader(strings.NewReader(`"line1\nline2\ttab\x41"`))
	v, err := Read(r)
	require.Nil(t, err)
	s, _ := v.StringValue()
	assert.Equal(t, "line1\nline2\ttabA", s)
}

func TestASCIIReaderHexDataLiteralFoldsIntoString(t *testing.T) {
	r := NewASCIIReader(strings.NewReader(`<48656c 6c6f>`))
	v, err := Read(r)
	require.Nil(t, err)
	s, _ := v.StringValue()
	assert.Equal(t, "Hello", s)
}

func TestASCIIReaderSkipsCommentsAroundValue(t *testing.T) {
	r := NewASCIIReader(strings.NewReader("// leading comment\n/* block */ 123"))
	v, err := Read(r)
	require.Nil(t, err)
	i, _ := v.IntegerValueOf()
	s, _ := i.AsSigned()
	assert.Equal(t, int64(123), s)
}

func TestASCIIReaderUnterminatedBlockCommentErrors(t *testing.T) {
	r := NewASCIIReader(strings.NewReader("/* never closes"))
	_, err := Read(r)
	require.NotNil(t, err)
	assert.Equal(t, ErrIncompleteComment, err.Kind())
}

func TestASCIIReaderMissingEqualsTolerated(t *testing.T) {
	r := NewASCIIReader(strings.NewReader(`{ a 1 }`))
	v, err := Read(r)
	require.Nil(t, err)
	d, _ := v.DictionaryValueOf()
	val, ok := d.Get("a")
	require.True(t, ok)
	i, _ := val.IntegerValueOf()
	s, _ := i.AsSigned()
	assert.Equal(t, int64(1), s)
}
