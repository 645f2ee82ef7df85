package plist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueAccessorsMismatchedKind(t *testing.T) {
	v := Int(42)
	_, ok := v.StringValue()
	assert.False(t, ok)
	_, ok = v.BoolValue()
	assert.False(t, ok)
	i, ok := v.IntegerValueOf()
	require.True(t, ok)
	assert.Equal(t, "42", i.String())
}

func TestValueEqualCrossRepresentationIntegers(t *testing.T) {
	a := IntegerValue(NewInteger(5))
	b := IntegerValue(NewUnsignedInteger(5))
	assert.True(t, a.Equal(b))
}

func TestValueEqualNaNReal(t *testing.T) {
	nan := Real(nanValue())
	assert.True(t, nan.Equal(Real(nanValue())))
}

func nanValue() float64 {
	var zero float64
	return zero / zero
}

func TestValueEqualArraysAndDictionaries(t *testing.T) {
	d1 := NewDictionary()
	d1.Insert("a", Int(1))
	d1.Insert("b", String("x"))
	d2 := NewDictionary()
	d2.Insert("a", Int(1))
	d2.Insert("b", String("x"))

	v1 := ArrayValue([]Value{DictionaryValue(d1), Bool(true)})
	v2 := ArrayValue([]Value{DictionaryValue(d2), Bool(true)})
	assert.True(t, v1.Equal(v2))

	d2.Insert("b", String("y"))
	assert.False(t, v1.Equal(v2))
}

func TestValueDataCopiesInput(t *testing.T) {
	b := []byte{1, 2, 3}
	v := Data(b)
	b[0] = 99
	got, _ := v.DataValue()
	assert.Equal(t, byte(1), got[0])
}

func TestDateRoundTripThroughSecondsSinceEpoch(t *testing.T) {
	want := NewDate(time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC))
	secs := want.SecondsSinceEpoch()
	got, err := DateFromSecondsSinceEpoch(secs)
	require.Nil(t, err)
	assert.True(t, want.Equal(got))
}

func TestDateFromSecondsSinceEpochRejectsNaNAndInf(t *testing.T) {
	_, err := DateFromSecondsSinceEpoch(nanValue())
	require.NotNil(t, err)
	assert.Equal(t, ErrInfiniteOrNanDate, err.Kind())
}

func TestDictionaryPreservesInsertionOrderAndOverwrite(t *testing.T) {
	d := NewDictionary()
	d.Insert("z", Int(1))
	d.Insert("a", Int(2))
	d.Insert("z", Int(3))
	assert.Equal(t, []string{"z", "a"}, d.Keys())
	v, ok := d.Get("z")
	require.True(t, ok)
	i, _ := v.IntegerValueOf()
	s, _ := i.AsSigned()
	assert.Equal(t, int64(3), s)
}

func TestDictionaryRemoveKeepsIndexConsistent(t *testing.T) {
	d := NewDictionary()
	d.Insert("a", Int(1))
	d.Insert("b", Int(2))
	d.Insert("c", Int(3))
	d.Remove("b")
	assert.Equal(t, []string{"a", "c"}, d.Keys())
	_, ok := d.Get("b")
	assert.False(t, ok)
	v, ok := d.Get("c")
	require.True(t, ok)
	i, _ := v.IntegerValueOf()
	s, _ := i.AsSigned()
	assert.Equal(t, int64(3), s)
}

func TestDictionarySortKeys(t *testing.T) {
	d := NewDictionary()
	d.Insert("z", Int(1))
	d.Insert("a", Int(2))
	d.SortKeys()
	assert.Equal(t, []string{"a", "z"}, d.Keys())
}
