package plist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterStateRejectsValueInKeyPosition(t *testing.T) {
	var s writerState
	s.pushDictionary()
	require.True(t, s.expectingKey)
	err := s.beforeValue()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnexpectedEventType, err.Kind())
}

func TestWriterStatePopEmptyStackErrors(t *testing.T) {
	var s writerState
	err := s.pop()
	require.NotNil(t, err)
	assert.Equal(t, ErrUnexpectedEventType, err.Kind())
}

func TestWriterStateTracksNestedDepth(t *testing.T) {
	var s writerState
	s.pushArray()
	s.pushDictionary()
	assert.Equal(t, 2, s.depth())
	require.Nil(t, s.pop())
	assert.Equal(t, inArray, s.stack[0])
}

func TestVecWriterRecordsEventsInOrder(t *testing.T) {
	w := NewVecWriter()
	n := uint64(1)
	require.Nil(t, w.WriteStartDictionary(&n))
	require.Nil(t, w.WriteString("key"))
	require.Nil(t, w.WriteInteger(NewInteger(7)))
	require.Nil(t, w.WriteEndCollection())

	require.Len(t, w.Events, 4)
	assert.Equal(t, StartDictionary, w.Events[0].Kind)
	assert.Equal(t, "key", w.Events[1].Str)
	assert.Equal(t, EndCollection, w.Events[3].Kind)
}

func TestWriteDispatchesEveryEventKind(t *testing.T) {
	w := NewVecWriter()
	events := []Event{
		EventBoolean(true),
		EventData([]byte{1, 2}),
		EventDate(NewDate(mustParseDate(t, "2024-01-01T00:00:00Z"))),
		EventInteger(NewInteger(1)),
		EventReal(1.5),
		EventString("s"),
		EventUid(Uid(9)),
	}
	for _, e := range events {
		require.Nil(t, Write(w, e))
	}
	assert.Equal(t, events, w.Events)
}

func TestBuilderRoundTripsNestedValueThroughVecWriter(t *testing.T) {
	d := NewDictionary()
	d.Insert("name", String("James"))
	d.Insert("tags", ArrayValue([]Value{String("a"), String("b")}))
	original := DictionaryValue(d)

	w := NewVecWriter()
	require.Nil(t, WriteValue(w, original))

	got, err := Read(w)
	require.Nil(t, err)
	assert.True(t, original.Equal(got))
}

func TestBuilderRejectsNonStringDictionaryKey(t *testing.T) {
	w := NewVecWriter()
	n := uint64(1)
	require.Nil(t, w.WriteStartDictionary(&n))
	require.Nil(t, w.WriteInteger(NewInteger(1)))
	require.Nil(t, w.WriteInteger(NewInteger(2)))
	require.Nil(t, w.WriteEndCollection())

	_, err := Read(w)
	require.NotNil(t, err)
	assert.Equal(t, ErrUnexpectedEventType, err.Kind())
}
