package plist

// Writer is the sink trait consumed by serialization. Write dispatches a
// generic Event to the matching per-variant method; the per-variant
// methods enforce the grammar (spec.md 4.1) themselves via writerState.
//
// Writer is sealed: only writers built into this package may implement it
// (the binary and XML writers, plus the in-memory VecWriter; the ASCII
// format is read-only here), mirrored
// from the original Rust source's private::Sealed trait and from the
// teacher's closed set of *bplistGenerator/*xmlPlistGenerator/*textPlistGenerator
// concrete types.
type Writer interface {
	sealedWriter()

	WriteStartArray(len *uint64) *Error
	WriteStartDictionary(len *uint64) *Error
	WriteEndCollection() *Error

	WriteBoolean(bool) *Error
	WriteData([]byte) *Error
	WriteDate(Date) *Error
	WriteInteger(Integer) *Error
	WriteReal(float64) *Error
	WriteString(string) *Error
	WriteUid(Uid) *Error
}

// Write dispatches a generic Event to the Writer's matching per-variant
// method, giving every Writer implementation the dispatch for free.
func Write(w Writer, e Event) *Error {
	switch e.Kind {
	case StartArray:
		return w.WriteStartArray(e.Len)
	case StartDictionary:
		return w.WriteStartDictionary(e.Len)
	case EndCollection:
		return w.WriteEndCollection()
	case BooleanEvent:
		return w.WriteBoolean(e.Bool)
	case DataEvent:
		return w.WriteData(e.Bytes)
	case DateEvent:
		return w.WriteDate(e.Date)
	case IntegerEvent:
		return w.WriteInteger(e.Integer)
	case RealEvent:
		return w.WriteReal(e.Real)
	case StringEvent:
		return w.WriteString(e.Str)
	case UidEvent:
		return w.WriteUid(e.Uid)
	default:
		return newErrorf(ErrUnexpectedEventType, "unknown event kind %v", e.Kind)
	}
}

// collectionKind distinguishes the two kinds of collection a writer's
// stack can hold.
type collectionKind uint8

const (
	inArray collectionKind = iota
	inDictionary
)

// writerState is the small state record shared by both built-in writers:
// a stack of open collection kinds plus a single "expecting a dictionary
// key next" flag, recomputed after every event. This collapses grammar
// enforcement to the one-line check described in spec.md 9 ("Writer
// 'expecting key' state") instead of a full push-down automaton.
type writerState struct {
	stack        []collectionKind
	expectingKey bool
}

// beforeValue validates that a scalar or collection-opening event is legal
// at the writer's current position: not in place of a dictionary key.
func (s *writerState) beforeValue() *Error {
	if s.expectingKey {
		return newErrorf(ErrUnexpectedEventType, "expected a string dictionary key, found a value")
	}
	return nil
}

// pushArray records that a new array was opened.
func (s *writerState) pushArray() {
	s.stack = append(s.stack, inArray)
	s.recompute()
}

// pushDictionary records that a new dictionary was opened.
func (s *writerState) pushDictionary() {
	s.stack = append(s.stack, inDictionary)
	s.recompute()
}

// sawValue records that a value (scalar, or the value half of a
// dictionary entry) was written, toggling expectingKey for dictionaries.
func (s *writerState) sawValue() {
	s.recompute()
}

// pop closes the innermost collection. It reports an error if the stack is
// already empty (EndCollection with nothing open).
func (s *writerState) pop() *Error {
	if len(s.stack) == 0 {
		return newError(ErrUnexpectedEventType, "EndCollection with no open collection")
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.recompute()
	return nil
}

// sawKey records that a dictionary key string was just written.
func (s *writerState) sawKey() {
	s.expectingKey = false
}

func (s *writerState) recompute() {
	if len(s.stack) == 0 {
		s.expectingKey = false
		return
	}
	top := s.stack[len(s.stack)-1]
	s.expectingKey = top == inDictionary
}

func (s *writerState) depth() int { return len(s.stack) }

// VecWriter is an in-memory Writer that records every event it receives in
// order. It backs the grammar-property tests (spec.md 8) and is adapted
// from the original Rust source's stream::VecWriter
// (original_source/src/stream/mod.rs), which served the same purpose.
// It also implements Reader (see Next), so a recorded stream can be fed
// back to Read.
type VecWriter struct {
	Events []Event
}

func NewVecWriter() *VecWriter { return &VecWriter{} }

func (w *VecWriter) sealedWriter() {}

// Next replays the recorded events in order, consuming each one; once none
// are left it reports ErrUnexpectedEOF, the end-of-stream condition the
// format readers use.
func (w *VecWriter) Next() (Event, *Error) {
	if len(w.Events) == 0 {
		return Event{}, newError(ErrUnexpectedEOF, "no more recorded events")
	}
	e := w.Events[0]
	w.Events = w.Events[1:]
	return e, nil
}

func (w *VecWriter) WriteStartArray(len *uint64) *Error {
	w.Events = append(w.Events, EventStartArray(len))
	return nil
}

func (w *VecWriter) WriteStartDictionary(len *uint64) *Error {
	w.Events = append(w.Events, EventStartDictionary(len))
	return nil
}

func (w *VecWriter) WriteEndCollection() *Error {
	w.Events = append(w.Events, EventEndCollection())
	return nil
}

func (w *VecWriter) WriteBoolean(b bool) *Error {
	w.Events = append(w.Events, EventBoolean(b))
	return nil
}

func (w *VecWriter) WriteData(b []byte) *Error {
	w.Events = append(w.Events, EventData(b))
	return nil
}

func (w *VecWriter) WriteDate(d Date) *Error {
	w.Events = append(w.Events, EventDate(d))
	return nil
}

func (w *VecWriter) WriteInteger(i Integer) *Error {
	w.Events = append(w.Events, EventInteger(i))
	return nil
}

func (w *VecWriter) WriteReal(f float64) *Error {
	w.Events = append(w.Events, EventReal(f))
	return nil
}

func (w *VecWriter) WriteString(s string) *Error {
	w.Events = append(w.Events, EventString(s))
	return nil
}

func (w *VecWriter) WriteUid(u Uid) *Error {
	w.Events = append(w.Events, EventUid(u))
	return nil
}
