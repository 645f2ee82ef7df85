package plist

// Read consumes r's entire event stream and builds the corresponding Value
// tree, validating the grammar as it goes (spec.md 4.1: a plist is exactly
// one value; StartDictionary's children must alternate String-key/value;
// EndCollection must close something that was opened).
func Read(r Reader) (Value, *Error) {
	v, err := readValue(r)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func readValue(r Reader) (Value, *Error) {
	e, err := r.Next()
	if err != nil {
		return Value{}, err
	}
	return buildValue(r, e)
}

func buildValue(r Reader, e Event) (Value, *Error) {
	switch e.Kind {
	case StartArray:
		return buildArray(r)
	case StartDictionary:
		return buildDictionary(r)
	case EndCollection:
		return Value{}, newError(ErrUnexpectedEventType, "unexpected EndCollection at value position")
	case BooleanEvent:
		return Bool(e.Bool), nil
	case DataEvent:
		return Data(e.Bytes), nil
	case DateEvent:
		return DateValue(e.Date), nil
	case IntegerEvent:
		return IntegerValue(e.Integer), nil
	case RealEvent:
		return Real(e.Real), nil
	case StringEvent:
		return String(e.Str), nil
	case UidEvent:
		return UidValue(e.Uid), nil
	default:
		return Value{}, newErrorf(ErrUnexpectedEventType, "unknown event kind %v", e.Kind)
	}
}

func buildArray(r Reader) (Value, *Error) {
	var children []Value
	for {
		e, err := r.Next()
		if err != nil {
			return Value{}, err
		}
		if e.Kind == EndCollection {
			return ArrayValue(children), nil
		}
		child, err := buildValue(r, e)
		if err != nil {
			return Value{}, err
		}
		children = append(children, child)
	}
}

func buildDictionary(r Reader) (Value, *Error) {
	d := NewDictionary()
	for {
		e, err := r.Next()
		if err != nil {
			return Value{}, err
		}
		if e.Kind == EndCollection {
			return DictionaryValue(d), nil
		}
		if e.Kind != StringEvent {
			return Value{}, newErrorf(ErrUnexpectedEventType, "expected a string dictionary key, found %v", e.Kind)
		}
		key := e.Str

		ve, err := r.Next()
		if err != nil {
			return Value{}, err
		}
		value, err := buildValue(r, ve)
		if err != nil {
			return Value{}, err
		}
		d.Insert(key, value)
	}
}

// WriteValue emits v's event stream to w: a single StartArray/StartDictionary
// .. EndCollection run for collections, or one scalar event otherwise.
// Dictionary entries are emitted key-then-value in the dictionary's
// iteration order (spec.md 3).
func WriteValue(w Writer, v Value) *Error {
	switch v.kind {
	case ArrayKind:
		n := uint64(len(v.array))
		if err := w.WriteStartArray(&n); err != nil {
			return err
		}
		for _, child := range v.array {
			if err := WriteValue(w, child); err != nil {
				return err
			}
		}
		return w.WriteEndCollection()

	case DictionaryKind:
		n := uint64(v.dict.Len())
		if err := w.WriteStartDictionary(&n); err != nil {
			return err
		}
		var werr *Error
		v.dict.Range(func(key string, value Value) {
			if werr != nil {
				return
			}
			if err := w.WriteString(key); err != nil {
				werr = err
				return
			}
			werr = WriteValue(w, value)
		})
		if werr != nil {
			return werr
		}
		return w.WriteEndCollection()

	case StringKind:
		return w.WriteString(v.str)
	case BooleanKind:
		return w.WriteBoolean(v.boolean)
	case DataKind:
		return w.WriteData(v.data)
	case RealKind:
		return w.WriteReal(v.real)
	case IntegerKind:
		return w.WriteInteger(v.integer)
	case DateKind:
		return w.WriteDate(v.date)
	case UidKind:
		return w.WriteUid(v.uid)
	default:
		return newErrorf(ErrUnexpectedEventType, "cannot write invalid value")
	}
}
