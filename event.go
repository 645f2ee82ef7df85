package plist

// EventKind identifies the alphabet member an Event carries (spec.md 4.1).
type EventKind uint

const (
	StartArray EventKind = iota
	StartDictionary
	EndCollection
	BooleanEvent
	DataEvent
	DateEvent
	IntegerEvent
	RealEvent
	StringEvent
	UidEvent
)

func (k EventKind) String() string {
	switch k {
	case StartArray:
		return "StartArray"
	case StartDictionary:
		return "StartDictionary"
	case EndCollection:
		return "EndCollection"
	case BooleanEvent:
		return "Boolean"
	case DataEvent:
		return "Data"
	case DateEvent:
		return "Date"
	case IntegerEvent:
		return "Integer"
	case RealEvent:
		return "Real"
	case StringEvent:
		return "String"
	case UidEvent:
		return "Uid"
	default:
		return "Unknown"
	}
}

// Event is one token of the unifying event stream that all four readers
// produce and both writers consume (spec.md 4.1):
//
//	plist  := value
//	value  := scalar
//	        | StartArray  value*             EndCollection
//	        | StartDictionary (String value)* EndCollection
//
// Len is a hint at the child count of a StartArray/StartDictionary event:
// known (non-nil) for the binary format, unknown (nil) for the textual
// ones.
type Event struct {
	Kind EventKind
	Len  *uint64

	Bool    bool
	Bytes   []byte
	Date    Date
	Integer Integer
	Real    float64
	Str     string
	Uid     Uid
}

func lenHint(n uint64) *uint64 { return &n }

// EventStartArray builds a StartArray event with an optional length hint.
func EventStartArray(len *uint64) Event { return Event{Kind: StartArray, Len: len} }

// EventStartDictionary builds a StartDictionary event with an optional
// length hint.
func EventStartDictionary(len *uint64) Event { return Event{Kind: StartDictionary, Len: len} }

// EventEndCollection builds the single End event shared by arrays and
// dictionaries.
func EventEndCollection() Event { return Event{Kind: EndCollection} }

// EventBoolean builds a Boolean event.
func EventBoolean(b bool) Event { return Event{Kind: BooleanEvent, Bool: b} }

// EventData builds a Data event.
func EventData(b []byte) Event { return Event{Kind: DataEvent, Bytes: b} }

// EventDate builds a Date event.
func EventDate(d Date) Event { return Event{Kind: DateEvent, Date: d} }

// EventInteger builds an Integer event.
func EventInteger(i Integer) Event { return Event{Kind: IntegerEvent, Integer: i} }

// EventReal builds a Real event.
func EventReal(f float64) Event { return Event{Kind: RealEvent, Real: f} }

// EventString builds a String event. Whether the string is a dictionary
// key or an ordinary value is determined by its position in the stream,
// not by the event itself.
func EventString(s string) Event { return Event{Kind: StringEvent, Str: s} }

// EventUid builds a Uid event.
func EventUid(u Uid) Event { return Event{Kind: UidEvent, Uid: u} }
