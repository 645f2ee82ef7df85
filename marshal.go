package plist

import (
	"encoding"
	"io"
	"reflect"
	"sort"
	"strings"
	"time"
)

// Marshaler is implemented by types that encode themselves to a plist
// Value, adapted from the teacher's Marshaler interface.
type Marshaler interface {
	MarshalPlist() (Value, error)
}

var (
	marshalerType     = reflect.TypeOf((*Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	timeType          = reflect.TypeOf(time.Time{})
	byteSliceType     = reflect.TypeOf([]byte(nil))
)

// Encoder walks an arbitrary Go value with reflection and writes its plist
// Event stream to an underlying Writer, the same separation of concerns as
// the teacher's Encoder but retargeted to the Writer/Event layer instead of
// directly building a cf.Value tree.
type Encoder struct {
	w Writer
}

// NewEncoder returns an Encoder that writes through w.
func NewEncoder(w Writer) *Encoder {
	return &Encoder{w: w}
}

// NewBinaryEncoder returns an Encoder writing the binary format to w.
func NewBinaryEncoder(w io.Writer) *Encoder {
	return &Encoder{w: NewBinaryWriter(w)}
}

// NewXMLEncoder returns an Encoder writing the XML format to w.
func NewXMLEncoder(w io.Writer) *Encoder {
	return &Encoder{w: NewXMLWriter(w)}
}

// Encode marshals v and writes it to the Encoder's Writer.
func (e *Encoder) Encode(v any) *Error {
	val, err := marshal(reflect.ValueOf(v))
	if err != nil {
		return err
	}
	return WriteValue(e.w, val)
}

// Marshal converts v into a Value tree without writing it anywhere.
func Marshal(v any) (Value, *Error) {
	return marshal(reflect.ValueOf(v))
}

func marshal(rv reflect.Value) (Value, *Error) {
	if !rv.IsValid() {
		return Value{}, newError(ErrUnexpectedEventType, "cannot marshal a nil interface")
	}

	if m, ok := implementsInterface(rv, marshalerType); ok {
		out, merr := m.(Marshaler).MarshalPlist()
		if merr != nil {
			return Value{}, newErrorf(ErrUnexpectedEventType, "MarshalPlist: %v", merr)
		}
		return out, nil
	}
	if tm, ok := implementsInterface(rv, textMarshalerType); ok && rv.Type() != timeType {
		text, merr := tm.(encoding.TextMarshaler).MarshalText()
		if merr != nil {
			return Value{}, newErrorf(ErrUnexpectedEventType, "MarshalText: %v", merr)
		}
		return String(string(text)), nil
	}

	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return Value{}, nil
		}
		rv = rv.Elem()
	}

	switch {
	case rv.Type() == timeType:
		return DateValue(NewDate(rv.Interface().(time.Time))), nil
	case rv.Type() == byteSliceType:
		return Data(rv.Bytes()), nil
	}

	switch rv.Kind() {
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Uint(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return Real(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		children := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			c, err := marshal(rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			children = append(children, c)
		}
		return ArrayValue(children), nil
	case reflect.Map:
		d := NewDictionary()
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			c, err := marshal(rv.MapIndex(k))
			if err != nil {
				return Value{}, err
			}
			d.Insert(toMapKeyString(k), c)
		}
		return DictionaryValue(d), nil
	case reflect.Struct:
		return marshalStruct(rv)
	default:
		return Value{}, newErrorf(ErrUnexpectedEventType, "cannot marshal go kind %v", rv.Kind())
	}
}

func marshalStruct(rv reflect.Value) (Value, *Error) {
	d := NewDictionary()
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		name, omitempty, skip := plistTag(f)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitempty && isEmptyValue(fv) {
			continue
		}
		c, err := marshal(fv)
		if err != nil {
			return Value{}, err
		}
		d.Insert(name, c)
	}
	return DictionaryValue(d), nil
}

func plistTag(f reflect.StructField) (name string, omitempty, skip bool) {
	tag := f.Tag.Get("plist")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = f.Name
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitempty = true
		}
	}
	return name, omitempty, false
}

func toMapKeyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return reflect.ValueOf(k.Interface()).String()
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Ptr:
		return v.IsNil()
	}
	return false
}

func implementsInterface(val reflect.Value, ifaceType reflect.Type) (any, bool) {
	if !val.IsValid() {
		return nil, false
	}
	if val.CanInterface() && val.Type().Implements(ifaceType) {
		return val.Interface(), true
	}
	if val.CanAddr() {
		pv := val.Addr()
		if pv.CanInterface() && pv.Type().Implements(ifaceType) {
			return pv.Interface(), true
		}
	}
	return nil, false
}
