package plist

import (
	"encoding"
	"io"
	"reflect"
)

// Unmarshaler is implemented by types that decode themselves from a plist
// Value, adapted from the teacher's Unmarshaler interface.
type Unmarshaler interface {
	UnmarshalPlist(Value) error
}

// Decoder reads exactly one plist value from an underlying Reader and
// populates a Go value from it via reflection, the decode-side mirror of
// Encoder.
type Decoder struct {
	r Reader
}

// NewDecoder returns a Decoder reading through r.
func NewDecoder(r Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode reads the Decoder's single value and stores it in v, which must
// be a non-nil pointer.
func (d *Decoder) Decode(v any) *Error {
	val, err := Read(d.r)
	if err != nil {
		return err
	}
	return unmarshal(val, reflect.ValueOf(v))
}

// Unmarshal reads src's contents with the auto-detect façade and stores
// the result in v.
func Unmarshal(src io.ReadSeeker, v any) *Error {
	return NewDecoder(NewReader(src)).Decode(v)
}

func unmarshal(src Value, rv reflect.Value) *Error {
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newError(ErrUnexpectedEventType, "Unmarshal target must be a non-nil pointer")
	}

	if u, ok := rv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalPlist(src); err != nil {
			return newErrorf(ErrUnexpectedEventType, "UnmarshalPlist: %v", err)
		}
		return nil
	}

	return assign(src, rv.Elem())
}

func assign(src Value, rv reflect.Value) *Error {
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		return assign(src, rv.Elem())
	}

	if rv.CanAddr() {
		if u, ok := rv.Addr().Interface().(Unmarshaler); ok {
			if err := u.UnmarshalPlist(src); err != nil {
				return newErrorf(ErrUnexpectedEventType, "UnmarshalPlist: %v", err)
			}
			return nil
		}
	}

	if tu, ok := rv.Addr().Interface().(encoding.TextUnmarshaler); ok && rv.Type() != timeType {
		s, ok := src.StringValue()
		if !ok {
			return newErrorf(ErrUnexpectedEventType, "expected a string for %v", rv.Type())
		}
		if err := tu.UnmarshalText([]byte(s)); err != nil {
			return newErrorf(ErrUnexpectedEventType, "UnmarshalText: %v", err)
		}
		return nil
	}

	if rv.Type() == timeType {
		d, ok := src.DateValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected a date")
		}
		rv.Set(reflect.ValueOf(d.Time()))
		return nil
	}
	if rv.Type() == byteSliceType {
		b, ok := src.DataValue()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected data")
		}
		cp := make([]byte, len(b))
		copy(cp, b)
		rv.SetBytes(cp)
		return nil
	}

	switch rv.Kind() {
	case reflect.Interface:
		v, err := valueToInterface(src)
		if err != nil {
			return err
		}
		rv.Set(reflect.ValueOf(v))
		return nil
	case reflect.String:
		s, ok := src.StringValue()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected a string")
		}
		rv.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := src.BoolValue()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected a boolean")
		}
		rv.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := src.IntegerValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected an integer")
		}
		s, ok := i.AsSigned()
		if !ok || rv.OverflowInt(s) {
			return newError(ErrIntegerOutOfRange, "integer does not fit in a signed field")
		}
		rv.SetInt(s)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		i, ok := src.IntegerValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected an integer")
		}
		u, ok := i.AsUnsigned()
		if !ok || rv.OverflowUint(u) {
			return newError(ErrIntegerOutOfRange, "integer does not fit in an unsigned field")
		}
		rv.SetUint(u)
		return nil
	case reflect.Float32, reflect.Float64:
		switch src.Kind() {
		case RealKind:
			f, _ := src.RealValue()
			rv.SetFloat(f)
			return nil
		case IntegerKind:
			i, _ := src.IntegerValueOf()
			s, _ := i.AsSigned()
			rv.SetFloat(float64(s))
			return nil
		}
		return newError(ErrUnexpectedEventType, "expected a real")
	case reflect.Slice, reflect.Array:
		children, ok := src.ArrayValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected an array")
		}
		if rv.Kind() == reflect.Slice {
			rv.Set(reflect.MakeSlice(rv.Type(), len(children), len(children)))
		} else if rv.Len() < len(children) {
			return newError(ErrObjectTooLarge, "array too long for fixed-size field")
		}
		for i, c := range children {
			if err := assign(c, rv.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		d, ok := src.DictionaryValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected a dictionary")
		}
		rv.Set(reflect.MakeMapWithSize(rv.Type(), d.Len()))
		var ferr *Error
		d.Range(func(key string, val Value) {
			if ferr != nil {
				return
			}
			ev := reflect.New(rv.Type().Elem()).Elem()
			if err := assign(val, ev); err != nil {
				ferr = err
				return
			}
			rv.SetMapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()), ev)
		})
		return ferr
	case reflect.Struct:
		d, ok := src.DictionaryValueOf()
		if !ok {
			return newError(ErrUnexpectedEventType, "expected a dictionary")
		}
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			name, _, skip := plistTag(f)
			if skip {
				continue
			}
			if val, ok := d.Get(name); ok {
				if err := assign(val, rv.Field(i)); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return newErrorf(ErrUnexpectedEventType, "cannot unmarshal into go kind %v", rv.Kind())
	}
}

// valueToInterface converts src into the most natural untyped Go
// representation, used for `interface{}`-typed Unmarshal targets.
func valueToInterface(v Value) (any, *Error) {
	switch v.Kind() {
	case StringKind:
		s, _ := v.StringValue()
		return s, nil
	case BooleanKind:
		b, _ := v.BoolValue()
		return b, nil
	case DataKind:
		b, _ := v.DataValue()
		return b, nil
	case RealKind:
		f, _ := v.RealValue()
		return f, nil
	case IntegerKind:
		i, _ := v.IntegerValueOf()
		if s, ok := i.AsSigned(); ok {
			return s, nil
		}
		u, _ := i.AsUnsigned()
		return u, nil
	case DateKind:
		d, _ := v.DateValueOf()
		return d.Time(), nil
	case UidKind:
		u, _ := v.UidValueOf()
		return u, nil
	case ArrayKind:
		children, _ := v.ArrayValueOf()
		out := make([]any, len(children))
		for i, c := range children {
			cv, err := valueToInterface(c)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	case DictionaryKind:
		d, _ := v.DictionaryValueOf()
		out := make(map[string]any, d.Len())
		var ferr *Error
		d.Range(func(key string, val Value) {
			if ferr != nil {
				return
			}
			cv, err := valueToInterface(val)
			if err != nil {
				ferr = err
				return
			}
			out[key] = cv
		})
		return out, ferr
	default:
		return nil, newError(ErrUnexpectedEventType, "cannot convert invalid value")
	}
}
