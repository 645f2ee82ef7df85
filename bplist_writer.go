package plist

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"unicode/utf16"

	"github.com/ebarnard/go-plist/internal/objhash"
)

// BinaryWriter emits the binary (bplist00) encoding. Unlike the textual
// writers, the format's object table and offset-sized references cannot be
// streamed: every object's final index must be known before any reference
// to it can be written. BinaryWriter therefore buffers the incoming event
// stream into a Value tree (via the same stack discipline as writer.go's
// writerState) and only serializes once the single top-level value is
// complete, at which point it runs the teacher's three-pass
// flatten/emit-objects/emit-trailer protocol (bplist.go's
// bplistGenerator.generateDocument), generalized to deduplicate whole
// structurally-identical sub-trees instead of only scalars.
type BinaryWriter struct {
	w     io.Writer
	state writerState

	stack []binBuilderFrame
	root  *Value
	done  bool
}

type binBuilderFrame struct {
	kind      collectionKind
	array     []Value
	dict      *Dictionary
	pendKey   string
	haveKey   bool
}

// NewBinaryWriter returns a Writer that serializes exactly one value to w in
// the binary format.
func NewBinaryWriter(w io.Writer) *BinaryWriter {
	return &BinaryWriter{w: w}
}

func (bw *BinaryWriter) sealedWriter() {}

func (bw *BinaryWriter) place(v Value) *Error {
	if bw.done {
		return newError(ErrUnexpectedEventType, "binary writer already wrote its single top-level value")
	}
	if len(bw.stack) == 0 {
		if v.Kind() != ArrayKind && v.Kind() != DictionaryKind {
			return newError(ErrUnexpectedEventType, "binary plist root must be an array or dictionary")
		}
		bw.root = &v
		bw.done = true
		return bw.flushIfReady()
	}
	top := &bw.stack[len(bw.stack)-1]
	if top.kind == inDictionary {
		top.dict.Insert(top.pendKey, v)
		top.haveKey = false
		bw.state.sawValue()
	} else {
		top.array = append(top.array, v)
	}
	return nil
}

func (bw *BinaryWriter) flushIfReady() *Error {
	if bw.root == nil {
		return nil
	}
	return bw.generateDocument(*bw.root)
}

func (bw *BinaryWriter) WriteStartArray(len *uint64) *Error {
	if bw.done {
		return newError(ErrUnexpectedEventType, "binary writer already wrote its single top-level value")
	}
	if err := bw.state.beforeValue(); err != nil {
		return err
	}
	bw.state.pushArray()
	bw.stack = append(bw.stack, binBuilderFrame{kind: inArray})
	return nil
}

func (bw *BinaryWriter) WriteStartDictionary(len *uint64) *Error {
	if bw.done {
		return newError(ErrUnexpectedEventType, "binary writer already wrote its single top-level value")
	}
	if err := bw.state.beforeValue(); err != nil {
		return err
	}
	bw.state.pushDictionary()
	bw.stack = append(bw.stack, binBuilderFrame{kind: inDictionary, dict: NewDictionary()})
	return nil
}

func (bw *BinaryWriter) WriteEndCollection() *Error {
	if len(bw.stack) == 0 {
		return newError(ErrUnexpectedEventType, "EndCollection with no open collection")
	}
	frame := bw.stack[len(bw.stack)-1]
	bw.stack = bw.stack[:len(bw.stack)-1]
	if err := bw.state.pop(); err != nil {
		return err
	}
	var v Value
	if frame.kind == inArray {
		v = ArrayValue(frame.array)
	} else {
		v = DictionaryValue(frame.dict)
	}
	return bw.place(v)
}

func (bw *BinaryWriter) WriteBoolean(b bool) *Error { return bw.writeScalarOrKey(Bool(b), "") }
func (bw *BinaryWriter) WriteData(b []byte) *Error  { return bw.writeScalarOrKey(Data(b), "") }
func (bw *BinaryWriter) WriteDate(d Date) *Error    { return bw.writeScalarOrKey(DateValue(d), "") }
func (bw *BinaryWriter) WriteInteger(i Integer) *Error {
	return bw.writeScalarOrKey(IntegerValue(i), "")
}
func (bw *BinaryWriter) WriteReal(f float64) *Error { return bw.writeScalarOrKey(Real(f), "") }
func (bw *BinaryWriter) WriteUid(u Uid) *Error      { return bw.writeScalarOrKey(UidValue(u), "") }

func (bw *BinaryWriter) WriteString(s string) *Error {
	if len(bw.stack) > 0 {
		top := &bw.stack[len(bw.stack)-1]
		if top.kind == inDictionary && !top.haveKey {
			top.pendKey = s
			top.haveKey = true
			bw.state.sawKey()
			return nil
		}
	}
	return bw.writeScalarOrKey(String(s), "")
}

func (bw *BinaryWriter) writeScalarOrKey(v Value, _ string) *Error {
	// Collections run this check in WriteStart*, not when they are placed:
	// by then pop has already re-armed expectingKey for a parent dictionary.
	if err := bw.state.beforeValue(); err != nil {
		return err
	}
	return bw.place(v)
}

// --- three-pass encode, generalized from bplist.go's bplistGenerator ---

type binObject struct {
	sig   []byte
	value Value
}

type binFlattener struct {
	objects []binObject
	buckets map[uint64][]int
}

func newBinFlattener() *binFlattener {
	return &binFlattener{buckets: make(map[uint64][]int)}
}

// flatten assigns v, and every distinct sub-tree within it, an object
// index in post order, reusing the index of any earlier object with an
// identical signature. Because children are indexed before their parent,
// two structurally identical sub-trees always produce byte-identical
// signatures, so a signature match after a hash-bucket lookup is a exact
// structural-equality check, not merely a probabilistic one. This extends
// the teacher's isUniquedBplistValue (scalars only) to cover whole
// containers, matching spec.md's stated uniquing invariant.
func (f *binFlattener) flatten(v Value) uint64 {
	var sig []byte
	switch v.Kind() {
	case ArrayKind:
		children, _ := v.ArrayValueOf()
		idxs := make([]uint64, len(children))
		for i, c := range children {
			idxs[i] = f.flatten(c)
		}
		sig = encodeSignature('A', idxs)
	case DictionaryKind:
		d, _ := v.DictionaryValueOf()
		idxs := make([]uint64, 0, d.Len()*2)
		d.Range(func(k string, val Value) {
			idxs = append(idxs, f.flatten(String(k)))
		})
		d.Range(func(k string, val Value) {
			idxs = append(idxs, f.flatten(val))
		})
		sig = encodeSignature('D', idxs)
	default:
		sig = scalarSignature(v)
	}

	h := objhash.Sum(sig)
	for _, idx := range f.buckets[h] {
		if bytes.Equal(f.objects[idx].sig, sig) {
			return uint64(idx)
		}
	}
	idx := len(f.objects)
	f.objects = append(f.objects, binObject{sig: sig, value: v})
	f.buckets[h] = append(f.buckets[h], idx)
	return uint64(idx)
}

func encodeSignature(tag byte, idxs []uint64) []byte {
	buf := make([]byte, 1+8*len(idxs))
	buf[0] = tag
	for i, v := range idxs {
		binary.BigEndian.PutUint64(buf[1+8*i:], v)
	}
	return buf
}

func scalarSignature(v Value) []byte {
	switch v.Kind() {
	case StringKind:
		s, _ := v.StringValue()
		return append([]byte{'s'}, []byte(s)...)
	case BooleanKind:
		b, _ := v.BoolValue()
		if b {
			return []byte{'t'}
		}
		return []byte{'f'}
	case DataKind:
		d, _ := v.DataValue()
		return append([]byte{'d'}, d...)
	case RealKind:
		r, _ := v.RealValue()
		buf := make([]byte, 9)
		buf[0] = 'r'
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(r))
		return buf
	case IntegerKind:
		i, _ := v.IntegerValueOf()
		buf := make([]byte, 10)
		buf[0] = 'i'
		if i.Signed() {
			buf[1] = 1
		}
		u, ok := i.AsUnsigned()
		if !ok {
			s, _ := i.AsSigned()
			u = uint64(s)
		}
		binary.BigEndian.PutUint64(buf[2:], u)
		return buf
	case DateKind:
		dt, _ := v.DateValueOf()
		buf := make([]byte, 9)
		buf[0] = 'D'
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(dt.SecondsSinceEpoch()))
		return buf
	case UidKind:
		u, _ := v.UidValueOf()
		buf := make([]byte, 9)
		buf[0] = 'U'
		binary.BigEndian.PutUint64(buf[1:], uint64(u))
		return buf
	default:
		return []byte{'n'}
	}
}

func (bw *BinaryWriter) generateDocument(root Value) *Error {
	f := newBinFlattener()
	topIdx := f.flatten(root)

	objectRefSize := minimumByteWidthForCount(uint64(len(f.objects)))

	cw := &countingWriter{w: bw.w}
	if _, err := cw.Write([]byte("bplist00")); err != nil {
		return wrapIOError(err)
	}

	offsets := make([]uint64, len(f.objects))
	for i, obj := range f.objects {
		offsets[i] = uint64(cw.n)
		if err := writeBinaryObject(cw, obj.value, objectRefSize, f); err != nil {
			return err
		}
	}

	offsetTableOffset := uint64(cw.n)
	offsetIntSize := minimumByteWidthForCount(offsetTableOffset)
	for _, off := range offsets {
		if err := writeSizedUint(cw, off, offsetIntSize); err != nil {
			return err
		}
	}

	trailer := bplistTrailer{
		offsetIntSize:     uint8(offsetIntSize),
		objectRefSize:     uint8(objectRefSize),
		numObjects:        uint64(len(f.objects)),
		topObject:         topIdx,
		offsetTableOffset: offsetTableOffset,
	}
	return writeTrailer(cw, trailer)
}

func writeTrailer(w io.Writer, t bplistTrailer) *Error {
	buf := make([]byte, bplistTrailerSize)
	buf[5] = t.sortVersion
	buf[6] = t.offsetIntSize
	buf[7] = t.objectRefSize
	binary.BigEndian.PutUint64(buf[8:16], t.numObjects)
	binary.BigEndian.PutUint64(buf[16:24], t.topObject)
	binary.BigEndian.PutUint64(buf[24:32], t.offsetTableOffset)
	if _, err := w.Write(buf); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func writeBinaryObject(w io.Writer, v Value, refSize int, f *binFlattener) *Error {
	switch v.Kind() {
	case BooleanKind:
		b, _ := v.BoolValue()
		tag := bpTagBoolFalse
		if b {
			tag = bpTagBoolTrue
		}
		return writeByte(w, tag)
	case IntegerKind:
		return writeBinaryInteger(w, v)
	case RealKind:
		r, _ := v.RealValue()
		if err := writeByte(w, bpTagReal|0x3); err != nil {
			return err
		}
		return writeFloat64(w, r)
	case DateKind:
		d, _ := v.DateValueOf()
		if err := writeByte(w, bpTagDate|0x3); err != nil {
			return err
		}
		return writeFloat64(w, d.SecondsSinceEpoch())
	case DataKind:
		data, _ := v.DataValue()
		if err := writeCountedTag(w, bpTagData, uint64(len(data))); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return wrapIOError(err)
		}
		return nil
	case StringKind:
		return writeBinaryString(w, v)
	case UidKind:
		u, _ := v.UidValueOf()
		n := minimumByteWidthForCount(uint64(u))
		if err := writeByte(w, bpTagUID|uint8(n-1)); err != nil {
			return err
		}
		return writeSizedUint(w, uint64(u), n)
	case ArrayKind:
		children, _ := v.ArrayValueOf()
		if err := writeCountedTag(w, bpTagArray, uint64(len(children))); err != nil {
			return err
		}
		for _, c := range children {
			idx := f.flatten(c)
			if err := writeSizedUint(w, idx, refSize); err != nil {
				return err
			}
		}
		return nil
	case DictionaryKind:
		d, _ := v.DictionaryValueOf()
		if err := writeCountedTag(w, bpTagDictionary, uint64(d.Len())); err != nil {
			return err
		}
		var keyIdxs, valIdxs []uint64
		d.Range(func(k string, val Value) {
			keyIdxs = append(keyIdxs, f.flatten(String(k)))
		})
		d.Range(func(k string, val Value) {
			valIdxs = append(valIdxs, f.flatten(val))
		})
		for _, idx := range keyIdxs {
			if err := writeSizedUint(w, idx, refSize); err != nil {
				return err
			}
		}
		for _, idx := range valIdxs {
			if err := writeSizedUint(w, idx, refSize); err != nil {
				return err
			}
		}
		return nil
	default:
		return newError(ErrUnexpectedEventType, "cannot serialize invalid value to binary plist")
	}
}

func writeBinaryInteger(w io.Writer, v Value) *Error {
	i, _ := v.IntegerValueOf()
	var u uint64
	if su, ok := i.AsUnsigned(); ok {
		u = su
	} else {
		s, _ := i.AsSigned()
		u = uint64(s)
	}
	switch {
	case u <= 0xff:
		if err := writeByte(w, bpTagInteger|0x0); err != nil {
			return err
		}
		return writeSizedUint(w, u, 1)
	case u <= 0xffff:
		if err := writeByte(w, bpTagInteger|0x1); err != nil {
			return err
		}
		return writeSizedUint(w, u, 2)
	case u <= 0xffffffff:
		if err := writeByte(w, bpTagInteger|0x2); err != nil {
			return err
		}
		return writeSizedUint(w, u, 4)
	default:
		if err := writeByte(w, bpTagInteger|0x3); err != nil {
			return err
		}
		return writeSizedUint(w, u, 8)
	}
}

func writeBinaryString(w io.Writer, v Value) *Error {
	s, _ := v.StringValue()
	ascii := true
	for _, r := range s {
		if r > 0x7F {
			ascii = false
			break
		}
	}
	if ascii {
		if err := writeCountedTag(w, bpTagASCIIString, uint64(len(s))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, s); err != nil {
			return wrapIOError(err)
		}
		return nil
	}
	units := utf16.Encode([]rune(s))
	if err := writeCountedTag(w, bpTagUTF16String, uint64(len(units))); err != nil {
		return err
	}
	buf := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(buf[2*i:], u)
	}
	if _, err := w.Write(buf); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func writeCountedTag(w io.Writer, tag uint8, count uint64) *Error {
	marker := tag
	if count >= 0xF {
		marker |= 0xF
	} else {
		marker |= uint8(count)
	}
	if err := writeByte(w, marker); err != nil {
		return err
	}
	if count >= 0xF {
		return writeBinaryInteger(w, Int(int64(count)))
	}
	return nil
}

func writeByte(w io.Writer, b byte) *Error {
	if _, err := w.Write([]byte{b}); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func writeSizedUint(w io.Writer, n uint64, nbytes int) *Error {
	buf := make([]byte, nbytes)
	switch nbytes {
	case 1:
		buf[0] = byte(n)
	case 2:
		binary.BigEndian.PutUint16(buf, uint16(n))
	case 4:
		binary.BigEndian.PutUint32(buf, uint32(n))
	case 8:
		binary.BigEndian.PutUint64(buf, n)
	}
	if _, err := w.Write(buf); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func writeFloat64(w io.Writer, f float64) *Error {
	return writeSizedUint(w, math.Float64bits(f), 8)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
