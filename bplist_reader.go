package plist

import (
	"encoding/binary"
	"io"
	"math"
	"unicode/utf16"
)

// BinaryReader pulls Events out of a binary property list. Unlike the
// teacher's bplistParser, which recursively materializes a full cfValue
// tree (deferring cyclic references via a delayedObjects map) before
// Unmarshal ever sees it, BinaryReader walks the object table lazily with
// an explicit stack, pushing a container's children in reverse so they pop
// off in declaration order, and tracks which offsets are currently
// on-stack to reject the self-reference cycles the teacher's delayed
// resolution would otherwise loop forever on (spec.md 4.2).
type BinaryReader struct {
	r       io.ReadSeeker
	trailer bplistTrailer
	offsets []uint64

	pending []binPending
	onStack map[uint64]bool

	initialized bool
	err         *Error
}

// binPending is either the offset of an object that still needs to be
// read (end=false) or an EndCollection to emit once its children are
// exhausted (end=true).
type binPending struct {
	end    bool
	offset uint64
}

// NewBinaryReader returns a Reader over r's binary-format contents.
func NewBinaryReader(r io.ReadSeeker) *BinaryReader {
	return &BinaryReader{r: r, onStack: make(map[uint64]bool)}
}

func (br *BinaryReader) Next() (Event, *Error) {
	if br.err != nil {
		return Event{}, br.err
	}
	if !br.initialized {
		if err := br.init(); err != nil {
			br.err = err
			return Event{}, err
		}
		br.initialized = true
		br.pending = []binPending{{offset: br.offsets[br.trailer.topObject]}}
	}

	e, err := br.step()
	if err != nil {
		br.err = err
	}
	return e, err
}

func (br *BinaryReader) init() *Error {
	magic := make([]byte, 8)
	if _, err := br.r.Seek(0, io.SeekStart); err != nil {
		return wrapIOError(err)
	}
	if _, err := io.ReadFull(br.r, magic); err != nil {
		return ioOrEOF(err)
	}
	if string(magic) != binaryMagic {
		return newError(ErrInvalidMagic, "binary property list has mismatched magic")
	}

	trailerOffset, err := br.r.Seek(-bplistTrailerSize, io.SeekEnd)
	if err != nil {
		return wrapIOError(err)
	}
	tbuf := make([]byte, bplistTrailerSize)
	if _, err := io.ReadFull(br.r, tbuf); err != nil {
		return ioOrEOF(err)
	}
	t := bplistTrailer{
		sortVersion:       tbuf[5],
		offsetIntSize:     tbuf[6],
		objectRefSize:     tbuf[7],
		numObjects:        binary.BigEndian.Uint64(tbuf[8:16]),
		topObject:         binary.BigEndian.Uint64(tbuf[16:24]),
		offsetTableOffset: binary.BigEndian.Uint64(tbuf[24:32]),
	}
	br.trailer = t

	if err := br.validateTrailer(trailerOffset); err != nil {
		return err
	}

	if _, err := br.r.Seek(int64(t.offsetTableOffset), io.SeekStart); err != nil {
		return wrapIOError(err)
	}
	br.offsets = make([]uint64, t.numObjects)
	maxOffset := t.offsetTableOffset - 1
	for i := uint64(0); i < t.numObjects; i++ {
		off, err := readSizedUint(br.r, int(t.offsetIntSize))
		if err != nil {
			return err
		}
		if off > maxOffset {
			return newErrorf(ErrInvalidObjectLength, "object %d starts beyond the offset table", i)
		}
		br.offsets[i] = off
	}
	return nil
}

// isValidTrailerIntSize reports whether n is one of the widths the binary
// format's trailer permits for offset_size and ref_size (spec.md 4.2).
func isValidTrailerIntSize(n uint8) bool {
	return n == 1 || n == 2 || n == 4 || n == 8
}

func (br *BinaryReader) validateTrailer(trailerOffset int64) *Error {
	t := br.trailer
	if t.offsetTableOffset >= uint64(trailerOffset) {
		return newError(ErrInvalidTrailerObjectOffsetSize, "offset table begins at or beyond the trailer")
	}
	if t.offsetTableOffset < 8 {
		return newError(ErrInvalidTrailerObjectOffsetSize, "offset table begins inside the header")
	}
	if t.numObjects > uint64(trailerOffset) {
		return newError(ErrInvalidObjectLength, "more objects declared than bytes available")
	}
	if !isValidTrailerIntSize(t.offsetIntSize) {
		return newError(ErrInvalidTrailerObjectOffsetSize, "offset int size must be 1, 2, 4, or 8")
	}
	if !isValidTrailerIntSize(t.objectRefSize) {
		return newError(ErrInvalidTrailerObjectRefSize, "object ref size must be 1, 2, 4, or 8")
	}
	if t.objectRefSize < 8 {
		refSpace := uint64(1) << (8 * t.objectRefSize)
		if t.numObjects > refSpace {
			return newError(ErrObjectReferenceTooLarge, "object ref size cannot address every object")
		}
	}
	if t.topObject >= t.numObjects {
		return newError(ErrObjectReferenceTooLarge, "top object index out of range")
	}
	return nil
}

func (br *BinaryReader) step() (Event, *Error) {
	if len(br.pending) == 0 {
		return Event{}, ioOrEOF(io.EOF)
	}
	top := br.pending[len(br.pending)-1]
	br.pending = br.pending[:len(br.pending)-1]

	if top.end {
		delete(br.onStack, top.offset)
		return EventEndCollection(), nil
	}

	if br.onStack[top.offset] {
		return Event{}, newError(ErrRecursiveObject, "object graph contains a cycle")
	}

	e, children, selfOffset, err := br.readObjectAt(top.offset)
	if err != nil {
		return Event{}, err
	}
	if children != nil {
		br.onStack[selfOffset] = true
		br.pending = append(br.pending, binPending{end: true, offset: selfOffset})
		for i := len(children) - 1; i >= 0; i-- {
			br.pending = append(br.pending, binPending{offset: children[i]})
		}
	}
	return e, nil
}

// readObjectAt decodes the object at offset off, returning its Event, and
// for containers, the byte offsets of its children in emission order (key,
// value, key, value... for dictionaries) together with off itself.
func (br *BinaryReader) readObjectAt(off uint64) (Event, []uint64, uint64, *Error) {
	if _, err := br.r.Seek(int64(off), io.SeekStart); err != nil {
		return Event{}, nil, 0, wrapIOError(err)
	}
	var tagBuf [1]byte
	if _, err := io.ReadFull(br.r, tagBuf[:]); err != nil {
		return Event{}, nil, 0, ioOrEOF(err)
	}
	tag := tagBuf[0]

	switch tag & 0xF0 {
	case bpTagNull:
		switch tag {
		case bpTagBoolTrue:
			return EventBoolean(true), nil, 0, nil
		case bpTagBoolFalse:
			return EventBoolean(false), nil, 0, nil
		}
		return Event{}, nil, 0, newErrorf(ErrUnknownObjectType, "unknown null-tagged object 0x%02x", tag)

	case bpTagInteger:
		n := tag & 0xF
		if n == 4 {
			// Apple's own writer never emits this width; Core Foundation
			// reads it as a 128-bit integer. This core's Integer model
			// only widens to [i64::MIN, u64::MAX] (spec.md 3), so any
			// such value is out of range by construction.
			if _, err := io.CopyN(io.Discard, br.r, 16); err != nil {
				return Event{}, nil, 0, ioOrEOF(err)
			}
			return Event{}, nil, 0, newError(ErrIntegerOutOfRange, "128-bit integer object out of range")
		}
		if n > 4 {
			return Event{}, nil, 0, newErrorf(ErrUnknownObjectType, "illegal integer width selector 0x%02x", tag)
		}
		width := 1 << n
		u, err := readSizedUint(br.r, width)
		if err != nil {
			return Event{}, nil, 0, err
		}
		if width == 8 {
			return EventInteger(NewInteger(int64(u))), nil, 0, nil
		}
		return EventInteger(NewUnsignedInteger(u)), nil, 0, nil

	case bpTagReal:
		width := 1 << (tag & 0xF)
		switch width {
		case 4:
			var bits uint32
			if err := binary.Read(br.r, binary.BigEndian, &bits); err != nil {
				return Event{}, nil, 0, ioOrEOF(err)
			}
			return EventReal(float64(math.Float32frombits(bits))), nil, 0, nil
		case 8:
			var bits uint64
			if err := binary.Read(br.r, binary.BigEndian, &bits); err != nil {
				return Event{}, nil, 0, ioOrEOF(err)
			}
			return EventReal(math.Float64frombits(bits)), nil, 0, nil
		}
		return Event{}, nil, 0, newError(ErrInvalidObjectLength, "illegal real width")

	case bpTagDate:
		var bits uint64
		if err := binary.Read(br.r, binary.BigEndian, &bits); err != nil {
			return Event{}, nil, 0, ioOrEOF(err)
		}
		secs := math.Float64frombits(bits)
		d, derr := DateFromSecondsSinceEpoch(secs)
		if derr != nil {
			return Event{}, nil, 0, derr
		}
		return EventDate(d), nil, 0, nil

	case bpTagData:
		cnt, err := br.countForTag(tag)
		if err != nil {
			return Event{}, nil, 0, err
		}
		if cnt > br.trailer.offsetTableOffset {
			return Event{}, nil, 0, newError(ErrObjectTooLarge, "data object larger than the file")
		}
		buf := make([]byte, cnt)
		if _, err := io.ReadFull(br.r, buf); err != nil {
			return Event{}, nil, 0, ioOrEOF(err)
		}
		return EventData(buf), nil, 0, nil

	case bpTagASCIIString, bpTagUTF16String:
		cnt, err := br.countForTag(tag)
		if err != nil {
			return Event{}, nil, 0, err
		}
		if tag&0xF0 == bpTagASCIIString {
			if cnt > br.trailer.offsetTableOffset {
				return Event{}, nil, 0, newError(ErrObjectTooLarge, "string object larger than the file")
			}
			buf := make([]byte, cnt)
			if _, err := io.ReadFull(br.r, buf); err != nil {
				return Event{}, nil, 0, ioOrEOF(err)
			}
			return EventString(string(buf)), nil, 0, nil
		}
		// Division, not cnt*2 > offsetTableOffset: cnt comes straight from
		// countForTag's extended-count path and can be up to 2^64-1, which
		// would wrap uint64 under multiplication and falsely pass.
		if cnt > br.trailer.offsetTableOffset/2 {
			return Event{}, nil, 0, newError(ErrObjectTooLarge, "string object larger than the file")
		}
		units := make([]uint16, cnt)
		if err := binary.Read(br.r, binary.BigEndian, units); err != nil {
			return Event{}, nil, 0, ioOrEOF(err)
		}
		return EventString(string(utf16.Decode(units))), nil, 0, nil

	case bpTagUID:
		width := int(tag&0xF) + 1
		u, err := readSizedUint(br.r, width)
		if err != nil {
			return Event{}, nil, 0, err
		}
		return EventUid(Uid(u)), nil, 0, nil

	case bpTagArray:
		cnt, err := br.countForTag(tag)
		if err != nil {
			return Event{}, nil, 0, err
		}
		if err := br.boundCount(cnt); err != nil {
			return Event{}, nil, 0, err
		}
		if err := br.validateListLength(off, cnt); err != nil {
			return Event{}, nil, 0, err
		}
		children, err := br.readRefs(cnt)
		if err != nil {
			return Event{}, nil, 0, err
		}
		n := cnt
		return EventStartArray(&n), children, off, nil

	case bpTagDictionary:
		cnt, err := br.countForTag(tag)
		if err != nil {
			return Event{}, nil, 0, err
		}
		if err := br.boundCount(cnt); err != nil {
			return Event{}, nil, 0, err
		}
		// cnt is now bounded by numObjects (itself bounded by the trailer
		// offset, spec.md 4.2(c)), so cnt*2 cannot overflow uint64 for any
		// file a real io.ReadSeeker could hold.
		length := cnt * 2
		if err := br.validateListLength(off, length); err != nil {
			return Event{}, nil, 0, err
		}
		refs, err := br.readRefs(length)
		if err != nil {
			return Event{}, nil, 0, err
		}
		// refs holds cnt key indices followed by cnt value indices;
		// interleave them so children pop off the stack as key, value,
		// key, value, ... per the dictionary grammar (spec.md 4.1).
		interleaved := make([]uint64, cnt*2)
		for i := uint64(0); i < cnt; i++ {
			interleaved[2*i] = refs[i]
			interleaved[2*i+1] = refs[cnt+i]
		}
		n := cnt
		return EventStartDictionary(&n), interleaved, off, nil
	}

	return Event{}, nil, 0, newErrorf(ErrUnknownObjectType, "unexpected object tag 0x%02x", tag)
}

// boundCount rejects a declared element count before it is ever multiplied
// or used to size an allocation: an array or dictionary can never hold more
// children than there are objects in the file, so this is a sane upper
// bound regardless of what the extended-count encoding claims (spec.md
// 4.2(c)).
func (br *BinaryReader) boundCount(cnt uint64) *Error {
	if cnt > br.trailer.numObjects {
		return newError(ErrInvalidObjectLength, "collection declares more children than objects exist in the file")
	}
	return nil
}

// validateListLength checks that length reference-sized entries starting at
// off still fit before the offset table, using division rather than
// off+length*refSize so a huge (but boundCount-bounded) length cannot wrap
// uint64 and falsely pass (spec.md 8, "Hostile-input safety").
func (br *BinaryReader) validateListLength(off, length uint64) *Error {
	if off > br.trailer.offsetTableOffset {
		return newError(ErrInvalidObjectLength, "collection starts beyond the offset table")
	}
	refSize := uint64(br.trailer.objectRefSize)
	if length > (br.trailer.offsetTableOffset-off)/refSize {
		return newError(ErrInvalidObjectLength, "collection length puts its end beyond the offset table")
	}
	return nil
}

func (br *BinaryReader) readRefs(cnt uint64) ([]uint64, *Error) {
	refs := make([]uint64, cnt)
	for i := uint64(0); i < cnt; i++ {
		idx, err := readSizedUint(br.r, int(br.trailer.objectRefSize))
		if err != nil {
			return nil, err
		}
		if idx >= br.trailer.numObjects {
			return nil, newErrorf(ErrObjectReferenceTooLarge, "object reference %d out of range (max %d)", idx, br.trailer.numObjects)
		}
		refs[i] = br.offsets[idx]
	}
	return refs, nil
}

func (br *BinaryReader) countForTag(tag uint8) (uint64, *Error) {
	cnt := uint64(tag & 0x0F)
	if cnt != 0x0F {
		return cnt, nil
	}
	var intTag [1]byte
	if _, err := io.ReadFull(br.r, intTag[:]); err != nil {
		return 0, ioOrEOF(err)
	}
	if intTag[0]&0xF0 != bpTagInteger || intTag[0]&0xF > 3 {
		return 0, newErrorf(ErrInvalidObjectLength, "invalid extended-count marker 0x%02x", intTag[0])
	}
	width := 1 << (intTag[0] & 0xF)
	return readSizedUint(br.r, width)
}

func readSizedUint(r io.Reader, nbytes int) (uint64, *Error) {
	buf := make([]byte, nbytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, ioOrEOF(err)
	}
	switch nbytes {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case 8:
		return binary.BigEndian.Uint64(buf), nil
	default:
		return 0, newError(ErrInvalidObjectLength, "illegal integer width")
	}
}
