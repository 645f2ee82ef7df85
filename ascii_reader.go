package plist

import "io"

// ASCIIReader pulls Events from the legacy OpenStep textual format
// (spec.md 4.4). It is read-only: Writer is sealed against it.
//
// Structurally it mirrors XMLReader — an explicit stack of open
// collections driving a one-event-per-call loop over asciiTokenizer's
// tokens — rather than the teacher's textPlistParser, which recursively
// materializes a full cfValue tree via parseDictionary/parseArray before
// Unmarshal ever runs.
type ASCIIReader struct {
	tok     *asciiTokenizer
	pending *asciiToken

	stack    []asciiFrame
	seenRoot bool
	done     bool
	err      *Error
}

type asciiFrame struct {
	kind    collectionKind
	needKey bool // dictionaries only
}

// NewASCIIReader returns a Reader over r's ASCII/OpenStep-format contents.
func NewASCIIReader(r io.Reader) *ASCIIReader {
	return &ASCIIReader{tok: newASCIITokenizer(r)}
}

func (ar *ASCIIReader) Next() (Event, *Error) {
	if ar.err != nil {
		return Event{}, ar.err
	}
	e, err := ar.next()
	if err != nil {
		ar.err = err
	}
	return e, err
}

func (ar *ASCIIReader) readToken() (asciiToken, *Error) {
	if ar.pending != nil {
		t := *ar.pending
		ar.pending = nil
		return t, nil
	}
	return ar.tok.next()
}

func (ar *ASCIIReader) next() (Event, *Error) {
	if ar.done {
		return Event{}, ioOrEOF(io.EOF)
	}

	if len(ar.stack) == 0 {
		tok, err := ar.readToken()
		if err != nil {
			return Event{}, err
		}
		if tok.kind == asciiEOF {
			if !ar.seenRoot {
				return Event{}, newError(ErrUnexpectedEOF, "ascii plist contains no value")
			}
			ar.done = true
			return Event{}, ioOrEOF(io.EOF)
		}
		ar.seenRoot = true
		e, serr := ar.startValue(tok)
		if serr != nil {
			return Event{}, serr
		}
		if len(ar.stack) == 0 {
			// A scalar root: the document is complete, trailing bytes are
			// ignored (spec.md 4.4 permits a bare top-level scalar).
			ar.done = true
		}
		return e, nil
	}

	top := &ar.stack[len(ar.stack)-1]
	if top.kind == inDictionary {
		return ar.nextInDictionary(top)
	}
	return ar.nextInArray(top)
}

func (ar *ASCIIReader) nextInDictionary(top *asciiFrame) (Event, *Error) {
	if top.needKey {
		for {
			tok, err := ar.readToken()
			if err != nil {
				return Event{}, err
			}
			switch tok.kind {
			case asciiSemicolon, asciiComma:
				continue
			case asciiRightBrace:
				ar.stack = ar.stack[:len(ar.stack)-1]
				return EventEndCollection(), nil
			case asciiEOF:
				return Event{}, newError(ErrUnexpectedEOF, "unterminated dictionary")
			case asciiValue:
				top.needKey = false
				return EventString(tok.text), nil
			default:
				return Event{}, newErrorf(ErrInvalidUTF8AsciiStream, "expected a dictionary key")
			}
		}
	}

	tok, err := ar.readToken()
	if err != nil {
		return Event{}, err
	}
	if tok.kind == asciiEOF {
		return Event{}, newError(ErrUnexpectedEOF, "unterminated dictionary entry")
	}
	top.needKey = true
	if tok.kind == asciiEquals {
		valTok, verr := ar.readToken()
		if verr != nil {
			return Event{}, verr
		}
		return ar.startValue(valTok)
	}
	// Missing '=' is tolerated (spec.md 4.4): treat this token as the value.
	return ar.startValue(tok)
}

func (ar *ASCIIReader) nextInArray(top *asciiFrame) (Event, *Error) {
	for {
		tok, err := ar.readToken()
		if err != nil {
			return Event{}, err
		}
		switch tok.kind {
		case asciiComma:
			continue
		case asciiRightParen:
			ar.stack = ar.stack[:len(ar.stack)-1]
			return EventEndCollection(), nil
		case asciiEOF:
			return Event{}, newError(ErrUnexpectedEOF, "unterminated array")
		default:
			return ar.startValue(tok)
		}
	}
}

func (ar *ASCIIReader) startValue(tok asciiToken) (Event, *Error) {
	switch tok.kind {
	case asciiLeftBrace:
		ar.stack = append(ar.stack, asciiFrame{kind: inDictionary, needKey: true})
		return EventStartDictionary(nil), nil
	case asciiLeftParen:
		ar.stack = append(ar.stack, asciiFrame{kind: inArray})
		return EventStartArray(nil), nil
	case asciiValue:
		if !tok.quoted {
			if i, ok := parseInteger(tok.text); ok {
				return EventInteger(i), nil
			}
		}
		return EventString(tok.text), nil
	default:
		return Event{}, newErrorf(ErrInvalidUTF8AsciiStream, "unexpected token at value position")
	}
}
