package plist

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
)

// XMLReader pulls Events from the XML plist dialect using encoding/xml's
// token-level Decoder, the same building block the teacher's
// xmlPlistParser wraps, generalized from a recursive tree build into a
// pull parser with an explicit open-collection stack.
type XMLReader struct {
	dec  *xml.Decoder
	stack []collectionKind

	seenRoot bool
	err      *Error
}

// NewXMLReader returns a Reader over r's XML-format contents.
func NewXMLReader(r io.Reader) *XMLReader {
	return &XMLReader{dec: xml.NewDecoder(r)}
}

func (xr *XMLReader) Next() (Event, *Error) {
	if xr.err != nil {
		return Event{}, xr.err
	}
	e, err := xr.next()
	if err != nil {
		xr.err = err
	}
	return e, err
}

func (xr *XMLReader) next() (Event, *Error) {
	for {
		tok, terr := xr.dec.Token()
		if terr != nil {
			if terr == io.EOF {
				if !xr.seenRoot {
					return Event{}, newError(ErrUnexpectedEOF, "xml plist contains no value")
				}
				if len(xr.stack) != 0 {
					return Event{}, newError(ErrUnclosedXMLElement, "xml plist ends with an open element")
				}
				return Event{}, ioOrEOF(io.EOF)
			}
			return Event{}, wrapIOError(terr)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			name := t.Name.Local
			if !xr.seenRoot && name == xmlTagPlist {
				continue
			}
			if name == xmlTagKey {
				text, err := xr.readCharData(name)
				if err != nil {
					return Event{}, err
				}
				return EventString(text), nil
			}
			xr.seenRoot = true
			return xr.startValue(name)

		case xml.EndElement:
			name := t.Name.Local
			if name == xmlTagPlist {
				continue
			}
			if len(xr.stack) == 0 {
				return Event{}, newErrorf(ErrUnexpectedXMLOpeningTag, "unexpected closing tag </%s>", name)
			}
			xr.stack = xr.stack[:len(xr.stack)-1]
			return EventEndCollection(), nil

		default:
			continue
		}
	}
}

func (xr *XMLReader) startValue(name string) (Event, *Error) {
	switch name {
	case xmlTagDict:
		xr.stack = append(xr.stack, inDictionary)
		return EventStartDictionary(nil), nil
	case xmlTagArray:
		xr.stack = append(xr.stack, inArray)
		return EventStartArray(nil), nil
	case xmlTagString:
		text, err := xr.readCharData(name)
		if err != nil {
			return Event{}, err
		}
		return EventString(text), nil
	case xmlTagInteger:
		text, err := xr.readCharData(name)
		if err != nil {
			return Event{}, err
		}
		i, ok := parseInteger(strings.TrimSpace(text))
		if !ok {
			return Event{}, newErrorf(ErrInvalidIntegerString, "invalid <integer> contents %q", text)
		}
		return EventInteger(i), nil
	case xmlTagReal:
		text, err := xr.readCharData(name)
		if err != nil {
			return Event{}, err
		}
		f, ok := parseXMLReal(strings.TrimSpace(text))
		if !ok {
			return Event{}, newErrorf(ErrInvalidRealString, "invalid <real> contents %q", text)
		}
		return EventReal(f), nil
	case xmlTagTrue, xmlTagFalse:
		if err := xr.dec.Skip(); err != nil {
			return Event{}, wrapIOError(err)
		}
		return EventBoolean(name == xmlTagTrue), nil
	case xmlTagData:
		text, err := xr.readCharData(name)
		if err != nil {
			return Event{}, err
		}
		b, derr := base64.StdEncoding.DecodeString(stripASCIISpace(text))
		if derr != nil {
			return Event{}, newErrorf(ErrInvalidDataString, "invalid <data> contents: %v", derr)
		}
		return EventData(b), nil
	case xmlTagDate:
		text, err := xr.readCharData(name)
		if err != nil {
			return Event{}, err
		}
		d, derr := parseDate(strings.TrimSpace(text))
		if derr != nil {
			return Event{}, derr
		}
		return EventDate(d), nil
	default:
		return Event{}, newErrorf(ErrUnknownXMLElement, "unknown xml plist element <%s>", name)
	}
}

// readCharData accumulates character data up to the matching end tag,
// mirroring the teacher's use of xmlDecoder.DecodeElement(&charData, ...)
// but without requiring the caller to have the original xml.StartElement
// in hand.
func (xr *XMLReader) readCharData(name string) (string, *Error) {
	var sb strings.Builder
	for {
		tok, err := xr.dec.Token()
		if err != nil {
			return "", ioOrEOF(err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name.Local != name {
				return "", newErrorf(ErrUnclosedXMLElement, "expected </%s>, found </%s>", name, t.Name.Local)
			}
			return sb.String(), nil
		case xml.StartElement:
			return "", newErrorf(ErrUnexpectedXMLCharactersExpectedElem, "unexpected nested <%s> inside <%s>", t.Name.Local, name)
		}
	}
}

func stripASCIISpace(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\r', '\n':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func parseXMLReal(s string) (float64, bool) {
	switch s {
	case "inf", "+inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	case "nan":
		return math.NaN(), true
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
