package plist

import (
	"encoding/base64"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
)

// XMLWriter emits the XML encoding via encoding/xml.Encoder, the same
// building block the teacher's xmlPlistGenerator uses. Because XML can be
// streamed token-by-token, XMLWriter needs only the shared writerState (for
// grammar enforcement) plus the encoder itself — no buffering tree like
// BinaryWriter's.
type XMLWriter struct {
	enc   *xml.Encoder
	w     io.Writer
	state writerState
	opts  xmlWriterOptions

	wroteHeader bool
	wroteValue  bool
	err         *Error
}

// NewXMLWriter returns a Writer that serializes exactly one value to w in
// the XML plist dialect.
func NewXMLWriter(w io.Writer) *XMLWriter {
	xw := &XMLWriter{w: w, opts: defaultXMLWriterOptions()}
	xw.enc = xml.NewEncoder(w)
	xw.applyIndent()
	return xw
}

func (xw *XMLWriter) applyIndent() {
	if xw.opts.indentCount <= 0 {
		xw.enc.Indent("", "")
		return
	}
	xw.enc.Indent("", strings.Repeat(string(xw.opts.indentChar), xw.opts.indentCount))
}

func (xw *XMLWriter) sealedWriter() {}

func (xw *XMLWriter) ensureHeader() *Error {
	if xw.wroteHeader {
		return nil
	}
	xw.wroteHeader = true
	if xw.opts.omitRoot {
		return nil
	}
	if _, err := xw.w.Write([]byte(xml.Header)); err != nil {
		return wrapIOError(err)
	}
	if err := xw.enc.EncodeToken(xml.Directive(xmlDOCTYPE)); err != nil {
		return wrapIOError(err)
	}
	return xw.enc.EncodeToken(plistStartElement())
}

func plistStartElement() xml.StartElement {
	return xml.StartElement{
		Name: xml.Name{Local: xmlTagPlist},
		Attr: []xml.Attr{{Name: xml.Name{Local: "version"}, Value: "1.0"}},
	}
}

func (xw *XMLWriter) guardValue() *Error {
	if xw.wroteValue && xw.state.depth() == 0 {
		return newError(ErrUnexpectedEventType, "xml writer already wrote its single top-level value")
	}
	if err := xw.state.beforeValue(); err != nil {
		return err
	}
	return xw.ensureHeader()
}

func (xw *XMLWriter) afterTopLevelValue() *Error {
	// Every value ends here, so this is where expectingKey is recomputed.
	xw.state.sawValue()
	if xw.state.depth() == 0 {
		xw.wroteValue = true
		if !xw.opts.omitRoot {
			if err := xw.enc.EncodeToken(plistStartElement().End()); err != nil {
				return wrapIOError(err)
			}
		}
		if err := xw.enc.Flush(); err != nil {
			return wrapIOError(err)
		}
	}
	return nil
}

func (xw *XMLWriter) WriteStartArray(len *uint64) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	xw.state.pushArray()
	if err := xw.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: xmlTagArray}}); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func (xw *XMLWriter) WriteStartDictionary(len *uint64) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	xw.state.pushDictionary()
	if err := xw.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: xmlTagDict}}); err != nil {
		return wrapIOError(err)
	}
	return nil
}

func (xw *XMLWriter) WriteEndCollection() *Error {
	wasArray := false
	if len(xw.state.stack) > 0 {
		wasArray = xw.state.stack[len(xw.state.stack)-1] == inArray
	}
	if err := xw.state.pop(); err != nil {
		return err
	}
	tag := xmlTagDict
	if wasArray {
		tag = xmlTagArray
	}
	if err := xw.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: tag}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteString(s string) *Error {
	if xw.state.expectingKey {
		if err := xw.enc.EncodeElement(s, xml.StartElement{Name: xml.Name{Local: xmlTagKey}}); err != nil {
			return wrapIOError(err)
		}
		xw.state.sawKey()
		return nil
	}
	if err := xw.guardValue(); err != nil {
		return err
	}
	if err := xw.enc.EncodeElement(s, xml.StartElement{Name: xml.Name{Local: xmlTagString}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteBoolean(b bool) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	tag := xmlTagFalse
	if b {
		tag = xmlTagTrue
	}
	if err := xw.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: tag}}); err != nil {
		return wrapIOError(err)
	}
	if err := xw.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: tag}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteInteger(i Integer) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	if err := xw.enc.EncodeElement(i.String(), xml.StartElement{Name: xml.Name{Local: xmlTagInteger}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteReal(f float64) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	text := strconv.FormatFloat(f, 'g', -1, 64)
	switch {
	case math.IsInf(f, 1):
		text = "inf"
	case math.IsInf(f, -1):
		text = "-inf"
	case math.IsNaN(f):
		text = "nan"
	}
	if err := xw.enc.EncodeElement(text, xml.StartElement{Name: xml.Name{Local: xmlTagReal}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteData(b []byte) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	encoded := wrapBase64(base64.StdEncoding.EncodeToString(b), 68)
	// Written as a CharData token rather than via EncodeElement, which would
	// escape the line breaks as &#xA;.
	if err := xw.enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: xmlTagData}}); err != nil {
		return wrapIOError(err)
	}
	if err := xw.enc.EncodeToken(xml.CharData(encoded)); err != nil {
		return wrapIOError(err)
	}
	if err := xw.enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: xmlTagData}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

// wrapBase64 breaks s into lines of at most width characters, matching the
// line-wrapped <data> bodies Apple's own plist writers produce.
func wrapBase64(s string, width int) string {
	if len(s) <= width {
		return s
	}
	var b strings.Builder
	for len(s) > width {
		b.WriteString(s[:width])
		b.WriteByte('\n')
		s = s[width:]
	}
	b.WriteString(s)
	return b.String()
}

func (xw *XMLWriter) WriteDate(d Date) *Error {
	if err := xw.guardValue(); err != nil {
		return err
	}
	if err := xw.enc.EncodeElement(d.String(), xml.StartElement{Name: xml.Name{Local: xmlTagDate}}); err != nil {
		return wrapIOError(err)
	}
	return xw.afterTopLevelValue()
}

func (xw *XMLWriter) WriteUid(u Uid) *Error {
	return newError(ErrUidNotSupportedInXMLPlist, "the XML plist format has no representation for Uid")
}
