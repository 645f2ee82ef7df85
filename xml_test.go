package plist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXMLRoundTripsDictionaryOfScalars(t *testing.T) {
	d := NewDictionary()
	d.Insert("name", String("James"))
	d.Insert("age", Int(42))
	d.Insert("active", Bool(true))
	d.Insert("weight", Real(72.5))
	d.Insert("blob", Data([]byte{0xde, 0xad, 0xbe, 0xef}))
	d.Insert("born", DateValue(NewDate(mustParseDate(t, "1990-05-01T00:00:00Z"))))
	original := DictionaryValue(d)

	var buf bytes.Buffer
	w := NewXMLWriter(&buf)
	require.Nil(t, WriteValue(w, original))

	got, err := Read(NewXMLReader(bytes.NewReader(buf.Bytes())))
	require.Nil(t, err)
	assert.True(t, original.Equal(got))
	assert.Contains(t, buf.String(), "<plist version=\"1.0\">")
	assert.Contains(t, buf.String(), "<key>name</key>")
}

func TestXMLWriterUidUnsupported(t *testing.T) {
	var buf bytes.Buffer
	w := NewXMLWriter(&buf)
	err := w.WriteUid(Uid(1))
	require.NotNil(t, err)
	assert.Equal(t, ErrUidNotSupportedInXMLPlist, err.Kind())
}

func TestXMLWriterRejectsSecondTopLevelValue(t *testing.T) {
	var buf bytes.Buffer
	w := NewXMLWriter(&buf)
	require.Nil(t, w.WriteString("first"))
	err := w.WriteString("second")
	require.NotNil(t, err)
}

func TestXMLReaderRejectsKeyWithoutValue(t *testing.T) {
	const doc = `<?xml version="1.0"?><plist version="1.0"><dict><key>a</key></dict></plist>`
	r := NewXMLReader(strings.NewReader(doc))
	_, err := Read(r)
	require.NotNil(t, err)
}

func TestXMLReaderParsesSpecialReals(t *testing.T) {
	const doc = `<?xml version="1.0"?><plist version="1.0"><array><real>inf</real><real>-inf</real><real>nan</real></array></plist>`
	v, err := Read(NewXMLReader(strings.NewReader(doc)))
	require.Nil(t, err)
	children, _ := v.ArrayValueOf()
	require.Len(t, children, 3)
	f0, _ := children[0].RealValue()
	assert.True(t, f0 > 0 && f0*2 == f0) // +Inf
	f2, _ := children[2].RealValue()
	assert.True(t, f2 != f2) // NaN
}

func TestNewXMLWriterWithOptionsOmitsRootElement(t *testing.T) {
	var buf bytes.Buffer
	w := NewXMLWriterWithOptions(&buf, WithoutRootElement())
	require.Nil(t, WriteValue(w, String("bare")))
	assert.NotContains(t, buf.String(), "<plist")
	assert.Contains(t, buf.String(), "<string>bare</string>")
}

func TestXMLReaderWidensUnsignedAndParsesNetBSDHex(t *testing.T) {
	const doc = `<?xml version="1.0"?><plist version="1.0"><dict>` +
		`<key>BiggestNumber</key><integer>18446744073709551615</integer>` +
		`<key>SmallestNumber</key><integer>-9223372036854775808</integer>` +
		`<key>HexademicalNumber</key><integer>0xDEADBEEF</integer>` +
		`<key>IsTrue</key><true/>` +
		`<key>IsNotFalse</key><false/>` +
		`<key>Blank</key><string></string>` +
		`</dict></plist>`
	v, err := Read(NewXMLReader(strings.NewReader(doc)))
	require.Nil(t, err)

	d, ok := v.DictionaryValueOf()
	require.True(t, ok)

	biggest, ok := d.Get("BiggestNumber")
	require.True(t, ok)
	bi, _ := biggest.IntegerValueOf()
	u, ok := bi.AsUnsigned()
	require.True(t, ok, "18446744073709551615 must widen through the unsigned path")
	assert.Equal(t, uint64(18446744073709551615), u)
	_, signedOK := bi.AsSigned()
	assert.False(t, signedOK)

	smallest, ok := d.Get("SmallestNumber")
	require.True(t, ok)
	si, _ := smallest.IntegerValueOf()
	s, ok := si.AsSigned()
	require.True(t, ok)
	assert.Equal(t, int64(-9223372036854775808), s)

	hex, ok := d.Get("HexademicalNumber")
	require.True(t, ok)
	hi, _ := hex.IntegerValueOf()
	hu, ok := hi.AsUnsigned()
	require.True(t, ok)
	assert.Equal(t, uint64(0xDEADBEEF), hu)

	isTrue, ok := d.Get("IsTrue")
	require.True(t, ok)
	tb, _ := isTrue.BoolValue()
	assert.True(t, tb)

	isNotFalse, ok := d.Get("IsNotFalse")
	require.True(t, ok)
	fb, _ := isNotFalse.BoolValue()
	assert.False(t, fb)

	blank, ok := d.Get("Blank")
	require.True(t, ok)
	bs, _ := blank.StringValue()
	assert.Equal(t, "", bs)
}

func TestWrapBase64SplitsLongLines(t *testing.T) {
	s := strings.Repeat("A", 200)
	wrapped := wrapBase64(s, 68)
	lines := strings.Split(wrapped, "\n")
	for _, l := range lines[:len(lines)-1] {
		assert.Len(t, l, 68)
	}
	assert.Equal(t, s, strings.Join(lines, ""))
}
