package plist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegerAsSignedAndUnsignedConversion(t *testing.T) {
	neg := NewInteger(-1)
	_, ok := neg.AsUnsigned()
	assert.False(t, ok)

	big := NewUnsignedInteger(1 << 63)
	_, ok = big.AsSigned()
	assert.False(t, ok)

	small := NewUnsignedInteger(5)
	s, ok := small.AsSigned()
	assert.True(t, ok)
	assert.Equal(t, int64(5), s)
}

func TestIntegerEqualAcrossSignFlag(t *testing.T) {
	a := NewInteger(100)
	b := NewUnsignedInteger(100)
	assert.True(t, a.Equal(b))

	c := NewInteger(-1)
	d := NewUnsignedInteger(1<<64 - 1)
	assert.False(t, c.Equal(d))
}

func TestParseIntegerDecimalAndHex(t *testing.T) {
	i, ok := parseInteger("-42")
	assert.True(t, ok)
	s, _ := i.AsSigned()
	assert.Equal(t, int64(-42), s)

	i, ok = parseInteger("0xFF")
	assert.True(t, ok)
	u, _ := i.AsUnsigned()
	assert.Equal(t, uint64(255), u)

	_, ok = parseInteger("-0x1")
	assert.False(t, ok)

	_, ok = parseInteger("not a number")
	assert.False(t, ok)
}

func TestMinimumByteWidth(t *testing.T) {
	cases := []struct {
		n     uint64
		width int
	}{
		{0, 1},
		{0xff, 1},
		{0x100, 2},
		{0xffff, 2},
		{0x10000, 4},
		{0xffffffff, 4},
		{0x100000000, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.width, minimumByteWidth(c.n))
	}
}
