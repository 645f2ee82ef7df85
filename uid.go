package plist

import "strconv"

// Uid is an opaque unsigned 64-bit identifier used by Apple's
// keyed-archiver payloads. It is a first-class type in the binary format
// only: it has no XML representation (spec.md 4.3), and the ASCII reader
// never produces one.
type Uid uint64

// String renders the Uid's numeric value.
func (u Uid) String() string {
	return strconv.FormatUint(uint64(u), 10)
}
