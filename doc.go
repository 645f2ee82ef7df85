// Package plist implements encoding and decoding of Apple's "property list" format.
//
// Property lists are persisted as one of three on-disk encodings: a binary
// container format, an XML dialect, or the legacy ASCII/OpenStep textual
// format. All three are unified behind a single event stream (see Reader and
// Writer); Value and its companions (Integer, Date, Uid, Dictionary) give a
// tree-shaped view built on top of that stream.
//
// Readers are obtained with NewReader (which auto-detects the encoding),
// NewBinaryReader, NewXMLReader or NewASCIIReader. Writers are obtained with
// NewBinaryWriter or NewXMLWriter; the ASCII format is read-only here.
package plist
