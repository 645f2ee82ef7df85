package plist

// RawValue holds an already-decoded Value so a Marshal/Unmarshal caller can
// delay interpreting part of a document (or precompute part of one),
// retargeted from the teacher's RawPlistValue at Value instead of the
// teacher's internal plistValue.
type RawValue struct {
	Value Value
}

// UnmarshalPlist stores src directly, deferring interpretation.
func (r *RawValue) UnmarshalPlist(src Value) error {
	r.Value = src
	return nil
}

// MarshalPlist returns the held Value unchanged.
func (r RawValue) MarshalPlist() (Value, error) {
	return r.Value, nil
}
