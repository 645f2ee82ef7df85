package plist

// xmlDOCTYPE is the fixed DOCTYPE declaration every plist XML document
// carries, unchanged from the teacher's xmlDOCTYPE constant.
const xmlDOCTYPE = `DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd"`

const (
	xmlTagPlist      = "plist"
	xmlTagDict       = "dict"
	xmlTagArray      = "array"
	xmlTagKey        = "key"
	xmlTagString     = "string"
	xmlTagInteger    = "integer"
	xmlTagReal       = "real"
	xmlTagTrue       = "true"
	xmlTagFalse      = "false"
	xmlTagData       = "data"
	xmlTagDate       = "date"
)
