package constants

// Placeholder values used when the model omits a field. These exact strings
// are part of the output contract; downstream consumers key off them.
const (
	UnknownProduct      = "Unknown Product"
	UnknownFamily       = "Unknown Family"
	UnknownManufacturer = "Unknown Manufacturer"
)

// AnnotationType classifies the human-made selection mark found on a page.
type AnnotationType string

const (
	AnnotationHighlight AnnotationType = "highlight"
	AnnotationBox       AnnotationType = "box"
	AnnotationCircle    AnnotationType = "circle"
	AnnotationNone      AnnotationType = "none"
	AnnotationUnknown   AnnotationType = "unknown"
)

// Canonicalize maps a free-form annotation label to a known AnnotationType.
func Canonicalize(label string) (AnnotationType, bool) {
	switch AnnotationType(label) {
	case AnnotationHighlight, AnnotationBox, AnnotationCircle, AnnotationNone, AnnotationUnknown:
		return AnnotationType(label), true
	}
	return AnnotationUnknown, false
}
