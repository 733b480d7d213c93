package extract

import "github.com/joseph-ayodele/submittal-extractor/constants"

// Product is the normalized record shape for one candidate. All four fields
// are always non-empty strings after normalization; it is never mutated once
// built.
type Product struct {
	ProductName       string `json:"product_name"`
	VariantIdentifier string `json:"variant_identifier"`
	ProductFamily     string `json:"product_family"`
	Manufacturer      string `json:"manufacturer"`
}

// RootShape classifies the root of a salvaged stage-1 payload. The shape is
// decided once by DecodeItems and consumed uniformly downstream.
type RootShape int

const (
	RootUnrecognized RootShape = iota
	RootArray
	RootObjectProducts
	RootObjectItems
)

func (s RootShape) String() string {
	switch s {
	case RootArray:
		return "array"
	case RootObjectProducts:
		return "object:products"
	case RootObjectItems:
		return "object:items"
	default:
		return "unrecognized"
	}
}

// Meta carries the optional stage-1 payload fields beyond the product list.
type Meta struct {
	ConfidenceScore float32                  `json:"confidence_score"`
	AnnotationType  constants.AnnotationType `json:"annotation_type"`
	PageNumbers     []int                    `json:"page_numbers"`
}
