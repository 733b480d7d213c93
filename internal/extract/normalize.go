package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/joseph-ayodele/submittal-extractor/constants"
)

// DecodeItems parses a salvaged stage-1 payload and returns the candidate
// items with the recognized root shape. An object root unwraps an
// array-valued "products" field first, then "items"; any other object shape
// yields no items (never iterate an unrelated object's values). A parse
// failure yields no items. The item order is the order of appearance in the
// JSON; it is the only cross-stage reference and must be preserved.
func DecodeItems(data []byte) ([]any, RootShape) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, RootUnrecognized
	}
	switch root := v.(type) {
	case []any:
		return root, RootArray
	case map[string]any:
		if arr, ok := root["products"].([]any); ok {
			return arr, RootObjectProducts
		}
		if arr, ok := root["items"].([]any); ok {
			return arr, RootObjectItems
		}
		return nil, RootUnrecognized
	default:
		return nil, RootUnrecognized
	}
}

// CoerceItems converts candidate items to Product records with fallbacks.
// Exactly one Product per input item, in input order. Non-object items are
// treated as empty objects so they still yield a fully-defaulted record.
func CoerceItems(items []any) []Product {
	out := make([]Product, 0, len(items))
	for i, it := range items {
		r, ok := it.(map[string]any)
		if !ok {
			r = map[string]any{}
		}

		name := firstNonEmpty(r, "product_name", "name", "title", "product")
		if name == "" {
			name = constants.UnknownProduct
		}

		variant := firstNonEmpty(r, "variant_identifier", "series", "series_type", "type", "model")
		if variant == "" {
			variant = strconv.Itoa(i)
		}

		family := firstNonEmpty(r, "product_family", "family")
		if family == "" {
			family = constants.UnknownFamily
		}

		manufacturer := firstNonEmpty(r, "manufacturer", "brand")
		if manufacturer == "" {
			manufacturer = constants.UnknownManufacturer
		}

		out = append(out, Product{
			ProductName:       name,
			VariantIdentifier: variant,
			ProductFamily:     family,
			Manufacturer:      manufacturer,
		})
	}
	return out
}

// firstNonEmpty returns the first key whose value stringifies to something
// non-empty. Nulls, empty strings, zero numbers and false are all treated as
// absent, matching the lenient field derivation the pipeline promises.
func firstNonEmpty(r map[string]any, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t != "" {
				return t
			}
		case float64:
			if t != 0 {
				return strconv.FormatFloat(t, 'f', -1, 64)
			}
		case bool:
			if t {
				return "true"
			}
		default:
			if s := fmt.Sprintf("%v", t); s != "" {
				return s
			}
		}
	}
	return ""
}

// ParseMeta extracts the optional stage-1 fields from an object root.
// Defaults: confidence 0.7 when products exist else 0.0, clamped to [0,1];
// annotation type "unknown"; page numbers sorted and de-duplicated, dropped
// wholesale if any entry is not an integer-valued number.
func ParseMeta(data []byte, productCount int) Meta {
	meta := Meta{AnnotationType: constants.AnnotationUnknown}

	var root map[string]any
	_ = json.Unmarshal(data, &root)

	conf := float32(0)
	if v, ok := root["confidence_score"].(float64); ok && v != 0 {
		conf = float32(v)
	} else if productCount > 0 {
		conf = 0.7
	}
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	meta.ConfidenceScore = conf

	if v, ok := root["annotation_type"].(string); ok {
		if at, known := constants.Canonicalize(v); known {
			meta.AnnotationType = at
		}
	}

	if raw, ok := root["page_numbers"].([]any); ok {
		seen := make(map[int]struct{}, len(raw))
		pages := make([]int, 0, len(raw))
		for _, p := range raw {
			f, ok := p.(float64)
			if !ok || f != float64(int(f)) {
				pages = nil
				break
			}
			n := int(f)
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			pages = append(pages, n)
		}
		sort.Ints(pages)
		meta.PageNumbers = pages
	}

	return meta
}
