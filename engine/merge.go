package engine

import (
	"encoding/json"
	"fmt"

	fx "github.com/gofhir/extractor"
)

// dedupe collapses duplicates produced by overlapping windows. Two
// results are duplicates when their reconstructed instances carry the
// same content. The earlier window's copy is kept, except that a
// grounded copy always beats an ungrounded one.
func dedupe(list []*fx.ExtractionResult) []*fx.ExtractionResult {
	if len(list) < 2 {
		return list
	}

	byKey := make(map[string]int, len(list))
	out := make([]*fx.ExtractionResult, 0, len(list))
	for _, item := range list {
		key := contentKey(item)
		idx, ok := byKey[key]
		if !ok {
			byKey[key] = len(out)
			out = append(out, item)
			continue
		}
		kept := out[idx]
		if better(item, kept) {
			out[idx] = item
		}
	}
	return out
}

// better reports whether a should replace b among duplicates.
func better(a, b *fx.ExtractionResult) bool {
	ga, gb := a.Grounded(), b.Grounded()
	if ga != gb {
		return ga
	}
	return a.WindowIndex < b.WindowIndex
}

// contentKey derives a duplicate-detection key from the reconstructed
// instance. json.Marshal sorts map keys, so equal content always keys
// equally regardless of insertion order.
func contentKey(r *fx.ExtractionResult) string {
	data, err := json.Marshal(r.Instance)
	if err != nil {
		// Unmarshalable instances never collide.
		return fmt.Sprintf("%s|%d|%p", r.ResourceType, r.WindowIndex, r)
	}
	return r.ResourceType + "|" + string(data)
}
