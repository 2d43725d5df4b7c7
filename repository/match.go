package repository

import (
	"math"
	"reflect"
	"sort"
	"strings"
)

// In-process query evaluation shared by the memory and SQLite backends.
// Semantics follow the Mongo translation in mongo_store.go.

func matches(doc Document, f Filter) bool {
	for field, want := range f.Equals {
		got, ok := doc[field]
		if !ok || !valuesEqual(got, want) {
			return false
		}
	}
	for field, sub := range f.Contains {
		s, ok := doc[field].(string)
		if !ok || !strings.Contains(strings.ToLower(s), strings.ToLower(sub)) {
			return false
		}
	}
	return true
}

func valuesEqual(a, b interface{}) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

func less(a, b interface{}) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	switch {
	case aNum && bNum:
		return fa < fb
	case aNum != bNum:
		// numbers sort before everything else, as in Mongo
		return aNum
	}
	sa, _ := a.(string)
	sb, _ := b.(string)
	return sa < sb
}

func selectDocuments(docs []Document, f Filter, opts FindOptions) []Document {
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, f) {
			out = append(out, copyDocument(doc))
		}
	}
	if opts.SortBy != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i][opts.SortBy], out[j][opts.SortBy])
		})
	}
	if opts.Limit > 0 && int64(len(out)) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out
}

// applySet merges set into doc and reports whether any field changed.
func applySet(doc, set Document) bool {
	changed := false
	for field, value := range set {
		if current, ok := doc[field]; ok && valuesEqual(current, value) {
			continue
		}
		doc[field] = value
		changed = true
	}
	return changed
}

func copyDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

// normalizeNumbers turns whole JSON numbers back into integers so decoded
// documents carry the same types the Mongo backend returns.
func normalizeNumbers(doc Document) {
	for k, v := range doc {
		if f, ok := v.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			doc[k] = int64(f)
		}
	}
}
