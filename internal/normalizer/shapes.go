package normalizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"assetsync-service/internal/domain"

	"github.com/PaesslerAG/jsonpath"
)

// shape tags the top-level form of an upstream payload.
type shape int

const (
	shapeEmpty shape = iota
	shapeArray
	shapeObject
	shapeScalar
)

func sniff(raw json.RawMessage) shape {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return shapeEmpty
	}
	switch b[0] {
	case '[':
		return shapeArray
	case '{':
		return shapeObject
	default:
		return shapeScalar
	}
}

// singleton returns the first element of an array payload, or a bare object as is.
// Empty arrays, empty objects and null yield ok=false.
func singleton(raw json.RawMessage) (json.RawMessage, bool, error) {
	switch sniff(raw) {
	case shapeArray:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, false, fmt.Errorf("decode array: %w", err)
		}
		if len(items) == 0 {
			return nil, false, nil
		}
		return singleton(items[0])
	case shapeObject:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, false, fmt.Errorf("decode object: %w", err)
		}
		if len(obj) == 0 {
			return nil, false, nil
		}
		return raw, true, nil
	case shapeScalar:
		return nil, false, fmt.Errorf("unexpected scalar payload")
	default:
		return nil, false, nil
	}
}

// arrayOf unwraps a list payload. It accepts a bare array, an object wrapping an array under
// one of wrapKeys, or a single object that is treated as a one-element list.
func arrayOf(raw json.RawMessage, wrapKeys ...string) (json.RawMessage, error) {
	switch sniff(raw) {
	case shapeArray:
		return raw, nil
	case shapeObject:
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		for _, k := range wrapKeys {
			v, err := jsonpath.Get("$."+k, doc)
			if err != nil {
				continue
			}
			if list, ok := v.([]any); ok {
				return json.Marshal(list)
			}
		}
		if m, ok := doc.(map[string]any); ok && len(m) == 0 {
			return nil, nil
		}
		return json.Marshal([]any{doc})
	case shapeScalar:
		return nil, fmt.Errorf("unexpected scalar payload")
	default:
		return nil, nil
	}
}

func decodeHistory(raw json.RawMessage) ([]domain.PriceHistoryPoint, error) {
	list, err := arrayOf(raw, "historical")
	if err != nil || list == nil {
		return nil, err
	}
	points, err := decodeEach[domain.PriceHistoryPoint](list, "history")
	if points == nil {
		return nil, err
	}
	out := points[:0]
	for _, p := range points {
		if p.Date.IsZero() {
			continue
		}
		if p.AdjClose.Valid {
			p.Close = p.AdjClose.Value
		}
		out = append(out, p)
	}
	domain.SortHistoryAsc(out)
	return out, err
}

func decodeDCFSeries(raw json.RawMessage) ([]domain.DCFEstimate, error) {
	list, err := arrayOf(raw, "historicalDCF", "historical")
	if err != nil || list == nil {
		return nil, err
	}
	return decodeEach[domain.DCFEstimate](list, "dcf series")
}

// Revenue segmentation arrives in one of two shapes:
//
//	[{"date":"2024-09-28","data":{"iPhone":201183000000}}]
//	[{"2024-09-28":{"iPhone":201183000000}}]
type datedSegment struct {
	Date domain.Date                 `json:"date"`
	Data map[string]domain.FlexFloat `json:"data"`
}

func decodeRevenue(raw json.RawMessage) ([]domain.RevenueSegment, error) {
	list, err := arrayOf(raw)
	if err != nil || list == nil {
		return nil, err
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decode revenue: %w", err)
	}
	var out []domain.RevenueSegment
	for _, item := range items {
		if _, ok := item["data"]; ok {
			b, _ := json.Marshal(item)
			var ds datedSegment
			if err := json.Unmarshal(b, &ds); err != nil {
				return nil, fmt.Errorf("decode dated revenue: %w", err)
			}
			out = append(out, domain.RevenueSegment{Date: ds.Date, Segments: validValues(ds.Data)})
			continue
		}
		for k, v := range item {
			d, err := domain.ParseDate(k)
			if err != nil {
				continue
			}
			var seg map[string]domain.FlexFloat
			if err := json.Unmarshal(v, &seg); err != nil {
				return nil, fmt.Errorf("decode keyed revenue %s: %w", k, err)
			}
			out = append(out, domain.RevenueSegment{Date: d, Segments: validValues(seg)})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, nil
}

func validValues(in map[string]domain.FlexFloat) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		if v.Valid {
			out[k] = v.Value
		}
	}
	return out
}

// rawList keeps a list payload opaque. Empty lists become nil.
func rawList(raw json.RawMessage) (json.RawMessage, error) {
	list, err := arrayOf(raw)
	if err != nil || list == nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}
	return list, nil
}

// PartialError reports list elements that were dropped while the rest decoded.
type PartialError struct {
	What    string
	Skipped int
	First   error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("decode %s: skipped %d malformed item(s): %v", e.What, e.Skipped, e.First)
}

// decodeEach decodes a JSON array element by element. Elements that fail are dropped and
// counted in a *PartialError returned next to the ones that decoded. Only a payload that is
// not an array at all yields a nil slice with a plain error.
func decodeEach[T any](list json.RawMessage, what string) ([]T, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", what, err)
	}
	out := make([]T, 0, len(items))
	var partial *PartialError
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			if partial == nil {
				partial = &PartialError{What: what, First: err}
			}
			partial.Skipped++
			continue
		}
		out = append(out, v)
	}
	if partial != nil {
		return out, partial
	}
	return out, nil
}

// GradesHistory decodes the analyst-grade history payload, newest first. Malformed entries
// are dropped and reported through a *PartialError alongside the rest.
func GradesHistory(raw json.RawMessage) ([]domain.GradeChange, error) {
	list, err := arrayOf(raw)
	if err != nil || list == nil {
		return nil, err
	}
	out, err := decodeEach[domain.GradeChange](list, "grades history")
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out, err
}
