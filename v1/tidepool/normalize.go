package tidepool

import (
	"encoding/json"
	"strings"
	"time"
)

// The backend has shipped several response layouts over time. Each
// normalizer below is an ordered table of shapes; the first shape that
// recognizes the decoded body wins. Key priority inside a shape is fixed and
// must not be reordered.

// shape recognizes one wire form of a response and converts it.
type shape[T any] struct {
	name      string
	normalize func(body any, fallbackNamespace string) (T, bool)
}

func normalizeWith[T any](shapes []shape[T], what string, body any, fallbackNamespace string) (T, error) {
	for _, s := range shapes {
		if out, ok := s.normalize(body, fallbackNamespace); ok {
			return out, nil
		}
	}
	var zero T
	return zero, &Error{Kind: KindClient, Message: "unexpected response shape for " + what, RawBody: body}
}

var (
	namespaceKeys    = []string{"namespace", "ns"}
	approxCountKeys  = []string{"approxCount", "approx_count", "count"}
	dimensionKeys    = []string{"dimensions", "dims", "dimension"}
	pendingKeys      = []string{"pendingCompaction", "pending_compaction", "pending"}
	namespaceListKey = []string{"namespaces", "namespace_list", "namespaceList"}
	scoreKeys        = []string{"score", "dist", "distance"}
	lastRunKeys      = []string{"lastRun", "last_run"}
)

// timestampLayouts are tried in order when parsing lastRun.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

var queryResponseShapes = []shape[*QueryResponse]{
	{
		name: "bare result list",
		normalize: func(body any, fallback string) (*QueryResponse, bool) {
			list, ok := body.([]any)
			if !ok {
				return nil, false
			}
			results, ok := normalizeResults(list)
			if !ok {
				return nil, false
			}
			return &QueryResponse{Namespace: fallback, Results: results}, true
		},
	},
	{
		name:      "record with results",
		normalize: resultRecordShape("results"),
	},
	{
		name:      "record with vectors",
		normalize: resultRecordShape("vectors"),
	},
}

func resultRecordShape(key string) func(any, string) (*QueryResponse, bool) {
	return func(body any, fallback string) (*QueryResponse, bool) {
		record, ok := body.(map[string]any)
		if !ok {
			return nil, false
		}
		list, ok := record[key].([]any)
		if !ok {
			return nil, false
		}
		results, ok := normalizeResults(list)
		if !ok {
			return nil, false
		}
		ns := firstString(record, namespaceKeys...)
		if ns == "" {
			ns = fallback
		}
		return &QueryResponse{Namespace: ns, Results: results}, true
	}
}

var namespaceInfoShapes = []shape[*NamespaceInfo]{
	{
		name: "namespace record",
		normalize: func(body any, fallback string) (*NamespaceInfo, bool) {
			record, ok := body.(map[string]any)
			if !ok {
				return nil, false
			}
			info := namespaceInfoFromRecord(record)
			if info.Namespace == "" {
				info.Namespace = fallback
			}
			return &info, true
		},
	},
}

var namespaceListShapes = []shape[[]NamespaceInfo]{
	{
		name: "bare namespace list",
		normalize: func(body any, _ string) ([]NamespaceInfo, bool) {
			list, ok := body.([]any)
			if !ok {
				return nil, false
			}
			return namespaceInfoList(list)
		},
	},
	{
		name: "wrapped namespace list",
		normalize: func(body any, _ string) ([]NamespaceInfo, bool) {
			record, ok := body.(map[string]any)
			if !ok {
				return nil, false
			}
			for _, key := range namespaceListKey {
				if list, ok := record[key].([]any); ok {
					return namespaceInfoList(list)
				}
			}
			return nil, false
		},
	},
}

var statusShapes = []shape[*NamespaceStatus]{
	{
		name: "status record",
		normalize: func(body any, _ string) (*NamespaceStatus, bool) {
			record, ok := body.(map[string]any)
			if !ok {
				return nil, false
			}
			return &NamespaceStatus{
				LastRun:    parseTimestamp(firstValue(record, lastRunKeys...)),
				WALFiles:   firstInt(record, "walFiles", "wal_files"),
				WALEntries: firstInt(record, "walEntries", "wal_entries"),
				Segments:   firstInt(record, "segments"),
				TotalVecs:  firstInt(record, "totalVecs", "total_vecs"),
				Dimensions: firstInt(record, "dimensions"),
			}, true
		},
	},
}

func normalizeQueryResponse(body any, fallbackNamespace string) (*QueryResponse, error) {
	return normalizeWith(queryResponseShapes, "query", body, fallbackNamespace)
}

func normalizeNamespaceInfo(body any, fallbackNamespace string) (*NamespaceInfo, error) {
	return normalizeWith(namespaceInfoShapes, "namespace info", body, fallbackNamespace)
}

func normalizeNamespaceList(body any) ([]NamespaceInfo, error) {
	return normalizeWith(namespaceListShapes, "namespace list", body, "")
}

func normalizeStatus(body any) (*NamespaceStatus, error) {
	return normalizeWith(statusShapes, "status", body, "")
}

// normalizeResults converts a list of result records. Score is read from
// score, then dist, then distance, defaulting to 0.
func normalizeResults(list []any) ([]VectorResult, bool) {
	results := make([]VectorResult, 0, len(list))
	for _, item := range list {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		score, _ := firstNumber(record, scoreKeys...)
		results = append(results, VectorResult{
			ID:         firstString(record, "id"),
			Score:      float32(score),
			Vector:     toVector(record["vector"]),
			Attributes: toAttributes(record["attributes"]),
		})
	}
	return results, true
}

func namespaceInfoList(list []any) ([]NamespaceInfo, bool) {
	out := make([]NamespaceInfo, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, NamespaceInfo{Namespace: v})
		case map[string]any:
			out = append(out, namespaceInfoFromRecord(v))
		default:
			return nil, false
		}
	}
	return out, true
}

func namespaceInfoFromRecord(record map[string]any) NamespaceInfo {
	count, _ := firstNumber(record, approxCountKeys...)
	dims, _ := firstNumber(record, dimensionKeys...)
	info := NamespaceInfo{
		Namespace:   firstString(record, namespaceKeys...),
		ApproxCount: int64(count),
		Dimensions:  int(dims),
	}
	for _, key := range pendingKeys {
		if b, ok := record[key].(bool); ok {
			info.PendingCompaction = &b
			break
		}
	}
	return info
}

// parseTimestamp never fails: anything unreadable is reported as unknown (nil).
func parseTimestamp(v any) *time.Time {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func firstValue(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := record[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

func firstString(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := record[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstNumber(record map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := toFloat(record[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func firstInt(record map[string]any, keys ...string) int {
	f, _ := firstNumber(record, keys...)
	return int(f)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toVector(v any) Vector {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make(Vector, 0, len(list))
	for _, item := range list {
		f, ok := toFloat(item)
		if !ok {
			return nil
		}
		out = append(out, float32(f))
	}
	return out
}

func toAttributes(v any) Attributes {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return Attributes(m)
}
