package qdrant

import (
	"fmt"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	scalexone "github.com/creastat/scalexone"
	"github.com/creastat/scalexone/vectorstore"
)

// buildQdrantFilter converts SearchFilter to Qdrant Filter. The tenant
// condition is always present.
func buildQdrantFilter(filter vectorstore.SearchFilter) (*qdrant.Filter, error) {
	if filter.TenantID == "" {
		return nil, scalexone.ErrTenantRequired
	}

	conditions := []*qdrant.Condition{
		qdrant.NewMatchKeyword(vectorstore.TenantKey, filter.TenantID),
	}

	switch len(filter.SourceIDs) {
	case 0:
	case 1:
		conditions = append(conditions, qdrant.NewMatchKeyword(vectorstore.SourceKey, filter.SourceIDs[0]))
	default:
		conditions = append(conditions, qdrant.NewMatchKeywords(vectorstore.SourceKey, filter.SourceIDs...))
	}

	for key, value := range filter.Metadata {
		if key == vectorstore.TenantKey {
			continue
		}
		conditions = append(conditions, buildMatchCondition(key, value))
	}

	return &qdrant.Filter{Must: conditions}, nil
}

// buildMatchCondition creates a match condition for a key-value pair.
func buildMatchCondition(key string, value any) *qdrant.Condition {
	switch v := value.(type) {
	case string:
		return qdrant.NewMatchKeyword(key, v)
	case int:
		return qdrant.NewMatchInt(key, int64(v))
	case int64:
		return qdrant.NewMatchInt(key, v)
	case bool:
		return qdrant.NewMatchBool(key, v)
	default:
		return qdrant.NewMatchKeyword(key, fmt.Sprintf("%v", v))
	}
}

// pointToSnippet maps a scored point to a knowledge snippet. Payload keys
// other than the well-known ones land in Metadata.
func pointToSnippet(point *qdrant.ScoredPoint) scalexone.KnowledgeSnippet {
	snippet := scalexone.KnowledgeSnippet{
		Score:    point.GetScore(),
		Metadata: make(map[string]any),
	}

	if id := point.GetId(); id != nil {
		if uuid := id.GetUuid(); uuid != "" {
			snippet.ID = uuid
		} else {
			snippet.ID = strconv.FormatUint(id.GetNum(), 10)
		}
	}

	for k, v := range point.GetPayload() {
		switch k {
		case vectorstore.ContentKey:
			snippet.Content = v.GetStringValue()
		case vectorstore.SourceKey:
			snippet.SourceID = v.GetStringValue()
		case vectorstore.DocumentKey:
			snippet.DocumentID = v.GetStringValue()
		case vectorstore.TenantKey:
		default:
			snippet.Metadata[k] = extractValue(v)
		}
	}
	return snippet
}

// extractValue extracts a Go value from a Qdrant Value.
func extractValue(v *qdrant.Value) any {
	if v == nil {
		return nil
	}

	switch val := v.Kind.(type) {
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_ListValue:
		out := make([]any, 0, len(val.ListValue.GetValues()))
		for _, item := range val.ListValue.GetValues() {
			out = append(out, extractValue(item))
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(val.StructValue.GetFields()))
		for k, item := range val.StructValue.GetFields() {
			out[k] = extractValue(item)
		}
		return out
	default:
		return nil
	}
}
