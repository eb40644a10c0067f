package wardly

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// maxInlineItems is the size threshold below which a sequence's full
// contents are included in the report.
const maxInlineItems = 10

// payloadKind is the shape of a tool payload, resolved once per result
// instead of re-inspected ad hoc.
type payloadKind int

const (
	kindScalar payloadKind = iota
	kindArray
	kindKeyed
)

// FormatReport renders heterogeneous tool results into a uniform
// human-readable report: sequences report their length (and contents below
// the size threshold), keyed records report per-key counts, scalars print
// verbatim. Failures collect into a trailing error block.
func FormatReport(results []ToolResult) string {
	var b strings.Builder
	var failed []ToolResult
	for _, res := range results {
		if res.Err != nil {
			failed = append(failed, res)
			continue
		}
		writePayload(&b, res.ToolName, res.Payload)
	}
	if len(failed) > 0 {
		b.WriteString("Errors:\n")
		for _, res := range failed {
			fmt.Fprintf(&b, "  - %s: %v\n", res.ToolName, res.Err)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func writePayload(b *strings.Builder, label string, payload any) {
	kind, items, rec := classifyPayload(payload)
	switch kind {
	case kindArray:
		fmt.Fprintf(b, "%s: %d records\n", label, len(items))
		writeItems(b, items)
	case kindKeyed:
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if sub, _, _ := classifyPayload(rec[k]); sub == kindArray {
				_, items, _ := classifyPayload(rec[k])
				fmt.Fprintf(b, "%s.%s: %d records\n", label, k, len(items))
				writeItems(b, items)
				continue
			}
			fmt.Fprintf(b, "%s.%s: %s\n", label, k, renderValue(rec[k]))
		}
	default:
		fmt.Fprintf(b, "%s: %s\n", label, renderValue(payload))
	}
}

func writeItems(b *strings.Builder, items []any) {
	if len(items) > maxInlineItems {
		return
	}
	for _, item := range items {
		fmt.Fprintf(b, "  %s\n", renderValue(item))
	}
}

// classifyPayload resolves a payload into the Array/KeyedRecord/Scalar
// union. Typed record slices from in-process backends classify as arrays
// just like decoded JSON ones.
func classifyPayload(v any) (payloadKind, []any, map[string]any) {
	switch p := v.(type) {
	case []any:
		return kindArray, p, nil
	case []map[string]any:
		items := make([]any, len(p))
		for i, it := range p {
			items[i] = it
		}
		return kindArray, items, nil
	case map[string]any:
		return kindKeyed, nil, p
	default:
		return kindScalar, nil, nil
	}
}

func renderValue(v any) string {
	switch s := v.(type) {
	case nil:
		return "null"
	case string:
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
