package core

import (
	"encoding/json"
	"fmt"
)

// Flatten turns a nested document into a flat mapping from dotted path to
// string. Nested maps recurse with path concatenation; lists are serialized
// to a single JSON string so a list value stays one field; nil values become
// empty strings. A nil or empty document yields an empty mapping.
func Flatten(doc map[string]any) map[string]string {
	out := make(map[string]string, len(doc))
	flattenInto(out, "", doc)
	return out
}

func flattenInto(out map[string]string, parent string, doc map[string]any) {
	for k, v := range doc {
		path := k
		if parent != "" {
			path = parent + "." + k
		}

		switch val := v.(type) {
		case map[string]any:
			flattenInto(out, path, val)
		case []any:
			data, err := json.Marshal(val)
			if err != nil {
				out[path] = fmt.Sprintf("%v", val)
				continue
			}
			out[path] = string(data)
		case nil:
			out[path] = ""
		case string:
			out[path] = val
		default:
			out[path] = fmt.Sprintf("%v", val)
		}
	}
}
