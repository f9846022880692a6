package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// NormalizeQueryKey derives a cache key from a free-text query: tokenize,
// drop tokens of length <= 3, sort the rest, join, prefix with the scope id.
// "Q3 revenue growth" and "growth revenue Q3" collide on purpose; hit rate
// is favored over exactness, and the retrieval/summary tests pin this shape.
func NormalizeQueryKey(scopeID, query string) string {
	tokens := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	significant := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len(tok) > 3 {
			significant = append(significant, tok)
		}
	}
	sort.Strings(significant)

	return scopeID + ":" + strings.Join(significant, "-")
}

// ToolCallKey derives the tool-result cache key from the tool name plus a
// canonical rendering of its arguments. json.Marshal sorts map keys, so
// argument order never splits the key.
func ToolCallKey(toolName string, args map[string]interface{}) string {
	data, err := json.Marshal(args)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", args))
	}
	return fmt.Sprintf("%s:%x", toolName, md5.Sum(data))
}
