package query

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key identifies a cache entry. Parts are compared by their JSON encoding,
// so Key{"routes", "CBD", 10} and Key{"routes", "CBD", 10} are the same
// entry while Key{"routes", "", 10} is not.
type Key []any

func (k Key) String() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

func (k Key) parts() []string {
	parts := make([]string, len(k))
	for i, part := range k {
		parts[i] = encodePart(part)
	}
	return parts
}

// HasPrefix reports whether k starts with every part of prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}

	for i, part := range prefix {
		if encodePart(part) != encodePart(k[i]) {
			return false
		}
	}
	return true
}

func encodePart(part any) string {
	data, err := json.Marshal(part)
	if err != nil {
		return fmt.Sprintf("%q", fmt.Sprint(part))
	}
	return string(data)
}
