package normalization

import (
	"strings"
)

// NodeName canonicalizes a taxonomy node name: trimmed, inner whitespace
// collapsed. Idempotent creation matches on the canonical form, so "Joelho "
// and "Joelho" are the same node.
func NodeName(input string) string {
	return strings.Join(strings.Fields(input), " ")
}
