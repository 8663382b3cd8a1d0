/*
Package keys provides ready-made key-derivation helpers.

The memoizer itself never inspects arguments: it only compares the strings a
key function returns. These helpers cover the two common cases — readable
delimited keys for small argument lists, and digest keys for arguments too
large or too irregular to join by hand.
*/
package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

/*
Join builds a readable key by formatting every argument and joining the
parts with ":".

	keys.Join("sum", 3, 4) => "sum:3:4"

Good for primitive arguments. Two argument lists collide exactly when their
formatted parts are equal, so don't use Join with arguments whose string
form is ambiguous (e.g. "a:b" next to "a", "b").
*/
func Join(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, ":")
}

/*
Hash builds a fixed-width digest key: prefix + ":" + first 8 bytes of the
SHA-256 of the JSON encoding of the arguments.

	keys.Hash("query", filter, page) => "query:9f86d081884c7d65"

JSON gives us canonical ordering for map keys for free, so structurally
equal arguments produce equal keys. Arguments must be JSON-encodable; an
argument that cannot be encoded is folded in by its Go string form instead,
which keeps the key deterministic but weakens collision resistance for
that argument.
*/
func Hash(prefix string, args ...any) string {
	enc, err := json.Marshal(args)
	if err != nil {
		enc = []byte(fmt.Sprint(args...))
	}

	sum := sha256.Sum256(enc)
	return prefix + ":" + hex.EncodeToString(sum[:8])
}
