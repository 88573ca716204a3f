package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tree is a generic JSON object. Nested objects may be Tree or
// map[string]any; both are treated as maps by Merge.
type Tree map[string]any

type clearSentinel struct{}

// Clear, used as a patch value, removes the key from the merged document.
var Clear = clearSentinel{}

// Merge applies patch onto dst recursively and returns dst. A map value
// merges into an existing map key-by-key; any other value, Clear included,
// replaces the destination wholesale.
func Merge(dst, patch Tree) Tree {
	if dst == nil {
		dst = Tree{}
	}
	for k, v := range patch {
		if _, ok := v.(clearSentinel); ok {
			delete(dst, k)
			continue
		}
		pm, pIsMap := asMap(v)
		if !pIsMap {
			dst[k] = v
			continue
		}
		if dm, dIsMap := asMap(dst[k]); dIsMap {
			dst[k] = Merge(dm, pm)
			continue
		}
		dst[k] = Merge(Tree{}, pm)
	}
	return dst
}

func asMap(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]any:
		return Tree(m), true
	default:
		return nil, false
	}
}

// Sub returns the nested object at key, or nil.
func (t Tree) Sub(key string) Tree {
	m, _ := asMap(t[key])
	return m
}

// String returns the string at key, or "".
func (t Tree) String(key string) string {
	s, _ := t[key].(string)
	return s
}

// Decode converts the value at key into out through its JSON form. It
// reports false when the key is missing or the shape does not fit.
func (t Tree) Decode(key string, out any) bool {
	v, ok := t[key]
	if !ok || v == nil {
		return false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// ToTree converts a struct into a Tree through its JSON form, so typed
// sub-records can be used as merge patches.
func ToTree(v any) (Tree, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal patch: %w", err)
	}
	return decodeTree(b)
}

func decodeTree(b []byte) (Tree, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	// Keep integers exact; file mtimes in nanoseconds exceed float64 precision.
	dec.UseNumber()
	var t Tree
	if err := dec.Decode(&t); err != nil {
		return nil, err
	}
	if t == nil {
		t = Tree{}
	}
	return t, nil
}
