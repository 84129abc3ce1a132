package query

import "strings"

// Key identifies a cache entry. Keys are hierarchical: a resource tag, a
// variant tag, and optionally a canonicalized filter segment, e.g.
// ["transactions", "list", "month=4&year=2025"]. Bulk operations (invalidate,
// cancel) address whole groups by prefix.
type Key []string

func NewKey(parts ...string) Key {
	return Key(parts)
}

// Child returns a new key with parts appended. The receiver is not modified.
func (k Key) Child(parts ...string) Key {
	child := make(Key, 0, len(k)+len(parts))
	child = append(child, k...)
	child = append(child, parts...)
	return child
}

func (k Key) String() string {
	return strings.Join(k, "/")
}

func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading segments of k.
// Every key has the empty prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}
