// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package elliptics

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
)

// IDSize is the size in bytes of a routing identifier.
const IDSize = sha512.Size

// ID is a routing identifier: the fixed-size value the storage engine
// uses to place an object on a backend.
type ID [IDSize]byte

// String returns the full hexadecimal dump of the identifier.
func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// Short returns the first 6 bytes of the identifier in hex,
// the form the engine uses in its logs.
func (id ID) Short() string {
	return hex.EncodeToString(id[:6])
}

// IsZero reports whether id is the zero identifier.
func (id ID) IsZero() bool {
	return id == ID{}
}

// ParseID parses the full hexadecimal form produced by ID.String.
func ParseID(s string) (ID, error) {
	var id ID
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("elliptics: parse id: %w", err)
	}
	if len(b) != IDSize {
		return id, fmt.Errorf("elliptics: parse id: got %d bytes, want %d", len(b), IDSize)
	}
	copy(id[:], b)
	return id, nil
}

// Transform derives the routing identifier of key under namespace.
// The result is deterministic for a fixed namespace.
func Transform(namespace, key []byte) ID {
	h := sha512.New()
	h.Write(namespace)
	h.Write(key)
	var id ID
	h.Sum(id[:0])
	return id
}

// Key names an object either by its raw byte string or by a
// pre-computed routing identifier.
//
// A raw key has no identifier until it is transformed by a Session;
// a key transformed under one namespace is not interchangeable with
// the same raw key under another.
type Key struct {
	raw   string
	id    ID
	hasID bool
}

// NewKey returns a raw key.
func NewKey(raw string) Key {
	return Key{raw: raw}
}

// KeyFromID returns a key carrying a pre-computed routing identifier.
func KeyFromID(id ID) Key {
	return Key{id: id, hasID: true}
}

// Raw returns the raw byte string of k, empty for identifier-only keys.
func (k Key) Raw() string {
	return k.raw
}

// ID returns the routing identifier of k and whether it has been computed.
func (k Key) ID() (ID, bool) {
	return k.id, k.hasID
}

// Transformed reports whether k carries a routing identifier.
func (k Key) Transformed() bool {
	return k.hasID
}

// String returns the raw key, or the identifier for identifier-only keys.
func (k Key) String() string {
	if k.raw != "" || !k.hasID {
		return k.raw
	}
	return k.id.String()
}

// transform returns k with its identifier computed under namespace.
func (k Key) transform(namespace []byte) Key {
	if k.hasID {
		return k
	}
	k.id = Transform(namespace, []byte(k.raw))
	k.hasID = true
	return k
}
