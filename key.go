// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpucache

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"sync/atomic"
)

// Domain separates keys produced by unrelated clients so that equal key
// words from, say, the texture allocator and the image layer never collide.
type Domain uint32

// InvalidDomain is the zero domain; keys built with it are invalid.
const InvalidDomain Domain = 0

var lastDomain atomic.Uint32

// GenerateDomain returns a process-unique Domain.
// Clients typically call it once at package initialization.
func GenerateDomain() Domain {
	return Domain(lastDomain.Add(1))
}

// KeyKind tells scratch keys from unique keys.
type KeyKind uint8

const (
	// KeyInvalid is the kind of the zero Key.
	KeyInvalid KeyKind = iota

	// KeyScratch identifies structural equivalence (dimensions, format, usage).
	// Any resident resource with an equal scratch key is fungible.
	KeyScratch

	// KeyUnique identifies exact logical identity. At most one resident
	// resource holds a given unique key.
	KeyUnique
)

// String returns a human-readable name for the kind.
func (k KeyKind) String() string {
	switch k {
	case KeyScratch:
		return "scratch"
	case KeyUnique:
		return "unique"
	default:
		return "invalid"
	}
}

// Key identifies cache equivalence of resource requests.
//
// Key is comparable and may be used as a map key. Two keys are equal when
// their kind, domain and words are equal; the hash is derived from those.
type Key struct {
	kind   KeyKind
	domain Domain
	hash   uint64
	words  string // packed little-endian uint32 words
}

// NewScratchKey builds a scratch key from a domain and key words.
func NewScratchKey(domain Domain, words ...uint32) Key {
	return newKey(KeyScratch, domain, words)
}

// NewUniqueKey builds a unique key from a domain and key words.
func NewUniqueKey(domain Domain, words ...uint32) Key {
	return newKey(KeyUnique, domain, words)
}

func newKey(kind KeyKind, domain Domain, words []uint32) Key {
	if domain == InvalidDomain {
		return Key{}
	}

	buf := make([]byte, 0, 4*len(words))
	for _, w := range words {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}

	h := fnv.New64a()
	var hdr [5]byte
	hdr[0] = byte(kind)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(domain))
	_, _ = h.Write(hdr[:]) // fnv.Write never returns an error
	_, _ = h.Write(buf)

	return Key{
		kind:   kind,
		domain: domain,
		hash:   h.Sum64(),
		words:  string(buf),
	}
}

// IsValid reports whether the key was built with a valid domain.
func (k Key) IsValid() bool { return k.kind != KeyInvalid }

// IsScratch reports whether k is a scratch key.
func (k Key) IsScratch() bool { return k.kind == KeyScratch }

// IsUnique reports whether k is a unique key.
func (k Key) IsUnique() bool { return k.kind == KeyUnique }

// Kind returns the key kind.
func (k Key) Kind() KeyKind { return k.kind }

// Domain returns the key domain.
func (k Key) Domain() Domain { return k.domain }

// Hash returns the FNV-1a hash of the key.
func (k Key) Hash() uint64 { return k.hash }

// WordCount returns the number of key words.
func (k Key) WordCount() int { return len(k.words) / 4 }

// Word returns the i-th key word.
func (k Key) Word(i int) uint32 {
	return binary.LittleEndian.Uint32([]byte(k.words[4*i : 4*i+4]))
}

// String returns a short description suitable for logs.
func (k Key) String() string {
	if !k.IsValid() {
		return "Key(invalid)"
	}
	return fmt.Sprintf("Key(%s, domain=%d, words=%d, hash=%016x)", k.kind, k.domain, k.WordCount(), k.hash)
}
