// Package keychain holds the per-chunk key material of an encryption run
// and its binary encoding.
package keychain

import (
	"github.com/awnumar/memguard"
)

const (
	// KeySize is the size of a chunk key in bytes.
	KeySize = 32
	// NonceSize is the size of a chunk nonce in bytes.
	NonceSize = 12
)

// Record describes one encrypted chunk.
type Record struct {
	// Key is the one-time key the chunk was sealed with.
	Key [KeySize]byte

	// Nonce is the one-time nonce the chunk was sealed with.
	Nonce [NonceSize]byte

	// Length is the number of plaintext bytes in the chunk.
	Length uint64
}

// Keychain is the frozen, ordered list of chunk records. Record i belongs to chunk i.
type Keychain struct {
	records []Record
}

// Len returns the number of chunks.
func (k Keychain) Len() int {
	return len(k.records)
}

// Record returns the record for chunk i.
func (k Keychain) Record(i int) Record {
	return k.records[i]
}

// Records returns a copy of all records in chunk order.
func (k Keychain) Records() []Record {
	return append([]Record(nil), k.records...)
}

// PlaintextSize returns the total number of plaintext bytes described by the keychain.
func (k Keychain) PlaintextSize() uint64 {
	var total uint64

	for _, r := range k.records {
		total += r.Length
	}

	return total
}

// Wipe zeroes the key material held by the keychain.
func (k Keychain) Wipe() {
	for i := range k.records {
		memguard.WipeBytes(k.records[i].Key[:])
		memguard.WipeBytes(k.records[i].Nonce[:])
	}
}

// Builder accumulates records during an encryption run.
// The zero value is ready to use.
type Builder struct {
	records []Record
}

// Append adds the record for the next chunk index.
func (b *Builder) Append(r Record) {
	b.records = append(b.records, r)
}

// Len returns the number of records appended so far.
func (b *Builder) Len() int {
	return len(b.records)
}

// Freeze returns the keychain built so far. The keychain shares storage with
// the builder, so the builder must not be appended to afterwards.
func (b *Builder) Freeze() Keychain {
	return Keychain{records: b.records}
}

// Wipe zeroes the key material of every record appended so far,
// including records already handed out by Freeze.
func (b *Builder) Wipe() {
	Keychain{records: b.records}.Wipe()
}

// New returns a keychain holding the given records in order.
func New(records ...Record) Keychain {
	return Keychain{records: append([]Record(nil), records...)}
}
