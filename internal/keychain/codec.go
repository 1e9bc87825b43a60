package keychain

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/idelchi/gochunk/internal/fault"
)

// Wire layout, protobuf compatible:
//
//	message Keychain { repeated Record records = 1; uint64 count = 2; }
//	message Record   { bytes key = 1; bytes nonce = 2; uint64 length = 3; }
//
// The count always comes first and the record fields always in field order,
// so equal keychains encode to equal bytes and a truncated encoding never
// decodes to a shorter keychain.
const (
	fieldRecords protowire.Number = 1
	fieldCount   protowire.Number = 2

	fieldKey    protowire.Number = 1
	fieldNonce  protowire.Number = 2
	fieldLength protowire.Number = 3
)

var errEmptyRecord = errors.New("record has zero length")

// Marshal encodes the keychain.
func Marshal(k Keychain) ([]byte, error) {
	out := protowire.AppendTag(nil, fieldCount, protowire.VarintType)
	out = protowire.AppendVarint(out, uint64(len(k.records)))

	for i, r := range k.records {
		if r.Length == 0 {
			return nil, fault.E(fault.Encode, fmt.Errorf("record %d: %w", i, errEmptyRecord))
		}

		out = protowire.AppendTag(out, fieldRecords, protowire.BytesType)
		out = protowire.AppendBytes(out, appendRecord(nil, r))
	}

	return out, nil
}

func appendRecord(b []byte, r Record) []byte {
	b = protowire.AppendTag(b, fieldKey, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Key[:])
	b = protowire.AppendTag(b, fieldNonce, protowire.BytesType)
	b = protowire.AppendBytes(b, r.Nonce[:])
	b = protowire.AppendTag(b, fieldLength, protowire.VarintType)
	b = protowire.AppendVarint(b, r.Length)

	return b
}

// Unmarshal decodes a keychain produced by Marshal.
// Unknown fields, duplicate or missing record fields, wrongly sized keys or
// nonces and a record count that does not match the records are rejected.
func Unmarshal(data []byte) (Keychain, error) {
	count, data, err := consumeCount(data)
	if err != nil {
		return Keychain{}, fault.E(fault.Decode, err)
	}

	var builder Builder

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Keychain{}, fault.E(fault.Decode, fmt.Errorf("record %d tag: %w", builder.Len(), protowire.ParseError(n)))
		}

		if num != fieldRecords || typ != protowire.BytesType {
			return Keychain{}, fault.Errorf(fault.Decode, "record %d: unexpected field %d of type %d", builder.Len(), num, typ)
		}

		data = data[n:]

		raw, n := protowire.ConsumeBytes(data)
		if n < 0 {
			return Keychain{}, fault.E(fault.Decode, fmt.Errorf("record %d: %w", builder.Len(), protowire.ParseError(n)))
		}

		data = data[n:]

		record, err := parseRecord(raw)
		if err != nil {
			return Keychain{}, fault.E(fault.Decode, fmt.Errorf("record %d: %w", builder.Len(), err))
		}

		builder.Append(record)
	}

	if uint64(builder.Len()) != count {
		return Keychain{}, fault.Errorf(fault.Decode, "keychain holds %d records, header says %d", builder.Len(), count)
	}

	return builder.Freeze(), nil
}

func consumeCount(data []byte) (uint64, []byte, error) {
	num, typ, n := protowire.ConsumeTag(data)
	if n < 0 {
		return 0, nil, fmt.Errorf("count tag: %w", protowire.ParseError(n))
	}

	if num != fieldCount || typ != protowire.VarintType {
		return 0, nil, fmt.Errorf("keychain does not start with a record count (field %d of type %d)", num, typ)
	}

	data = data[n:]

	count, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, nil, fmt.Errorf("count: %w", protowire.ParseError(n))
	}

	return count, data[n:], nil
}

//nolint:cyclop
func parseRecord(data []byte) (Record, error) {
	var (
		record Record
		seen   = map[protowire.Number]bool{}
	)

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return Record{}, protowire.ParseError(n)
		}

		data = data[n:]

		if seen[num] {
			return Record{}, fmt.Errorf("duplicate field %d", num)
		}

		seen[num] = true

		switch {
		case num == fieldKey && typ == protowire.BytesType:
			key, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Record{}, fmt.Errorf("key: %w", protowire.ParseError(n))
			}

			if len(key) != KeySize {
				return Record{}, fmt.Errorf("key is %d bytes, want %d", len(key), KeySize)
			}

			copy(record.Key[:], key)

			data = data[n:]
		case num == fieldNonce && typ == protowire.BytesType:
			nonce, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return Record{}, fmt.Errorf("nonce: %w", protowire.ParseError(n))
			}

			if len(nonce) != NonceSize {
				return Record{}, fmt.Errorf("nonce is %d bytes, want %d", len(nonce), NonceSize)
			}

			copy(record.Nonce[:], nonce)

			data = data[n:]
		case num == fieldLength && typ == protowire.VarintType:
			length, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return Record{}, fmt.Errorf("length: %w", protowire.ParseError(n))
			}

			record.Length = length

			data = data[n:]
		default:
			return Record{}, fmt.Errorf("unexpected field %d of type %d", num, typ)
		}
	}

	if len(seen) != 3 { //nolint:mnd
		return Record{}, fmt.Errorf("incomplete record: %d of 3 fields", len(seen))
	}

	if record.Length == 0 {
		return Record{}, errEmptyRecord
	}

	return record, nil
}
