// Package fault defines the closed set of failure kinds reported by gochunk.
//
// Every failure carries its Kind and the lower-level cause, so callers can
// both branch on the kind and log the original description.
package fault

import (
	"errors"
	"fmt"
)

// Kind identifies the cause of a failure.
type Kind int

const (
	// FileCreation indicates a file could not be created.
	FileCreation Kind = iota + 1
	// FileOpen indicates a file could not be opened.
	FileOpen
	// Decode indicates a malformed serialized keychain.
	Decode
	// BufferReadInitialize indicates the input could not be opened for buffered reading.
	BufferReadInitialize
	// BufferRead indicates a read failure.
	BufferRead
	// Writing indicates a write failure.
	Writing
	// ArchiveCreation indicates the directory archive could not be built.
	ArchiveCreation
	// ArchiveExtraction indicates the decrypted archive could not be unpacked.
	ArchiveExtraction
	// CreateCypher indicates a cipher could not be built from the given key.
	CreateCypher
	// CypherEncrypt indicates an encryption failure.
	CypherEncrypt
	// CypherDecrypt indicates a decryption or authentication failure.
	CypherDecrypt
	// Nonce indicates missing or wrongly sized nonce data.
	Nonce
	// DirectoryCreation indicates a directory could not be created.
	DirectoryCreation
	// DirectoryDeletion indicates a directory could not be removed.
	DirectoryDeletion
	// Encode indicates the keychain could not be serialized.
	Encode
	// FileDeletion indicates a file could not be removed.
	FileDeletion
)

//nolint:gochecknoglobals
var templates = map[Kind]string{
	FileCreation:         "not able to create a file",
	FileOpen:             "not able to open file",
	Decode:               "not able to decode keychain",
	BufferReadInitialize: "not able to create buffer reader",
	BufferRead:           "not able to read data from buffer",
	Writing:              "not able to write data",
	ArchiveCreation:      "not able to create archive",
	ArchiveExtraction:    "not able to extract archive",
	CreateCypher:         "not able to create cypher from key",
	CypherEncrypt:        "not able to encrypt data with current cypher",
	CypherDecrypt:        "not able to decrypt data with current cypher",
	Nonce:                "not enough data to decode nonce",
	DirectoryCreation:    "not able to create directory",
	DirectoryDeletion:    "not able to delete directory with encrypted data",
	Encode:               "not able to encode keychain",
	FileDeletion:         "not able to delete file",
}

// String returns the human-readable template for k.
func (k Kind) String() string {
	if s, ok := templates[k]; ok {
		return s
	}

	return fmt.Sprintf("unknown failure (%d)", int(k))
}

// Category groups kinds by the layer that produced them.
type Category int

const (
	// IO covers filesystem failures.
	IO Category = iota + 1
	// Format covers keychain encoding failures.
	Format
	// Crypto covers cipher construction and operation failures.
	Crypto
	// Archive covers directory packing and unpacking failures.
	Archive
)

func (c Category) String() string {
	switch c {
	case IO:
		return "io"
	case Format:
		return "format"
	case Crypto:
		return "crypto"
	case Archive:
		return "archive"
	default:
		return "unknown"
	}
}

// Category returns the category k belongs to.
func (k Kind) Category() Category {
	switch k {
	case Decode, Encode:
		return Format
	case CreateCypher, CypherEncrypt, CypherDecrypt, Nonce:
		return Crypto
	case ArchiveCreation, ArchiveExtraction:
		return Archive
	default:
		return IO
	}
}

// Error is a failure of a given Kind with its underlying cause.
type Error struct {
	Kind Kind
	Err  error
}

// E returns an *Error of the given kind wrapping err.
// A nil err yields an error carrying only the kind's template.
func E(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

// Errorf is E with a formatted cause.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)} //nolint:err113
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}

	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}

	return other.Kind == e.Kind
}

// KindOf returns the kind of the outermost *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return 0
}

// Is reports whether err carries a failure of the given kind.
func Is(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
