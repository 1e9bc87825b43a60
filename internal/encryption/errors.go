package encryption

import "errors"

var (
	// ErrKeySize is returned when a chunk or master key is not KeySize bytes long.
	ErrKeySize = errors.New("key must be 32 bytes")
	// ErrNonceSize is returned when a chunk nonce is not NonceSize bytes long.
	ErrNonceSize = errors.New("nonce must be 12 bytes")
	// ErrShortMetadata is returned when a sealed keychain cannot even hold its nonce.
	ErrShortMetadata = errors.New("sealed keychain is shorter than its nonce")
	// ErrShortChunk is returned when a chunk decrypts to fewer bytes than its record promises.
	ErrShortChunk = errors.New("chunk plaintext is shorter than its recorded length")
	// ErrChunkSize is returned for a chunk size outside 1..MaxChunkSize.
	ErrChunkSize = errors.New("chunk size must be between 1 byte and 1 GiB")
	// ErrUnknownSuite is returned for an unsupported cipher suite.
	ErrUnknownSuite = errors.New("unknown cipher suite")
)
