package encryption

// Operation names the engine operation a Progress event belongs to.
type Operation string

const (
	// Encrypting marks progress of EncryptFile.
	Encrypting Operation = "encrypt"
	// Decrypting marks progress of DecryptFile.
	Decrypting Operation = "decrypt"
)

// Progress is reported once per processed chunk.
type Progress struct {
	// Operation in progress
	Operation Operation

	// Zero-based index of the chunk just processed
	Chunk int

	// Total number of chunks, zero while encrypting since the input is read sequentially
	Total int

	// Plaintext bytes processed so far
	Bytes int64
}

// Stats summarizes a finished run.
type Stats struct {
	// Number of chunks written or read
	Chunks int

	// Plaintext bytes consumed or produced
	PlaintextBytes int64

	// Ciphertext bytes across all chunk files
	CiphertextBytes int64

	// Size of the sealed keychain
	MetadataBytes int64
}
