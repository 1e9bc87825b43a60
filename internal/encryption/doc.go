// Package encryption splits files into fixed-size chunks and seals every
// chunk under its own one-time key and nonce. The per-chunk keys are kept in a
// keychain that is itself sealed under a single 32-byte master key.
//
// Chunks are written as chunk_<index>.enc holding only the AEAD ciphertext;
// the sealed keychain is written as nonce || ciphertext. Both AES-256-GCM and
// ChaCha20-Poly1305 are supported, the same suite must be used to decrypt.
package encryption
