package encryption_test

import (
	"bytes"
	"crypto/rand"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/gochunk/internal/encryption"
	"github.com/idelchi/gochunk/internal/fault"
)

// Case is a single round-trip scenario from testdata/roundtrip.yml.
type Case struct {
	Description string `yaml:"description"`
	Size        int    `yaml:"size"`
	ChunkSize   int    `yaml:"chunk_size"`
	Chunks      int    `yaml:"chunks"`
	Last        int    `yaml:"last,omitempty"`
}

// Group is a named collection of scenarios.
type Group struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Cases       []Case `yaml:"cases"`
}

func loadScenarios(t *testing.T) []Group {
	t.Helper()

	data, err := os.ReadFile(filepath.Join("testdata", "roundtrip.yml"))
	require.NoError(t, err)

	var groups []Group
	require.NoError(t, yaml.Unmarshal(data, &groups))
	require.NotEmpty(t, groups)

	return groups
}

// workspace lays out the paths of a single encrypt/decrypt run.
type workspace struct {
	input  string
	chunks string
	meta   string
	key    string
	output string
}

func newWorkspace(t *testing.T, plaintext []byte) workspace {
	t.Helper()

	dir := t.TempDir()
	ws := workspace{
		input:  filepath.Join(dir, "input.bin"),
		chunks: filepath.Join(dir, "chunks"),
		meta:   filepath.Join(dir, "meta.bin"),
		key:    filepath.Join(dir, "master.key"),
		output: filepath.Join(dir, "output.bin"),
	}

	require.NoError(t, os.WriteFile(ws.input, plaintext, 0o600))
	require.NoError(t, os.Mkdir(ws.chunks, 0o700))

	return ws
}

func newEngine(t *testing.T, opts encryption.Options) *encryption.Engine {
	t.Helper()

	engine, err := encryption.NewEngine(opts)
	require.NoError(t, err)

	return engine
}

func chunkFiles(t *testing.T, dir string) []string {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(dir, "chunk_*.enc"))
	require.NoError(t, err)

	return matches
}

func TestRoundTripScenarios(t *testing.T) {
	t.Parallel()

	for _, group := range loadScenarios(t) {
		t.Run(group.Name, func(t *testing.T) {
			t.Parallel()

			for _, tc := range group.Cases {
				t.Run(tc.Description, func(t *testing.T) {
					t.Parallel()

					plaintext := randomBytes(t, tc.Size)
					ws := newWorkspace(t, plaintext)
					masterKey := randomBytes(t, encryption.KeySize)
					engine := newEngine(t, encryption.Options{ChunkSize: tc.ChunkSize})

					stats, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
					require.NoError(t, err)
					assert.Equal(t, tc.Chunks, stats.Chunks)
					assert.Equal(t, int64(tc.Size), stats.PlaintextBytes)
					assert.Equal(t, int64(tc.Size+tc.Chunks*encryption.TagSize), stats.CiphertextBytes)
					assert.Len(t, chunkFiles(t, ws.chunks), tc.Chunks)

					k, _, err := engine.OpenKeychain(ws.meta, masterKey)
					require.NoError(t, err)
					require.Equal(t, tc.Chunks, k.Len())

					if tc.Last != 0 {
						assert.Equal(t, uint64(tc.Last), k.Record(k.Len()-1).Length)
					}

					stats, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, ws.key)
					require.NoError(t, err)
					assert.Equal(t, tc.Chunks, stats.Chunks)

					got, err := os.ReadFile(ws.output)
					require.NoError(t, err)
					assert.True(t, bytes.Equal(plaintext, got), "reconstructed output differs")
				})
			}
		})
	}
}

func TestChunkFilesHoldOnlyCiphertext(t *testing.T) {
	t.Parallel()

	plaintext := randomBytes(t, 10)
	ws := newWorkspace(t, plaintext)
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 4})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	k, _, err := engine.OpenKeychain(ws.meta, masterKey)
	require.NoError(t, err)

	for index, record := range k.Records() {
		ciphertext, err := os.ReadFile(encryption.ChunkPath(ws.chunks, index))
		require.NoError(t, err)
		assert.Len(t, ciphertext, int(record.Length)+encryption.TagSize)

		got, err := encryption.DecryptChunk(ciphertext, record.Key[:], record.Nonce[:])
		require.NoError(t, err)
		assert.Equal(t, plaintext[index*4:index*4+int(record.Length)], got)
	}

	assert.FileExists(t, filepath.Join(ws.chunks, "chunk_0.enc"))
	assert.FileExists(t, filepath.Join(ws.chunks, "chunk_2.enc"))
}

func TestKeysAndNoncesAreUnique(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 512))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 1})

	for run := range 3 {
		meta := ws.meta + string(rune('a'+run))

		_, err := engine.EncryptFile(ws.input, ws.chunks, meta, masterKey)
		require.NoError(t, err)

		k, _, err := engine.OpenKeychain(meta, masterKey)
		require.NoError(t, err)
		require.Equal(t, 512, k.Len())

		keys := make(map[[encryption.KeySize]byte]struct{})
		nonces := make(map[[encryption.NonceSize]byte]struct{})

		for _, record := range k.Records() {
			keys[record.Key] = struct{}{}
			nonces[record.Nonce] = struct{}{}
		}

		assert.Len(t, keys, 512)
		assert.Len(t, nonces, 512)
	}
}

func TestTamperedChunkFailsDecryption(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 100))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 32})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	for index := range 4 {
		path := encryption.ChunkPath(ws.chunks, index)

		original, err := os.ReadFile(path)
		require.NoError(t, err)

		for _, offset := range []int{0, len(original) / 2, len(original) - 1} {
			tampered := bytes.Clone(original)
			tampered[offset] ^= 0x01
			require.NoError(t, os.WriteFile(path, tampered, 0o600))

			_, err := engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, true, ws.key)
			require.Error(t, err)
			assert.True(t, fault.Is(err, fault.CypherDecrypt), "chunk %d offset %d: %v", index, offset, err)
			assert.NoFileExists(t, ws.output)
		}

		require.NoError(t, os.WriteFile(path, original, 0o600))
	}

	// Purge was requested on every failed run above and must not have happened.
	assert.DirExists(t, ws.chunks)
	assert.FileExists(t, ws.meta)
}

func TestSwappedChunksFailDecryption(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 64))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 32})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	first, second := encryption.ChunkPath(ws.chunks, 0), encryption.ChunkPath(ws.chunks, 1)
	tmp := filepath.Join(ws.chunks, "swap")

	require.NoError(t, os.Rename(first, tmp))
	require.NoError(t, os.Rename(second, first))
	require.NoError(t, os.Rename(tmp, second))

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	assert.True(t, fault.Is(err, fault.CypherDecrypt))
}

func TestTamperedMetadata(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 40))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 16})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	sealed, err := os.ReadFile(ws.meta)
	require.NoError(t, err)

	for bit := range len(sealed) * 8 {
		tampered := bytes.Clone(sealed)
		tampered[bit/8] ^= 1 << (bit % 8)
		require.NoError(t, os.WriteFile(ws.meta, tampered, 0o600))

		_, err := engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
		require.Error(t, err, "bit %d", bit)
		assert.True(t, fault.Is(err, fault.CypherDecrypt) || fault.Is(err, fault.Decode), "bit %d: %v", bit, err)
	}

	for _, size := range []int{0, 1, encryption.NonceSize - 1} {
		require.NoError(t, os.WriteFile(ws.meta, sealed[:size], 0o600))

		_, err := engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
		assert.True(t, fault.Is(err, fault.Nonce), "metadata of %d bytes: %v", size, err)
	}
}

func TestMasterKeyLengthCheckedFirst(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 64))
	engine := newEngine(t, encryption.Options{ChunkSize: 8})

	for _, size := range []int{0, 16, 31, 33, 64} {
		_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, make([]byte, size))
		require.Error(t, err)
		assert.True(t, fault.Is(err, fault.CreateCypher), "master key of %d bytes", size)
		assert.Empty(t, chunkFiles(t, ws.chunks))
		assert.NoFileExists(t, ws.meta)

		_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, make([]byte, size), false, "")
		assert.True(t, fault.Is(err, fault.CreateCypher), "master key of %d bytes", size)
	}
}

func TestWrongMasterKey(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 64))
	engine := newEngine(t, encryption.Options{})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, randomBytes(t, encryption.KeySize))
	require.NoError(t, err)

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, randomBytes(t, encryption.KeySize), false, "")
	assert.True(t, fault.Is(err, fault.CypherDecrypt))
}

func TestSuiteMismatch(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 64))
	masterKey := randomBytes(t, encryption.KeySize)

	_, err := newEngine(t, encryption.Options{Suite: encryption.SuiteChaCha20Poly1305}).
		EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	_, err = newEngine(t, encryption.Options{Suite: encryption.SuiteAESGCM}).
		DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	assert.True(t, fault.Is(err, fault.CypherDecrypt))

	_, err = newEngine(t, encryption.Options{Suite: encryption.SuiteChaCha20Poly1305}).
		DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	require.NoError(t, err)
}

func TestPurge(t *testing.T) {
	t.Parallel()

	plaintext := randomBytes(t, 3000)
	ws := newWorkspace(t, plaintext)
	engine := newEngine(t, encryption.Options{ChunkSize: 1024})

	masterKey, err := encryption.GenerateMasterKey(ws.key, rand.Reader, false)
	require.NoError(t, err)

	_, err = engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	// A failing run leaves everything in place.
	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, randomBytes(t, encryption.KeySize), true, ws.key)
	require.Error(t, err)
	assert.DirExists(t, ws.chunks)
	assert.FileExists(t, ws.meta)
	assert.FileExists(t, ws.key)

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, true, ws.key)
	require.NoError(t, err)
	assert.NoDirExists(t, ws.chunks)
	assert.NoFileExists(t, ws.meta)
	assert.NoFileExists(t, ws.key)

	got, err := os.ReadFile(ws.output)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestPurgeFailureKeepsOutput(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 10))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	// No key file was ever written, so the last purge step fails.
	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, true, ws.key)
	require.Error(t, err)
	assert.True(t, fault.Is(err, fault.FileDeletion))
	assert.FileExists(t, ws.output)
	assert.NoDirExists(t, ws.chunks)
	assert.NoFileExists(t, ws.meta)
}

func TestMissingInputs(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 100))
	masterKey := randomBytes(t, encryption.KeySize)
	engine := newEngine(t, encryption.Options{ChunkSize: 10})

	_, err := engine.EncryptFile(ws.input+".missing", ws.chunks, ws.meta, masterKey)
	assert.True(t, fault.Is(err, fault.BufferReadInitialize))

	_, err = engine.EncryptFile(ws.input, filepath.Join(ws.chunks, "missing"), ws.meta, masterKey)
	assert.True(t, fault.Is(err, fault.FileCreation))

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	assert.True(t, fault.Is(err, fault.FileOpen), "metadata missing: %v", err)

	_, err = engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)
	require.NoError(t, os.Remove(encryption.ChunkPath(ws.chunks, 9)))

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	assert.True(t, fault.Is(err, fault.FileOpen), "chunk missing: %v", err)
	assert.NoFileExists(t, ws.output)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy exhausted")
}

func TestRandomSourceFailure(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 100))
	engine := newEngine(t, encryption.Options{Rand: failingReader{}})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, randomBytes(t, encryption.KeySize))
	assert.True(t, fault.Is(err, fault.CypherEncrypt))
	assert.Empty(t, chunkFiles(t, ws.chunks))
}

func TestProgress(t *testing.T) {
	t.Parallel()

	ws := newWorkspace(t, randomBytes(t, 25))
	masterKey := randomBytes(t, encryption.KeySize)

	var events []encryption.Progress

	engine := newEngine(t, encryption.Options{
		ChunkSize:  10,
		OnProgress: func(p encryption.Progress) { events = append(events, p) },
	})

	_, err := engine.EncryptFile(ws.input, ws.chunks, ws.meta, masterKey)
	require.NoError(t, err)

	_, err = engine.DecryptFile(ws.chunks, ws.meta, ws.output, masterKey, false, "")
	require.NoError(t, err)

	require.Len(t, events, 6)
	assert.Equal(t, encryption.Progress{Operation: encryption.Encrypting, Chunk: 2, Bytes: 25}, events[2])
	assert.Equal(t, encryption.Progress{Operation: encryption.Decrypting, Chunk: 0, Total: 3, Bytes: 10}, events[3])
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	for _, size := range []int{-1, encryption.MaxChunkSize + 1, math.MaxUint32, math.MaxUint32 + 1, 1<<32 + 4} {
		_, err := encryption.NewEngine(encryption.Options{ChunkSize: size})
		require.ErrorIs(t, err, encryption.ErrChunkSize, "chunk size %d", size)
	}

	largest := newEngine(t, encryption.Options{ChunkSize: encryption.MaxChunkSize})
	assert.Equal(t, encryption.MaxChunkSize, largest.ChunkSize())

	_, err := encryption.NewEngine(encryption.Options{Suite: encryption.Suite(42)})
	require.ErrorIs(t, err, encryption.ErrUnknownSuite)

	engine := newEngine(t, encryption.Options{})
	assert.Equal(t, encryption.DefaultChunkSize, engine.ChunkSize())
	assert.Equal(t, encryption.SuiteAESGCM, engine.Suite())
}
