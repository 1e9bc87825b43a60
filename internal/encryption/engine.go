package encryption

import (
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DefaultChunkSize is the plaintext window encrypted under a single key: 1 MiB.
const DefaultChunkSize = 1024 * 1024

// MaxChunkSize bounds the plaintext window: 1 GiB. Every window is held in memory
// and the splitter stores its size in 32 bits.
const MaxChunkSize = 1 << 30

// Options configures an Engine. The zero value selects AES-256-GCM with
// 1 MiB chunks, crypto/rand and no logging.
type Options struct {
	// ChunkSize is the plaintext window size in bytes.
	ChunkSize int

	// Suite is the AEAD used for chunks and the keychain.
	Suite Suite

	// Rand supplies chunk keys and nonces. It must be cryptographically secure.
	Rand io.Reader

	// Logger receives run-level events.
	Logger logrus.FieldLogger

	// OnProgress, if set, is called after every chunk.
	OnProgress func(Progress)
}

// Engine drives chunked encryption and decryption. Runs are sequential and
// an Engine holds no state between them.
type Engine struct {
	chunkSize  int
	suite      Suite
	rand       io.Reader
	logger     logrus.FieldLogger
	onProgress func(Progress)
}

// NewEngine creates an Engine from opts.
func NewEngine(opts Options) (*Engine, error) {
	engine := &Engine{
		chunkSize:  opts.ChunkSize,
		suite:      opts.Suite,
		rand:       opts.Rand,
		logger:     opts.Logger,
		onProgress: opts.OnProgress,
	}

	if engine.chunkSize == 0 {
		engine.chunkSize = DefaultChunkSize
	}

	if engine.chunkSize < 1 || engine.chunkSize > MaxChunkSize {
		return nil, fmt.Errorf("%w: got %d", ErrChunkSize, engine.chunkSize)
	}

	if engine.suite == 0 {
		engine.suite = SuiteAESGCM
	}

	if _, ok := Suites[engine.suite.String()]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSuite, byte(engine.suite))
	}

	if engine.rand == nil {
		engine.rand = rand.Reader
	}

	if engine.logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		engine.logger = logger
	}

	return engine, nil
}

// ChunkSize returns the plaintext window size.
func (e *Engine) ChunkSize() int {
	return e.chunkSize
}

// Suite returns the configured AEAD suite.
func (e *Engine) Suite() Suite {
	return e.suite
}

func (e *Engine) report(p Progress) {
	if e.onProgress != nil {
		e.onProgress(p)
	}
}

// ChunkPath returns the path of chunk index inside dir.
func ChunkPath(dir string, index int) string {
	return filepath.Join(dir, "chunk_"+strconv.Itoa(index)+".enc")
}
