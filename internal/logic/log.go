package logic

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/idelchi/gochunk/internal/config"
)

// NewLogger returns a logger writing "[ LVL ] message key=value" lines to stderr.
// --quiet keeps warnings and errors only, --verbose adds debug output.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&Formatter{})
	logger.SetLevel(logrus.InfoLevel)

	switch {
	case cfg.Quiet:
		logger.SetLevel(logrus.WarnLevel)
	case cfg.Verbose:
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

// Formatter renders entries with a bracketed three-letter level tag.
type Formatter struct{}

//nolint:gochecknoglobals
var levelTags = map[logrus.Level]string{
	logrus.PanicLevel: "PNC",
	logrus.FatalLevel: "FTL",
	logrus.ErrorLevel: "ERR",
	logrus.WarnLevel:  "WRN",
	logrus.InfoLevel:  "INF",
	logrus.DebugLevel: "DBG",
	logrus.TraceLevel: "TRC",
}

// Format implements logrus.Formatter.
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "[ %s ] %s", levelTags[entry.Level], entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for key := range entry.Data {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&buf, " %s=%v", key, entry.Data[key])
	}

	buf.WriteByte('\n')

	return buf.Bytes(), nil
}
