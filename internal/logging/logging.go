package logging

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogFileName is the diagnostic log created under the cache directory.
const LogFileName = "msgkeep.log"

var levelMapping = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// NewFileLogger builds a logger appending to baseDir/msgkeep.log.
// Preservation failures never reach the hook's exit code, so this file
// is the only place they surface. Unknown levels fall back to info.
// Every entry carries an invocation ULID so interleaved writes from
// concurrent hook processes can be told apart.
func NewFileLogger(baseDir, level string) (*zap.Logger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logPath := filepath.Join(baseDir, LogFileName)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	zapLevel, ok := levelMapping[level]
	if !ok {
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(file),
		zapLevel,
	)

	return zap.New(core).With(zap.String("invocation", newInvocationID())), nil
}

// newInvocationID generates a ULID identifying one hook process run.
func newInvocationID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
