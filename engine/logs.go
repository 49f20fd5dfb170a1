package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/satishbabariya/prisma-engine-go/internal/debug"
)

// logLine is a RUST_LOG_FORMAT=json record.
type logLine struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Target    string         `json:"target"`
	Fields    map[string]any `json:"fields"`
}

func levelOf(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "ERROR":
		return slog.LevelError
	case "WARN":
		return slog.LevelWarn
	case "INFO":
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// maxLogLine bounds a single engine log line. Longer lines are dropped.
const maxLogLine = 1024 * 1024

// forwardLogs copies engine output lines into the debug logger until r is
// exhausted. Lines that are not JSON are logged verbatim at info level.
// The pipe is always drained so the engine never blocks on a write.
func forwardLogs(r io.Reader, stream string) {
	logger := debug.With("component", "query-engine", "stream", stream)
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		text, size, err := readLogLine(br)
		if err != nil {
			if err != io.EOF {
				logger.Warn("failed to read engine output", "error", err)
				_, _ = io.Copy(io.Discard, r)
			}
			return
		}
		if size > maxLogLine {
			logger.Warn("dropped oversized engine log line", "bytes", size)
			continue
		}
		forwardLine(logger, string(text))
	}
}

// readLogLine reads one line, keeping at most maxLogLine bytes of it. size
// is the full length of the line.
func readLogLine(br *bufio.Reader) (line []byte, size int, err error) {
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			return nil, size, err
		}
		size += len(chunk)
		if size <= maxLogLine {
			line = append(line, chunk...)
		}
		if !isPrefix {
			return line, size, nil
		}
	}
}

func forwardLine(logger *slog.Logger, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	var line logLine
	if err := json.Unmarshal([]byte(text), &line); err != nil || line.Level == "" {
		logger.Info(text)
		return
	}

	msg, _ := line.Fields["message"].(string)
	attrs := make([]any, 0, 2+2*len(line.Fields))
	if line.Target != "" {
		attrs = append(attrs, "target", line.Target)
	}
	for k, v := range line.Fields {
		if k != "message" {
			attrs = append(attrs, k, v)
		}
	}
	logger.Log(context.Background(), levelOf(line.Level), msg, attrs...)
}
