package platform

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Hook mirrors every entry into <logPath>/<date>/<fileName>.log, switching
// files when the date changes.
type Hook struct {
	mu       sync.Mutex
	writer   *os.File
	logPath  string
	fileName string
	fileDate string
	now      func() time.Time
}

func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *Hook) Fire(entry *logrus.Entry) error {
	line, err := entry.Logger.Formatter.Format(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	date := h.now().Format("2006-01-02")
	if h.writer == nil || h.fileDate != date {
		if err := h.rotate(date); err != nil {
			return err
		}
	}
	_, err = h.writer.Write(line)
	return err
}

func (h *Hook) rotate(date string) error {
	if h.writer != nil {
		h.writer.Close()
	}
	dir := filepath.Join(h.logPath, date)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	filename := filepath.Join(dir, h.fileName+".log")
	writer, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	h.writer = writer
	h.fileDate = date
	return nil
}

// Close releases the current log file.
func (h *Hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.writer == nil {
		return nil
	}
	err := h.writer.Close()
	h.writer = nil
	return err
}

type LogFormatter struct {
}

func (m *LogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b *bytes.Buffer
	if entry.Buffer != nil {
		b = entry.Buffer
	} else {
		b = &bytes.Buffer{}
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	fmt.Fprintf(b, "[%s] [%s] %s", timestamp, entry.Level, entry.Message)
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// NewLogger builds the application logger. Entries go to out and, when
// logPath is non-empty, to a daily file named after fileName.
func NewLogger(out io.Writer, level, logPath, fileName string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&LogFormatter{})
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(lvl)

	if logPath != "" {
		logger.AddHook(&Hook{
			logPath:  logPath,
			fileName: fileName,
			now:      time.Now,
		})
	}
	return logger, nil
}
