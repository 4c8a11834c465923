package logging

import (
	slogmulti "github.com/samber/slog-multi"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// FileName возвращает имя файла журнала за день t.
func FileName(t time.Time) string {
	return "bol_export_" + t.Format("20060102") + ".log"
}

// New создает журнал, который пишет в console с уровнем INFO (DEBUG при verbose) и,
// если задан каталог dir, в ежедневный файл с уровнем DEBUG. Возвращаемая функция
// закрывает файл журнала.
func New(console io.Writer, dir string, verbose bool, now time.Time) (*slog.Logger, func() error, error) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	if dir == "" {
		return slog.New(consoleHandler), func() error { return nil }, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, err
	}

	f, err := os.OpenFile(filepath.Join(dir, FileName(now)), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})

	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler)), f.Close, nil
}
