package cmd

import (
	"log/slog"
	"os"
	"path"

	"github.com/encodeous/dvr/state"
	"github.com/encodeous/tint"
	slogmulti "github.com/samber/slog-multi"
)

// newLogger logs to the console, and to logPath if set. The returned function closes the log file.
func newLogger(prefix string, showTime bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if verbose || state.DBG_log_router || state.DBG_log_route_table || state.DBG_log_probe {
		level = slog.LevelDebug
	}

	handlers := make([]slog.Handler, 0)
	opts := &tint.Options{
		Level:        level,
		AddSource:    false,
		CustomPrefix: prefix,
	}
	if showTime {
		opts.TimeFormat = "15:04:05.000"
	} else {
		opts.ReplaceAttr = func(groups []string, attr slog.Attr) slog.Attr {
			if attr.Key == "time" {
				return slog.Attr{}
			}
			return attr
		}
	}
	handlers = append(handlers, tint.NewHandler(os.Stderr, opts))

	closer := func() {}
	if logPath != "" {
		err := os.MkdirAll(path.Dir(logPath), 0700)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.OpenFile(logPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0600)
		if err != nil {
			return nil, nil, err
		}
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
		closer = func() {
			_ = f.Close()
		}
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}
