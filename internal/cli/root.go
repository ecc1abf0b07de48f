package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"assetwatch/internal/client"
)

// Options are the persistent flags shared by every subcommand.
type Options struct {
	Server    string
	LogLevel  string
	LogFormat string
}

const defaultServer = "http://127.0.0.1:8080"

// Execute runs the assetwatch command tree with os.Args.
func Execute(ctx context.Context) int {
	root := NewRootCmd(&Options{})
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "assetwatch:", err)
		return 1
	}
	return 0
}

// NewRootCmd constructs the cobra tree wired to opts.
func NewRootCmd(opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:           "assetwatch",
		Short:         "Track asset compilation readiness for automation scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.Server, "server", envStr("ASSETWATCH_SERVER", defaultServer), "assetwatch server base URL for client commands")
	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", envStr("ASSETWATCH_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "console", "Log format: console|json")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newStartCmd(opts), newStopCmd(opts), newExpectCmd(opts), newPublishCmd(opts), newStatusCmd(opts), newWaitCmd(opts))
	return root
}

// newLogger builds the process logger. Console output is meant for humans;
// json for log shippers.
func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl := zerolog.InfoLevel
	if level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("invalid log level %q", level)
		}
	}
	out := w
	switch strings.ToLower(format) {
	case "", "console":
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case "json":
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q", format)
	}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

func (o *Options) client() *client.Client {
	return client.New(o.Server, nil)
}

// Env helpers
func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma-separated flag value, dropping empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
