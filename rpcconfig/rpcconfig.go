// Package rpcconfig loads and validates the settings that govern an
// endpoint's framing, discovery mode, and timeouts. Grounded on the
// teacher's internal/config (Settings/New defaults) and internal/schema
// (embedded JSON Schema validation via santhosh-tekuri/jsonschema/v5),
// generalized from a fixed MCP server config to the endpoint's own knobs,
// and layered with spf13/viper for file/env precedence the teacher's own
// config package didn't have.
// file: rpcconfig/rpcconfig.go
package rpcconfig

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dkoosis/jsonrpcx/dispatch"
	"github.com/dkoosis/jsonrpcx/stream"
)

// Config is the endpoint's tunable settings.
type Config struct {
	// Separator divides "namespace<sep>method" on the wire.
	Separator string
	// DefaultTimeout bounds outbound calls that don't override it. Zero
	// means no timeout.
	DefaultTimeout time.Duration
	// DefaultTimeoutRaw is the duration string as loaded (e.g. "5s"),
	// parsed into DefaultTimeout after loading.
	DefaultTimeoutRaw string
	// Framing selects the wire framing: "content-length" or "ndjson".
	Framing string
	// Discovery selects the dispatch/proxy handler-discovery mode:
	// "decorated", "public", or "all".
	Discovery string
	// LogLevel is the minimum level the process logger emits.
	LogLevel string
}

// Default returns the configuration a freshly started endpoint uses absent
// any file or environment override.
func Default() Config {
	return Config{
		Separator:         "/",
		DefaultTimeout:    5 * time.Second,
		DefaultTimeoutRaw: "5s",
		Framing:           "content-length",
		Discovery:         "public",
		LogLevel:          "info",
	}
}

// DispatchMode maps the configured discovery string to dispatch.Mode.
func (c Config) DispatchMode() (dispatch.Mode, error) {
	switch c.Discovery {
	case "decorated":
		return dispatch.ModeDecorated, nil
	case "public":
		return dispatch.ModePublic, nil
	case "all":
		return dispatch.ModeAll, nil
	default:
		return 0, fmt.Errorf("rpcconfig: unknown discovery mode %q", c.Discovery)
	}
}

// NewStream builds the framed stream this config selects, over the given
// transport halves.
func (c Config) NewStream(r io.Reader, w io.Writer, closer io.Closer) (stream.Stream, error) {
	switch c.Framing {
	case "content-length", "":
		return stream.NewContentLength(r, w, closer), nil
	case "ndjson":
		return stream.NewLineDelimited(r, w, closer), nil
	default:
		return nil, fmt.Errorf("rpcconfig: unknown framing %q", c.Framing)
	}
}

// SlogLevel maps LogLevel to a log/slog.Level, defaulting to Info for an
// unrecognized or empty value.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseDurationField(c *Config) error {
	if c.DefaultTimeoutRaw == "" {
		c.DefaultTimeout = 0
		return nil
	}
	d, err := time.ParseDuration(c.DefaultTimeoutRaw)
	if err != nil {
		return fmt.Errorf("rpcconfig: defaultTimeout: %w", err)
	}
	c.DefaultTimeout = d
	return nil
}

// yamlDoc is the on-disk shape written by WriteDefault; its field names
// match schema.json and Load's viper keys.
type yamlDoc struct {
	Separator      string `yaml:"separator"`
	DefaultTimeout string `yaml:"defaultTimeout"`
	Framing        string `yaml:"framing"`
	Discovery      string `yaml:"discovery"`
	LogLevel       string `yaml:"logLevel"`
}

// WriteDefault writes a starter config file holding Default()'s values (plain
// YAML, no comments) at path, for the
// "init" CLI subcommand to hand a new deployment something to edit rather
// than an empty file.
func WriteDefault(path string) error {
	def := Default()
	doc := yamlDoc{
		Separator:      def.Separator,
		DefaultTimeout: def.DefaultTimeoutRaw,
		Framing:        def.Framing,
		Discovery:      def.Discovery,
		LogLevel:       def.LogLevel,
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("rpcconfig: marshal default config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}

func marshalForValidation(c Config) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `{"separator":%q,"defaultTimeout":%q,"framing":%q,"discovery":%q,"logLevel":%q}`,
		c.Separator, c.DefaultTimeoutRaw, c.Framing, c.Discovery, c.LogLevel)
	return buf.Bytes(), nil
}
