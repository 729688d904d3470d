// file: rpcconfig/load.go
package rpcconfig

import (
	"bytes"
	_ "embed"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"

	"github.com/dkoosis/jsonrpcx/logging"
)

//go:embed schema.json
var embeddedSchema []byte

var log = logging.Get("rpcconfig")

// EnvPrefix is the prefix rpcconfig binds environment-variable overrides
// under, e.g. JSONRPCX_DEFAULTTIMEOUT.
const EnvPrefix = "JSONRPCX"

// Load reads configuration from path (YAML), layering environment-variable
// overrides under EnvPrefix on top, validates the merged document against
// the embedded JSON Schema, and returns the resulting Config. An empty path
// skips file loading and returns Default() merged with any env overrides.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("separator", def.Separator)
	v.SetDefault("defaultTimeout", def.DefaultTimeoutRaw)
	v.SetDefault("framing", def.Framing)
	v.SetDefault("discovery", def.Discovery)
	v.SetDefault("logLevel", def.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "rpcconfig: reading %s", path)
		}
	}

	cfg := Config{
		Separator:         v.GetString("separator"),
		DefaultTimeoutRaw: v.GetString("defaultTimeout"),
		Framing:           v.GetString("framing"),
		Discovery:         v.GetString("discovery"),
		LogLevel:          v.GetString("logLevel"),
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	if err := parseDurationField(&cfg); err != nil {
		return Config{}, err
	}

	log.Info("configuration loaded", "path", path, "framing", cfg.Framing, "discovery", cfg.Discovery)
	return cfg, nil
}

func validate(c Config) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("jsonrpcx://rpcconfig/schema.json", bytes.NewReader(embeddedSchema)); err != nil {
		return fmt.Errorf("rpcconfig: add schema resource: %w", err)
	}
	schema, err := compiler.Compile("jsonrpcx://rpcconfig/schema.json")
	if err != nil {
		return fmt.Errorf("rpcconfig: compile schema: %w", err)
	}

	raw, err := marshalForValidation(c)
	if err != nil {
		return err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("rpcconfig: parse config for validation: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return errors.Wrap(err, "rpcconfig: configuration failed schema validation")
	}
	return nil
}
