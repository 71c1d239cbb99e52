// Package config loads graphjson settings from a TOML file.
//
//	[schema]
//	files = ["schema/social.yaml"]
//
//	[codec]
//	type_format = "name"
//	use_id = true
//	id_strategy = "uuid"
//
//	[store]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//	ttl = "24h"
//
// Unset keys keep the values from [Default].
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/graphjson/pkg/codec"
	"github.com/matzehuels/graphjson/pkg/errors"
	"github.com/matzehuels/graphjson/pkg/expr"
	"github.com/matzehuels/graphjson/pkg/identity"
	"github.com/matzehuels/graphjson/pkg/schema"
	"github.com/matzehuels/graphjson/pkg/store"
	"github.com/matzehuels/graphjson/pkg/uri"
)

var validate = validator.New()

// Duration is a time.Duration written as a string such as "90s" or "24h".
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config is the root of the configuration file.
type Config struct {
	Schema SchemaConfig `toml:"schema"`
	Codec  CodecConfig  `toml:"codec"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Log    LogConfig    `toml:"log"`
}

// SchemaConfig lists the schema files to load.
type SchemaConfig struct {
	Files []string `toml:"files" validate:"dive,required"`
}

// CodecConfig mirrors codec.Options.
type CodecConfig struct {
	RefField            string `toml:"ref_field" validate:"required"`
	TypeField           string `toml:"type_field" validate:"required"`
	IDField             string `toml:"id_field" validate:"required_if=UseID true"`
	UseID               bool   `toml:"use_id"`
	IDStrategy          string `toml:"id_strategy" validate:"omitempty,oneof=none uuid sequential"`
	SerializeTypes      bool   `toml:"serialize_types"`
	MinimizeTypes       bool   `toml:"minimize_types"`
	TypeFormat          string `toml:"type_format" validate:"oneof=name qualified uri"`
	SerializeDefaults   bool   `toml:"serialize_defaults"`
	MixedKeyValue       bool   `toml:"mixed_key_value"`
	StrictUnknownFields bool   `toml:"strict_unknown_fields"`
	RootType            string `toml:"root_type"`
	Indent              string `toml:"indent"`
	URIHandler          string `toml:"uri_handler" validate:"oneof=base identity"`
	// Operations evaluates exposed CEL operations on encode.
	Operations bool `toml:"operations"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend         string   `toml:"backend" validate:"oneof=memory local file redis badger mongo null"`
	Dir             string   `toml:"dir"`
	RedisURL        string   `toml:"redis_url" validate:"required_if=Backend redis"`
	BadgerPath      string   `toml:"badger_path" validate:"required_if=Backend badger BadgerInMemory false"`
	BadgerInMemory  bool     `toml:"badger_in_memory"`
	MongoURI        string   `toml:"mongo_uri" validate:"required_if=Backend mongo"`
	MongoDatabase   string   `toml:"mongo_database" validate:"required_if=Backend mongo"`
	MongoCollection string   `toml:"mongo_collection" validate:"required_if=Backend mongo"`
	TTL             Duration `toml:"ttl"`
	// Scope prefixes every key written to the backend.
	Scope string `toml:"scope"`
	// HTTP routes http and https URIs to an HTTP store.
	HTTP bool `toml:"http"`
	// EagerProxies loads referenced documents eagerly.
	EagerProxies bool `toml:"eager_proxies"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string   `toml:"addr" validate:"required"`
	Metrics      bool     `toml:"metrics"`
	MaxBodyBytes int64    `toml:"max_body_bytes" validate:"gt=0"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// LogConfig sets the log level.
type LogConfig struct {
	Level string `toml:"level" validate:"oneof=debug info warn error"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Codec: CodecConfig{
			RefField:       codec.DefaultRefField,
			TypeField:      codec.DefaultTypeField,
			IDField:        codec.DefaultIDField,
			SerializeTypes: true,
			MinimizeTypes:  true,
			TypeFormat:     "name",
			URIHandler:     "base",
			Operations:     true,
		},
		Store: StoreConfig{
			Backend:         "local",
			MongoDatabase:   "graphjson",
			MongoCollection: "documents",
			HTTP:            true,
		},
		Server: ServerConfig{
			Addr:         ":8080",
			Metrics:      true,
			MaxBodyBytes: 10 << 20,
			ReadTimeout:  Duration{30 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads path over the defaults and validates the result. Unknown
// keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "%s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML text over the defaults and validates the result.
func Parse(data string) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown key %s", undecoded[0])
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and the codec options they produce.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeConfiguration, err, "invalid configuration")
	}
	opts, err := c.CodecOptions(nil)
	if err != nil {
		return err
	}
	return opts.Validate()
}

// LogLevel returns the configured level.
func (c *Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// CodecOptions converts the codec section into codec.Options. It does
// not set an operation invoker; see NewCodec.
func (c *Config) CodecOptions(logger *log.Logger) (codec.Options, error) {
	cc := c.Codec
	format, err := codec.ParseTypeFormat(cc.TypeFormat)
	if err != nil {
		return codec.Options{}, errors.Wrap(errors.ErrCodeConfiguration, err, "codec.type_format")
	}
	strategy, ok := identity.Parse(cc.IDStrategy)
	if !ok {
		return codec.Options{}, errors.New(errors.ErrCodeConfiguration, "codec.id_strategy: unknown strategy %q", cc.IDStrategy)
	}
	var handler uri.Handler = uri.Base{}
	if cc.URIHandler == "identity" {
		handler = uri.Identity{}
	}
	return codec.Options{
		RefField:            cc.RefField,
		TypeField:           cc.TypeField,
		IDField:             cc.IDField,
		UseID:               cc.UseID,
		IDStrategy:          strategy,
		SerializeTypes:      cc.SerializeTypes,
		MinimizeTypes:       cc.MinimizeTypes,
		TypeFormat:          format,
		SerializeDefaults:   cc.SerializeDefaults,
		MixedKeyValue:       cc.MixedKeyValue,
		StrictUnknownFields: cc.StrictUnknownFields,
		RootType:            cc.RootType,
		Indent:              cc.Indent,
		URIHandler:          handler,
		Logger:              logger,
	}, nil
}

// LoadSchema loads the configured schema files.
func (c *Config) LoadSchema() (*schema.Registry, error) {
	if len(c.Schema.Files) == 0 {
		return nil, errors.New(errors.ErrCodeConfiguration, "no schema files configured")
	}
	return schema.LoadFiles(c.Schema.Files...)
}

// NewCodec builds a codec for reg. With operations enabled every
// operation expression is compiled up front.
func (c *Config) NewCodec(reg *schema.Registry, logger *log.Logger) (*codec.Codec, error) {
	opts, err := c.CodecOptions(logger)
	if err != nil {
		return nil, err
	}
	if c.Codec.Operations {
		ev, err := expr.New()
		if err != nil {
			return nil, err
		}
		if err := ev.Validate(reg.Types()); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidSchema, err, "operations")
		}
		opts.Invoker = ev
	}
	return codec.New(reg, opts)
}

// OpenStore opens the configured backend. The result routes file: URIs
// to the local filesystem when the backend is "local", http(s) URIs to
// an HTTP store when enabled, and everything else to the backend.
func (c *Config) OpenStore(ctx context.Context, logger *log.Logger) (*store.Router, error) {
	sc := c.Store
	var (
		backend store.Store
		err     error
	)
	switch sc.Backend {
	case "null":
		backend = store.NewNull()
	case "memory":
		backend = store.NewMemory()
	case "local":
		backend = store.NewLocalRoot(sc.Dir)
	case "file":
		backend, err = store.NewFile(sc.Dir)
	case "redis":
		backend, err = store.OpenRedis(ctx, sc.RedisURL)
	case "badger":
		cfg := store.DefaultBadgerConfig(sc.BadgerPath)
		if sc.BadgerInMemory {
			cfg = store.InMemoryBadgerConfig()
		}
		cfg.Logger = logger
		backend, err = store.OpenBadger(cfg)
	case "mongo":
		backend, err = store.OpenMongo(ctx, sc.MongoURI, sc.MongoDatabase, sc.MongoCollection)
	default:
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown store backend %q", sc.Backend)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "open %s store", sc.Backend)
	}
	if sc.Scope != "" {
		backend = store.NewScoped(backend, sc.Scope)
	}

	r := store.NewRouter(store.Instrument(sc.Backend, backend))
	if sc.HTTP {
		h := store.Instrument("http", store.NewHTTP(nil))
		r.Handle("http", h)
		r.Handle("https", h)
	}
	return r, nil
}
