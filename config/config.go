// Package config loads client settings from a .prisma-go config file,
// .env files and PRISMA_GO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/satishbabariya/prisma-engine-go/engine"
	"github.com/satishbabariya/prisma-engine-go/transport"
)

// AppFs is the filesystem config and env files are read from.
var AppFs = afero.NewOsFs()

const (
	// PrismaVersion is the Prisma release the client targets.
	PrismaVersion = "5.4.2"

	supportedVersions = ">= 4.16.0"
	jsonProtocol      = ">= 5.0.0"
)

// Config holds the client configuration.
type Config struct {
	SchemaPath     string
	PrismaVersion  string
	Engine         EngineConfig
	ConnectTimeout time.Duration
	HTTP           HTTPConfig
	Tx             TxConfig
	LogQueries     bool
	Debug          bool
	Playground     bool
	Datasources    []engine.DatasourceOverride
	S3             transport.S3Options
}

// EngineConfig locates the query engine binary.
type EngineConfig struct {
	Binary   string
	CacheDir string
	Version  string
	Protocol engine.Protocol
	Mirror   string
	Platform string
}

// HTTPConfig configures the engine HTTP session.
type HTTPConfig struct {
	Timeout        time.Duration
	MaxConnections int
}

// TxConfig holds interactive transaction defaults.
type TxConfig struct {
	MaxWait time.Duration
	Timeout time.Duration
}

type loadOptions struct {
	fs          afero.Fs
	dir         string
	configFile  string
	searchPaths []string
	dotenv      bool
}

// Option configures Load.
type Option func(*loadOptions)

// WithFs reads config and env files from fs.
func WithFs(fs afero.Fs) Option { return func(o *loadOptions) { o.fs = fs } }

// WithDir resolves .env files relative to dir.
func WithDir(dir string) Option { return func(o *loadOptions) { o.dir = dir } }

// WithConfigFile reads an explicit config file instead of searching.
func WithConfigFile(path string) Option { return func(o *loadOptions) { o.configFile = path } }

// WithSearchPaths replaces the config file search paths.
func WithSearchPaths(paths ...string) Option {
	return func(o *loadOptions) { o.searchPaths = paths }
}

// WithoutDotenv skips .env files.
func WithoutDotenv() Option { return func(o *loadOptions) { o.dotenv = false } }

func defaultSearchPaths() []string {
	paths := []string{"."}
	if home, err := homedir.Dir(); err == nil {
		paths = append(paths, home, filepath.Join(home, ".config", "prisma-go"))
	}
	return paths
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("schema_path", "schema.prisma")
	v.SetDefault("prisma_version", PrismaVersion)
	v.SetDefault("engine.binary", "")
	v.SetDefault("engine.cache_dir", engine.DefaultCacheDir())
	v.SetDefault("engine.version", engine.Version)
	v.SetDefault("engine.protocol", string(engine.ProtocolGraphQL))
	v.SetDefault("engine.mirror", engine.DefaultMirror)
	v.SetDefault("engine.platform", engine.Platform())
	v.SetDefault("connect_timeout", engine.DefaultConnectTimeout)
	v.SetDefault("http.timeout", transport.DefaultTimeout)
	v.SetDefault("http.max_connections", transport.DefaultMaxConnections)
	v.SetDefault("tx.max_wait", 2*time.Second)
	v.SetDefault("tx.timeout", 5*time.Second)
	v.SetDefault("log_queries", false)
	v.SetDefault("debug", false)
	v.SetDefault("playground", false)
	v.SetDefault("s3.region", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.access_key", "")
	v.SetDefault("s3.secret_key", "")
}

// Load reads the configuration. A missing config file is not an error.
func Load(opts ...Option) (*Config, error) {
	o := loadOptions{fs: AppFs, dotenv: true}
	for _, opt := range opts {
		opt(&o)
	}

	// .env files are loaded first so PRISMA_GO_* values in them are seen.
	if o.dotenv {
		if err := loadDotenv(o.fs, o.dir); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetFs(o.fs)
	setDefaults(v)

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
	} else {
		v.SetConfigName(".prisma-go")
		v.SetConfigType("yaml")
		paths := o.searchPaths
		if paths == nil {
			paths = defaultSearchPaths()
		}
		for _, p := range paths {
			v.AddConfigPath(p)
		}
	}

	v.SetEnvPrefix("PRISMA_GO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		SchemaPath:    v.GetString("schema_path"),
		PrismaVersion: v.GetString("prisma_version"),
		Engine: EngineConfig{
			Binary:   v.GetString("engine.binary"),
			CacheDir: expand(v.GetString("engine.cache_dir")),
			Version:  v.GetString("engine.version"),
			Protocol: engine.Protocol(v.GetString("engine.protocol")),
			Mirror:   v.GetString("engine.mirror"),
			Platform: v.GetString("engine.platform"),
		},
		ConnectTimeout: v.GetDuration("connect_timeout"),
		HTTP: HTTPConfig{
			Timeout:        v.GetDuration("http.timeout"),
			MaxConnections: v.GetInt("http.max_connections"),
		},
		Tx: TxConfig{
			MaxWait: v.GetDuration("tx.max_wait"),
			Timeout: v.GetDuration("tx.timeout"),
		},
		LogQueries: v.GetBool("log_queries"),
		Debug:      v.GetBool("debug"),
		Playground: v.GetBool("playground"),
		S3: transport.S3Options{
			Region:    v.GetString("s3.region"),
			Endpoint:  v.GetString("s3.endpoint"),
			AccessKey: v.GetString("s3.access_key"),
			SecretKey: v.GetString("s3.secret_key"),
		},
	}
	if err := v.UnmarshalKey("datasources", &cfg.Datasources); err != nil {
		return nil, fmt.Errorf("failed to read datasources: %w", err)
	}
	return cfg, nil
}

// loadDotenv loads .env and prisma/.env without overriding the
// environment, then lets .env.local override everything.
func loadDotenv(fs afero.Fs, dir string) error {
	for _, name := range []string{".env", filepath.Join("prisma", ".env")} {
		if err := applyEnvFile(fs, filepath.Join(dir, name), false); err != nil {
			return err
		}
	}
	return applyEnvFile(fs, filepath.Join(dir, ".env.local"), true)
}

func applyEnvFile(fs afero.Fs, path string, override bool) error {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	vars, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	for k, val := range vars {
		if _, set := os.LookupEnv(k); set && !override {
			continue
		}
		if err := os.Setenv(k, val); err != nil {
			return err
		}
	}
	return nil
}

func expand(path string) string {
	p, err := homedir.Expand(path)
	if err != nil {
		return path
	}
	return p
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch c.Engine.Protocol {
	case engine.ProtocolGraphQL, engine.ProtocolJSON:
	default:
		return fmt.Errorf("unknown engine protocol %q, expected graphql or json", c.Engine.Protocol)
	}

	v, err := version.NewVersion(c.PrismaVersion)
	if err != nil {
		return fmt.Errorf("invalid prisma_version %q: %w", c.PrismaVersion, err)
	}
	supported, _ := version.NewConstraint(supportedVersions)
	if !supported.Check(v) {
		return fmt.Errorf("prisma version %s is not supported, expected %s", v, supportedVersions)
	}
	if c.Engine.Protocol == engine.ProtocolJSON {
		jsonOK, _ := version.NewConstraint(jsonProtocol)
		if !jsonOK.Check(v) {
			return fmt.Errorf("the json protocol requires prisma %s, got %s", jsonProtocol, v)
		}
	}

	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be positive")
	}
	if c.HTTP.Timeout <= 0 {
		return fmt.Errorf("http.timeout must be positive")
	}
	if c.HTTP.MaxConnections <= 0 {
		return fmt.Errorf("http.max_connections must be positive")
	}
	if c.Tx.MaxWait <= 0 || c.Tx.Timeout <= 0 {
		return fmt.Errorf("tx.max_wait and tx.timeout must be positive")
	}
	for _, ds := range c.Datasources {
		if err := ds.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Resolver returns the binary resolver described by the configuration.
func (c *Config) Resolver() *engine.BinaryResolver {
	r := engine.NewBinaryResolver()
	r.Binary = c.Engine.Binary
	r.CacheDir = c.Engine.CacheDir
	r.Version = c.Engine.Version
	if c.Engine.Platform != "" {
		r.Platform = c.Engine.Platform
	}
	return r
}

// TransportOptions returns the HTTP session options.
func (c *Config) TransportOptions() []transport.Option {
	return []transport.Option{
		transport.WithTimeout(c.HTTP.Timeout),
		transport.WithMaxConnections(c.HTTP.MaxConnections),
		transport.WithS3(c.S3),
	}
}

// EngineOptions returns the controller options.
func (c *Config) EngineOptions() []engine.Option {
	opts := []engine.Option{
		engine.WithSchemaPath(c.SchemaPath),
		engine.WithProtocol(c.Engine.Protocol),
		engine.WithLogQueries(c.LogQueries),
		engine.WithDebug(c.Debug),
		engine.WithPlayground(c.Playground),
		engine.WithConnectTimeout(c.ConnectTimeout),
		engine.WithResolver(c.Resolver()),
		engine.WithTransport(c.TransportOptions()...),
	}
	if len(c.Datasources) > 0 {
		opts = append(opts, engine.WithDatasources(c.Datasources...))
	}
	return opts
}

// Save writes the configuration to ~/.config/prisma-go/.prisma-go.yaml.
func Save(cfg *Config) error {
	home, err := homedir.Dir()
	if err != nil {
		return err
	}
	return SaveTo(cfg, filepath.Join(home, ".config", "prisma-go", ".prisma-go.yaml"))
}

// SaveTo writes the persisted subset of cfg to path.
func SaveTo(cfg *Config, path string) error {
	v := viper.New()
	v.SetFs(AppFs)
	v.Set("schema_path", cfg.SchemaPath)
	v.Set("prisma_version", cfg.PrismaVersion)
	v.Set("engine.binary", cfg.Engine.Binary)
	v.Set("engine.cache_dir", cfg.Engine.CacheDir)
	v.Set("engine.version", cfg.Engine.Version)
	v.Set("engine.protocol", string(cfg.Engine.Protocol))
	v.Set("engine.mirror", cfg.Engine.Mirror)
	v.Set("log_queries", cfg.LogQueries)
	v.Set("debug", cfg.Debug)

	if err := AppFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return v.WriteConfigAs(path)
}
