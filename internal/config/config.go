package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DriverJSON     = "json"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Uploads UploadsConfig
	Stream  StreamConfig
	Log     LogConfig

	v *viper.Viper
}

type ServerConfig struct {
	Host       string
	Port       int
	CORSOrigin string
	BodyLimit  int64
}

type StoreConfig struct {
	Driver string
	Path   string
	DSN    string
}

type UploadsConfig struct {
	Dir string
}

type StreamConfig struct {
	Buffer    int
	Keepalive int // seconds, 0 disables
}

type LogConfig struct {
	Level  string
	Format string
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from defaults, an optional file and the environment.
// Environment variables use the PLATEWATCH_ prefix (PLATEWATCH_STORE_PATH);
// the bare PORT and CORS_ORIGIN variables are honoured as well.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PLATEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PLATEWATCH_SERVER_PORT", "PORT")
	_ = v.BindEnv("server.cors_origin", "PLATEWATCH_SERVER_CORS_ORIGIN", "CORS_ORIGIN")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:       v.GetString("server.host"),
			Port:       v.GetInt("server.port"),
			CORSOrigin: v.GetString("server.cors_origin"),
			BodyLimit:  v.GetInt64("server.body_limit"),
		},
		Store: StoreConfig{
			Driver: strings.ToLower(v.GetString("store.driver")),
			Path:   v.GetString("store.path"),
			DSN:    v.GetString("store.dsn"),
		},
		Uploads: UploadsConfig{
			Dir: v.GetString("uploads.dir"),
		},
		Stream: StreamConfig{
			Buffer:    v.GetInt("stream.buffer"),
			Keepalive: v.GetInt("stream.keepalive"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		v: v,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 4000)
	v.SetDefault("server.cors_origin", "*")
	v.SetDefault("server.body_limit", 5<<20)
	v.SetDefault("store.driver", DriverJSON)
	v.SetDefault("store.path", "data/store.json")
	v.SetDefault("store.dsn", "")
	v.SetDefault("uploads.dir", "data/uploads")
	v.SetDefault("stream.buffer", 16)
	v.SetDefault("stream.keepalive", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("server.body_limit must be positive"))
	}

	switch c.Store.Driver {
	case DriverJSON:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the json driver"))
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn is required for the postgres driver"))
		}
	case DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}

	if c.Uploads.Dir == "" {
		errs = append(errs, errors.New("uploads.dir is required"))
	}
	if c.Stream.Buffer < 1 {
		errs = append(errs, errors.New("stream.buffer must be at least 1"))
	}
	if c.Stream.Keepalive < 0 {
		errs = append(errs, errors.New("stream.keepalive must not be negative"))
	}

	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// OnLogLevelChange watches the config file, if one was loaded, and calls fn with
// the new log.level whenever the file changes.
func (c *Config) OnLogLevelChange(fn func(level string)) bool {
	if c.v == nil || c.v.ConfigFileUsed() == "" {
		return false
	}
	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		fn(c.v.GetString("log.level"))
	})
	c.v.WatchConfig()
	return true
}
