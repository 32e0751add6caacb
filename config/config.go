// Package config loads the server and client configuration.
//
// Values are layered, later sources overriding earlier ones: built-in
// defaults, a TOML file, a .env file in the working directory, then RAT_*
// environment variables. Command-line flags are applied by the caller before
// Validate.
package config

import (
	"bytes"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	// EnvPrefix prefixes every environment variable, as in RAT_PORT.
	EnvPrefix = "RAT"
	// AppDir is the directory under the user config dir holding config and log files.
	AppDir = "rat"

	ServerConfigFile = "ServerConfig.toml"
	ClientConfigFile = "ClientConfig.toml"
	ServerLogFile    = "Server.log"
	ClientLogFile    = "Client.log"

	DefaultPort         = 18888
	DefaultMaxFrameSize = 1024 * 1024
)

var validate = validator.New()

// Server is the configuration of ratserver.
type Server struct {
	BindAddress      string   `toml:"bind_address" split_words:"true" validate:"required,ip"`
	Port             int      `toml:"port" split_words:"true" validate:"min=1,max=65535"`
	LogLevelStderr   string   `toml:"log_level_stderr" split_words:"true" validate:"oneof=error warn info debug trace"`
	LogLevelFile     string   `toml:"log_level_file" split_words:"true" validate:"oneof=error warn info debug trace"`
	LogFile          string   `toml:"log_file" split_words:"true"`
	MaxFrameSize     int      `toml:"max_frame_size" split_words:"true" validate:"gt=0"`
	PollInterval     Duration `toml:"poll_interval" split_words:"true" validate:"gt=0"`
	HandshakeTimeout Duration `toml:"handshake_timeout" split_words:"true" validate:"gte=0"`
	WriteTimeout     Duration `toml:"write_timeout" split_words:"true" validate:"gte=0"`
	ChatRate         float64  `toml:"chat_rate" split_words:"true" validate:"gte=0"`
	ChatBurst        int      `toml:"chat_burst" split_words:"true" validate:"gte=0"`
}

// Client is the configuration of ratclient.
type Client struct {
	ServerAddress  string   `toml:"server_address" split_words:"true" validate:"required,hostname|ip"`
	Port           int      `toml:"port" split_words:"true" validate:"min=1,max=65535"`
	Name           string   `toml:"name" split_words:"true" validate:"required"`
	LogLevelStderr string   `toml:"log_level_stderr" split_words:"true" validate:"oneof=error warn info debug trace"`
	LogLevelFile   string   `toml:"log_level_file" split_words:"true" validate:"oneof=error warn info debug trace"`
	LogFile        string   `toml:"log_file" split_words:"true"`
	MaxFrameSize   int      `toml:"max_frame_size" split_words:"true" validate:"gt=0"`
	PollInterval   Duration `toml:"poll_interval" split_words:"true" validate:"gt=0"`
}

// DefaultServer returns the built-in server configuration.
func DefaultServer() Server {
	return Server{
		BindAddress:      "0.0.0.0",
		Port:             DefaultPort,
		LogLevelStderr:   "info",
		LogLevelFile:     "debug",
		LogFile:          defaultFile(ServerLogFile),
		MaxFrameSize:     DefaultMaxFrameSize,
		PollInterval:     Duration(100 * time.Millisecond),
		HandshakeTimeout: Duration(30 * time.Second),
	}
}

// DefaultClient returns the built-in client configuration.
// The server address has no default.
func DefaultClient() Client {
	return Client{
		Port:           DefaultPort,
		Name:           "anonymous",
		LogLevelStderr: "error",
		LogLevelFile:   "debug",
		LogFile:        defaultFile(ClientLogFile),
		MaxFrameSize:   DefaultMaxFrameSize,
		PollInterval:   Duration(100 * time.Millisecond),
	}
}

// LoadServer layers the config file at path, the .env file and the
// environment over DefaultServer. An empty path selects ServerConfig.toml in
// the user config dir, which is created empty if missing.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()
	if err := load(path, ServerConfigFile, &cfg); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

// LoadClient is LoadServer for the client.
func LoadClient(path string) (Client, error) {
	cfg := DefaultClient()
	if err := load(path, ClientConfigFile, &cfg); err != nil {
		return Client{}, err
	}
	return cfg, nil
}

// Validate checks every field.
func (s Server) Validate() error {
	return errors.Wrap(validate.Struct(s), "invalid server config")
}

// Validate checks every field.
func (c Client) Validate() error {
	return errors.Wrap(validate.Struct(c), "invalid client config")
}

// Addr returns the listen address.
func (s Server) Addr() string {
	return net.JoinHostPort(s.BindAddress, strconv.Itoa(s.Port))
}

// Addr returns the server address to dial.
func (c Client) Addr() string {
	return net.JoinHostPort(c.ServerAddress, strconv.Itoa(c.Port))
}

// Rows returns the configuration as name/value pairs for display.
func (s Server) Rows() [][]string {
	return [][]string{
		{"bind_address", s.BindAddress},
		{"port", strconv.Itoa(s.Port)},
		{"log_level_stderr", s.LogLevelStderr},
		{"log_level_file", s.LogLevelFile},
		{"log_file", s.LogFile},
		{"max_frame_size", strconv.Itoa(s.MaxFrameSize)},
		{"poll_interval", s.PollInterval.String()},
		{"handshake_timeout", s.HandshakeTimeout.String()},
		{"write_timeout", s.WriteTimeout.String()},
		{"chat_rate", strconv.FormatFloat(s.ChatRate, 'g', -1, 64)},
		{"chat_burst", strconv.Itoa(s.ChatBurst)},
	}
}

// DefaultPath returns file inside the rat directory of the user config dir.
func DefaultPath(file string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "locate user config dir")
	}
	return filepath.Join(dir, AppDir, file), nil
}

func defaultFile(file string) string {
	path, err := DefaultPath(file)
	if err != nil {
		return ""
	}
	return path
}

func load(path, defaultName string, cfg any) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(defaultName); err != nil {
			return err
		}
		if err := ensureFile(path); err != nil {
			return err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}

	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return errors.Wrapf(err, "parse %s", path)
	}

	// Variables already set in the environment win over .env.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "load .env")
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return errors.Wrap(err, "read environment")
	}
	return nil
}

// ensureFile creates an empty file at path, and its directory, if it does not exist.
func ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrap(err, "stat config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "create config dir")
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrap(err, "create config")
	}
	return f.Close()
}
