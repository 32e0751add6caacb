package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultServer_IsValid(t *testing.T) {
	req := require.New(t)

	cfg := DefaultServer()

	req.NoError(cfg.Validate())
	req.Equal("0.0.0.0:18888", cfg.Addr())
	req.Equal(100*time.Millisecond, cfg.PollInterval.Std())
	req.Equal(30*time.Second, cfg.HandshakeTimeout.Std())
	req.Equal("info", cfg.LogLevelStderr)
	req.Equal("debug", cfg.LogLevelFile)
}

func TestDefaultClient_NeedsServerAddress(t *testing.T) {
	req := require.New(t)

	cfg := DefaultClient()
	req.Equal("anonymous", cfg.Name)
	req.Equal("error", cfg.LogLevelStderr)
	req.Error(cfg.Validate())

	cfg.ServerAddress = "localhost"
	req.NoError(cfg.Validate())
	req.Equal("localhost:18888", cfg.Addr())
}

func TestLoadServer_FromFile(t *testing.T) {
	req := require.New(t)

	// Given a config file overriding some fields
	path := writeConfig(t, `
bind_address = "127.0.0.1"
port = 19999
poll_interval = "250ms"
chat_rate = 2.5
chat_burst = 4
`)

	// When it is loaded
	cfg, err := LoadServer(path)

	// Then file values win and the rest keep their defaults
	req.NoError(err)
	req.Equal("127.0.0.1", cfg.BindAddress)
	req.Equal(19999, cfg.Port)
	req.Equal(250*time.Millisecond, cfg.PollInterval.Std())
	req.Equal(2.5, cfg.ChatRate)
	req.Equal(4, cfg.ChatBurst)
	req.Equal(DefaultMaxFrameSize, cfg.MaxFrameSize)
	req.NoError(cfg.Validate())
}

func TestLoadServer_EnvironmentWins(t *testing.T) {
	req := require.New(t)

	path := writeConfig(t, "port = 19999\n")
	t.Setenv("RAT_PORT", "20001")
	t.Setenv("RAT_HANDSHAKE_TIMEOUT", "5s")
	t.Setenv("RAT_LOG_LEVEL_STDERR", "trace")

	cfg, err := LoadServer(path)

	req.NoError(err)
	req.Equal(20001, cfg.Port)
	req.Equal(5*time.Second, cfg.HandshakeTimeout.Std())
	req.Equal("trace", cfg.LogLevelStderr)
}

func TestLoadClient_FromFileAndEnvironment(t *testing.T) {
	req := require.New(t)

	path := writeConfig(t, `
server_address = "chat.example.org"
name = "alice"
`)
	t.Setenv("RAT_NAME", "bob")

	cfg, err := LoadClient(path)

	req.NoError(err)
	req.Equal("chat.example.org", cfg.ServerAddress)
	req.Equal("bob", cfg.Name)
	req.Equal(DefaultPort, cfg.Port)
	req.NoError(cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown key", content: "prot = 1\n"},
		{name: "bad duration", content: "poll_interval = \"soon\"\n"},
		{name: "bad toml", content: "port = \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadServer(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := LoadServer(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	req := require.New(t)

	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)

	path, err := DefaultPath(ServerConfigFile)
	req.NoError(err)
	req.NoFileExists(path)

	_, err = LoadServer("")

	req.NoError(err)
	req.FileExists(path)
}

func TestServer_ValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Server)
	}{
		{name: "port zero", mutate: func(s *Server) { s.Port = 0 }},
		{name: "port too large", mutate: func(s *Server) { s.Port = 70000 }},
		{name: "bind not an ip", mutate: func(s *Server) { s.BindAddress = "not an ip" }},
		{name: "unknown level", mutate: func(s *Server) { s.LogLevelStderr = "loud" }},
		{name: "zero poll interval", mutate: func(s *Server) { s.PollInterval = 0 }},
		{name: "negative handshake", mutate: func(s *Server) { s.HandshakeTimeout = Duration(-time.Second) }},
		{name: "negative rate", mutate: func(s *Server) { s.ChatRate = -1 }},
		{name: "zero frame size", mutate: func(s *Server) { s.MaxFrameSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServer()
			tt.mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestServer_Rows(t *testing.T) {
	rows := DefaultServer().Rows()

	require.Len(t, rows, 11)
	require.Equal(t, []string{"port", "18888"}, rows[1])
	require.Equal(t, []string{"poll_interval", "100ms"}, rows[6])
}

func TestDuration_Text(t *testing.T) {
	req := require.New(t)

	var d Duration
	req.NoError(d.UnmarshalText([]byte("1m30s")))
	req.Equal(90*time.Second, d.Std())

	text, err := d.MarshalText()
	req.NoError(err)
	req.Equal("1m30s", string(text))

	req.Error(d.UnmarshalText([]byte("ninety")))
}
