package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func TestLoadConfig(t *testing.T) {
	is := is.New(t)

	path := filepath.Join(t.TempDir(), "steam.toml")
	err := os.WriteFile(path, []byte(`
cm_addr = "127.0.0.1:27017"
username = "file user"
password = "file pass"
chat_room = 110338190870577152
`), 0o600)
	is.NoErr(err)

	t.Setenv("STEAM_CONFIG", path)
	t.Setenv("STEAM_USERNAME", "env user")

	config, err := loadConfig()
	is.NoErr(err)
	is.Equal(config.CMAddr, "127.0.0.1:27017") // from the file
	is.Equal(config.Username, "env user")      // env wins
	is.Equal(config.Password, "file pass")
	is.Equal(config.ChatRoom, uint64(110338190870577152))
	is.Equal(config.LogLevel, "info") // default
}

func TestLoadConfigRequired(t *testing.T) {
	is := is.New(t)

	t.Setenv("STEAM_CONFIG", "")
	t.Setenv("STEAM_CM_ADDR", "127.0.0.1:27017")
	t.Setenv("STEAM_USERNAME", "user")
	t.Setenv("STEAM_PASSWORD", "")

	_, err := loadConfig()
	is.True(err != nil)

	// no address to fall back on
	t.Setenv("STEAM_CM_ADDR", "")
	t.Setenv("STEAM_PASSWORD", "pass")
	_, err = loadConfig()
	is.True(err != nil)

	t.Setenv("STEAM_CM_ADDR", "127.0.0.1:27017")
	config, err := loadConfig()
	is.NoErr(err)
	is.Equal(config.CMAddr, "127.0.0.1:27017")
}

func TestReadSentryHash(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()

	hash, err := readSentryHash(filepath.Join(dir, "missing"))
	is.NoErr(err)
	is.True(hash == nil)

	path := filepath.Join(dir, "sentry.bin")
	is.NoErr(os.WriteFile(path, make([]byte, 20), 0o600))
	hash, err = readSentryHash(path)
	is.NoErr(err)
	is.Equal(len(hash), 20)

	is.NoErr(os.WriteFile(path, []byte("short"), 0o600))
	_, err = readSentryHash(path)
	is.True(err != nil)
}
