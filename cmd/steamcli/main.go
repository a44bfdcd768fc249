package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/blukai/steamcm/internal/cmconn"
	"github.com/blukai/steamcm/internal/protocol"
	"github.com/blukai/steamcm/internal/steamclient"
	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"github.com/phuslu/log"
)

type Config struct {
	// CMAddr has no default. only the unencrypted side of the protocol is
	// spoken, the public servers stop talking right after the handshake; it
	// is meant for a server like the one in internal/cmserver.
	CMAddr   string `toml:"cm_addr" envconfig:"STEAM_CM_ADDR"`
	Username string `toml:"username" envconfig:"STEAM_USERNAME"`
	Password string `toml:"password" envconfig:"STEAM_PASSWORD"`
	AuthCode string `toml:"auth_code" envconfig:"STEAM_AUTH_CODE"`

	// SentryFile keeps the sentry digest between runs so that steam guard
	// asks for a code only once.
	SentryFile  string `toml:"sentry_file" envconfig:"STEAM_SENTRY_FILE"`
	PersonaName string `toml:"persona_name" envconfig:"STEAM_PERSONA_NAME"`

	// ChatRoom is the steam id of a room to join after logon, 0 for none.
	ChatRoom uint64 `toml:"chat_room" envconfig:"STEAM_CHAT_ROOM"`

	LogLevel string `toml:"log_level" envconfig:"STEAM_LOG_LEVEL"`
}

// loadConfig reads the toml file named by STEAM_CONFIG, if any, and then lets
// the environment override it.
func loadConfig() (*Config, error) {
	config := &Config{
		SentryFile: "sentry.bin",
		LogLevel:   "info",
	}

	if path := os.Getenv("STEAM_CONFIG"); path != "" {
		if _, err := toml.DecodeFile(path, config); err != nil {
			return nil, fmt.Errorf("could not decode %s: %w", path, err)
		}
	}

	// NOTE(blukai): no default or required tags, envconfig would apply them
	// over whatever came from the file.
	if err := envconfig.Process("", config); err != nil {
		return nil, err
	}

	if config.CMAddr == "" {
		return nil, errors.New("cm address is required")
	}
	if config.Username == "" || config.Password == "" {
		return nil, errors.New("username and password are required")
	}
	return config, nil
}

func configureLogger(level string) *log.Logger {
	logger := log.DefaultLogger

	// https://github.com/phuslu/log?tab=readme-ov-file#pretty-console-writer
	logger.Caller = 1
	logger.Level = log.ParseLevel(level)
	logger.TimeFormat = "15:04:05"
	logger.Writer = &log.ConsoleWriter{
		ColorOutput:    true,
		QuoteString:    true,
		EndWithMessage: true,
	}

	return &logger
}

func readSentryHash(path string) ([]byte, error) {
	hash, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(hash) != 20 {
		return nil, fmt.Errorf("sentry file %s holds %d bytes, want 20", path, len(hash))
	}
	return hash, nil
}

type app struct {
	config *Config
	creds  steamclient.Credentials
	logger *log.Logger
	client *steamclient.Client
}

func (a *app) events() steamclient.Events {
	return steamclient.Events{
		OnHandshake:       a.onHandshake,
		OnLogOn:           a.onLogOn,
		OnSentry:          a.onSentry,
		OnUserInfo:        a.onUserInfo,
		OnChatEnter:       a.onChatEnter,
		OnChatStateChange: a.onChatStateChange,
		OnChatMsg:         a.onChatMsg,
	}
}

func (a *app) onHandshake() {
	if err := a.client.LogOn(a.creds); err != nil {
		a.logger.Error().Msgf("could not log on: %v", err)
	}
}

func (a *app) onLogOn(result protocol.EResult, steamID protocol.SteamID) {
	if result != protocol.EResultOK {
		a.logger.Error().Msgf("logon failed: %s", result)
		return
	}
	a.logger.Info().Msgf("logged on as %s", steamID)

	if err := a.client.SetPersonaState(protocol.EPersonaStateOnline, a.config.PersonaName); err != nil {
		a.logger.Error().Msgf("could not go online: %v", err)
	}
	if a.config.ChatRoom != 0 {
		if err := a.client.JoinChat(protocol.SteamID(a.config.ChatRoom)); err != nil {
			a.logger.Error().Msgf("could not join chat: %v", err)
		}
	}
}

func (a *app) onSentry(digest [20]byte) {
	if err := os.WriteFile(a.config.SentryFile, digest[:], 0o600); err != nil {
		a.logger.Error().Msgf("could not save sentry: %v", err)
		return
	}
	a.logger.Info().Msgf("saved sentry to %s", a.config.SentryFile)
}

func (a *app) onUserInfo(friendID, sourceID protocol.SteamID, name string) {
	a.logger.Info().
		Stringer("friend", friendID).
		Stringer("source", sourceID).
		Msgf("user info: %s", name)
}

func (a *app) onChatEnter(
	roomID protocol.SteamID,
	response protocol.EChatRoomEnterResponse,
	name string,
	memberCount uint32,
	members protocol.ChatMembers,
) {
	a.logger.Info().
		Stringer("room", roomID).
		Uint32("response", uint32(response)).
		Uint32("members", memberCount).
		Msgf("entered %s", name)

	for i := 0; i < members.Len(); i++ {
		member := members.At(i)
		a.logger.Debug().
			Stringer("room", roomID).
			Uint32("permissions", uint32(member.Permissions)).
			Msgf("member %s", member.SteamID)
	}
}

func (a *app) onChatStateChange(
	roomID, actedBy, actedOn protocol.SteamID,
	change protocol.EChatMemberStateChange,
	_ protocol.ChatMember,
) {
	a.logger.Info().
		Stringer("room", roomID).
		Stringer("acted_by", actedBy).
		Stringer("acted_on", actedOn).
		Msgf("state change %#x", uint32(change))
}

func (a *app) onChatMsg(roomID, chatterID protocol.SteamID, text string) {
	a.logger.Info().
		Stringer("room", roomID).
		Stringer("chatter", chatterID).
		Msg(text)
}

func erringMain() error {
	config, err := loadConfig()
	if err != nil {
		return fmt.Errorf("could not process config: %w", err)
	}

	logger := configureLogger(config.LogLevel)

	sentryHash, err := readSentryHash(config.SentryFile)
	if err != nil {
		return fmt.Errorf("could not read sentry: %w", err)
	}
	a := &app{
		config: config,
		creds: steamclient.Credentials{
			Username:   config.Username,
			Password:   config.Password,
			SentryHash: sentryHash,
			AuthCode:   config.AuthCode,
		},
		logger: logger,
	}

	wg := new(sync.WaitGroup)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	conn, err := cmconn.Dial(ctx, "tcp", config.CMAddr, logger)
	if err != nil {
		return fmt.Errorf("could not connect: %w", err)
	}
	logger.Info().Msgf("connected to %s", config.CMAddr)

	a.client = steamclient.NewClient(conn, steamclient.Config{
		Events: a.events(),
		Logger: logger,
	})

	wg.Add(1)
	var connRunErr error
	go func() {
		defer wg.Done()
		connRunErr = conn.Run(ctx)
	}()

	wg.Add(1)
	var clientRunErr error
	go func() {
		defer wg.Done()
		// the connection is useless without its client and the other way
		// around
		defer cancel()
		clientRunErr = a.client.Run(ctx, conn.Frames())
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-signalChan:
		logger.Info().Msgf("received %+v signal", sig)
	case <-ctx.Done():
	}

	cancel()
	wg.Wait()

	var errs error
	if connRunErr != nil {
		errs = multierror.Append(errs, fmt.Errorf("connection failed: %w", connRunErr))
	}
	if clientRunErr != nil && !errors.Is(clientRunErr, steamclient.ErrConnectionClosed) {
		errs = multierror.Append(errs, fmt.Errorf("client failed: %w", clientRunErr))
	}
	return errs
}

func main() {
	if err := erringMain(); err != nil {
		fmt.Fprintf(os.Stderr, "fucky wucky! %v\n", err)
		os.Exit(42)
	}
}
