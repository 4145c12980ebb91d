package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tbourn/retail-chat-dashboard/internal/config"
	"github.com/tbourn/retail-chat-dashboard/internal/dashboard"
	"github.com/tbourn/retail-chat-dashboard/internal/gateway"
	"github.com/tbourn/retail-chat-dashboard/internal/session"
	"github.com/tbourn/retail-chat-dashboard/internal/sysutil"
	"github.com/tbourn/retail-chat-dashboard/internal/tui"
)

const (
	toastTTL   = 6 * time.Second
	keyUserID  = "user_id"
	logFileOut = "dashboard.log"
)

// flagKeys maps command-line flags to viper keys.
var flagKeys = map[string]string{
	"base-url":         "gateway.base_url",
	"user-id":          "gateway.user_id",
	"timeout":          "gateway.timeout",
	"state-dir":        "state.dir",
	"log-level":        "log.level",
	"log-file":         "log.file",
	"multilingual":     "features.multilingual",
	"canned-questions": "features.canned_questions",
	"language":         "features.language",
	"festival-delay":   "festival.delay",
	"webhook":          "mail.webhook_url",
	"mail-timeout":     "mail.timeout",
}

type app struct {
	cfgFile string
	out     io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{out: os.Stdout}
	root := &cobra.Command{
		Use:          "dashboard",
		Short:        "Chat with the retail sales assistant",
		SilenceUsage: true,
		RunE:         a.runTUI,
	}
	root.SetOut(a.out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./dashboard.yaml or <user config dir>/retailchat/dashboard.yaml)")
	pf.String("base-url", "", "gateway base URL, e.g. http://localhost:8080/api/v1")
	pf.String("user-id", "", "user id sent as X-User-ID (generated and remembered when empty)")
	pf.Duration("timeout", 0, "gateway request timeout")
	pf.String("state-dir", "", "directory for the local session database")
	pf.String("log-level", "", "debug|info|warn|error")
	pf.String("log-file", "", "log file (default <state-dir>/dashboard.log)")

	f := root.Flags()
	f.Bool("multilingual", false, "enable the reply-language switch (en, ta, hi)")
	f.Bool("canned-questions", true, "show quick questions")
	f.String("language", "", "initial reply language when multilingual")
	f.Duration("festival-delay", 0, "wait before checking upcoming festivals")

	root.AddCommand(a.loginCmd(), a.logoutCmd(), a.mailCmd(), a.relayCmd())
	return root
}

// load reads the config file, env and the flags of cmd into a ClientConfig.
func (a *app) load(cmd *cobra.Command) (config.ClientConfig, *viper.Viper, error) {
	v, err := config.NewClientViper(a.cfgFile)
	if err != nil {
		return config.ClientConfig{}, nil, err
	}
	for flag, key := range flagKeys {
		if fl := cmd.Flags().Lookup(flag); fl != nil {
			if err := v.BindPFlag(key, fl); err != nil {
				return config.ClientConfig{}, nil, err
			}
		}
	}
	cfg, err := config.LoadClient(v)
	return cfg, v, err
}

// setupLogging points the global logger at the log file; the terminal
// belongs to the UI.
func setupLogging(cfg config.ClientConfig) (func(), error) {
	path := sysutil.FirstNonEmpty(cfg.Log.File, filepath.Join(cfg.State.Dir, logFileOut))
	f, err := sysutil.OpenLogFile(path)
	if err != nil {
		return nil, err
	}
	sysutil.SetupLogger(f, cfg.Log.Level, false)
	return func() { _ = f.Close() }, nil
}

// openSession opens the state store and resolves the user id, generating
// and persisting one on first use.
func openSession(ctx context.Context, cfg config.ClientConfig) (*session.SQLStore, string, error) {
	store, err := session.OpenSQLStore(cfg.State.Dir)
	if err != nil {
		return nil, "", err
	}
	if cfg.Gateway.UserID != "" {
		return store, cfg.Gateway.UserID, nil
	}
	id, err := store.Get(ctx, keyUserID)
	if errors.Is(err, session.ErrNotFound) {
		id = uuid.NewString()
		err = store.Set(ctx, keyUserID, id)
	}
	if err != nil {
		_ = store.Close()
		return nil, "", fmt.Errorf("user id: %w", err)
	}
	return store, id, nil
}

func newClient(cfg config.ClientConfig, userID string) *gateway.Client {
	return gateway.New(cfg.Gateway.BaseURL,
		gateway.WithTimeout(cfg.Gateway.Timeout),
		gateway.WithHealthTimeout(cfg.Gateway.HealthTimeout),
		gateway.WithUserID(userID),
	)
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	cfg, _, err := a.load(cmd)
	if err != nil {
		return err
	}
	closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	store, userID, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	d, err := dashboard.New(newClient(cfg, userID), session.NewManager(store), dashboard.Options{
		Features: dashboard.Features{
			Multilingual:    cfg.Features.Multilingual,
			CannedQuestions: cfg.Features.CannedQuestions,
		},
		Language:      cfg.Features.Language,
		FestivalDelay: cfg.Festival.Delay,
		ToastTTL:      toastTTL,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log.Info().Str("gateway", cfg.Gateway.BaseURL).Str("user_id", userID).Msg("dashboard starting")
	_, err = tea.NewProgram(tui.New(ctx, d), tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
