// Package cli implements the personamesh CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/hupe1980/personamesh"
	"github.com/hupe1980/personamesh/config"
	"github.com/hupe1980/personamesh/core"
	"github.com/hupe1980/personamesh/logging"
	"github.com/hupe1980/personamesh/memory/sqlite"
	"github.com/hupe1980/personamesh/model"
	"github.com/hupe1980/personamesh/model/anthropic"
	"github.com/hupe1980/personamesh/model/openai"
	"github.com/hupe1980/personamesh/session"
	"github.com/spf13/cobra"
)

var (
	dbPath      string
	cfgPath     string
	sessionID   string
	userID      string
	backendName string
	verbose     bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:     "personamesh",
	Short:   "Stateful companion-agent engine",
	Long:    "Retention and fusion engine for long-running conversational agents: affect, drives, identity canon and consolidating memory behind a single chat loop.",
	Version: personamesh.Version,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "SQLite path for long-term memory (default: in-memory only)")
	RootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "YAML config file (default: built-in defaults)")
	RootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "default", "Session id")
	RootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "user", "Conversation partner id")
	RootCmd.PersistentFlags().StringVarP(&backendName, "backend", "b", "", "Generation backend: anthropic, openai or mock (default: none)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func loadConfig() config.Config {
	if cfgPath == "" {
		return config.Default()
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		exitErr("load config", err)
	}
	return cfg
}

// storeOpener shares one database file across the CLI process; the CLI drives
// a single session at a time.
func storeOpener() session.StoreOpener {
	if dbPath == "" {
		return nil
	}
	return func(string) (core.RecordStore, core.CanonStore, func() error, error) {
		s, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, s, s.Close, nil
	}
}

func newBackend() model.Backend {
	switch backendName {
	case "":
		return nil
	case "anthropic":
		return anthropic.New()
	case "openai":
		return openai.New()
	case "mock":
		return model.NewMockBackend("mock")
	default:
		exitErr("backend", fmt.Errorf("unknown backend %q", backendName))
		return nil
	}
}

func newLogger() logging.Logger {
	lc := logging.DefaultLoggerConfig()
	lc.Format = "text"
	lc.Output = os.Stderr
	if verbose {
		lc.Level = logging.LogLevelDebug
	}
	return logging.NewLogger(lc).WithComponent("cli").WithSession(sessionID, "")
}

func newMesh() *personamesh.PersonaMesh {
	return personamesh.New(func(o *personamesh.Options) {
		o.Config = loadConfig()
		o.Backend = newBackend()
		o.StoreOpener = storeOpener()
		o.UserID = userID
		o.Logger = newLogger()
	})
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
