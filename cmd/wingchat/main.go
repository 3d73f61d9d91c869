package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehrlich-b/wingchat/internal/config"
	"github.com/ehrlich-b/wingchat/internal/logger"
)

var version = "dev"

// app carries the persistent flags and the resolved config to subcommands.
type app struct {
	configPath string
	server     string
	profile    string
	token      string
	logLevel   string
	logFile    string

	cfg      *config.Config
	closeLog func() error
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "wingchat",
		Short:        "Terminal client for agent chat servers",
		Long:         "Connects to an agent server over WebSocket, mirrors its sessions, and lets you chat, run remote shell commands and browse output files.",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a, chatOptions{})
		},
		Args: cobra.NoArgs,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default ~/.wingchat/config.yaml)")
	pf.StringVar(&a.server, "server", "", "agent server URL, e.g. http://localhost:8000")
	pf.StringVar(&a.profile, "profile", "", "UI profile: "+strings.Join(config.BuiltinNames(), ", "))
	pf.StringVar(&a.token, "token", "", "bearer token for the server")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	pf.StringVar(&a.logFile, "log-file", "", "also write logs to this file")

	root.AddCommand(
		chatCmd(a),
		filesCmd(a),
		catCmd(a),
		historyCmd(a),
		configCmd(a),
	)
	return root
}

// setup resolves the config and starts logging.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, file := cfg.Logging.Level, cfg.Logging.File
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFile != "" {
		file = a.logFile
	}
	closer, err := logger.Init(level, config.ExpandHome(file))
	if err != nil {
		return err
	}
	a.closeLog = closer.Close
	return nil
}

// loadConfig reads the config file and applies flag overrides on top of
// file and env values.
func (a *app) loadConfig() (*config.Config, error) {
	path := a.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(config.ExpandHome(path))
	if err != nil {
		return nil, err
	}
	if a.server != "" {
		cfg.Server = a.server
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.profile != "" {
		cfg.Profile = config.ProfileRef{Profile: config.Builtin(a.profile)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
