package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/ehrlich-b/wingchat/internal/api"
	"github.com/ehrlich-b/wingchat/internal/chat"
	"github.com/ehrlich-b/wingchat/internal/config"
	"github.com/ehrlich-b/wingchat/internal/logger"
	"github.com/ehrlich-b/wingchat/internal/store"
	"github.com/ehrlich-b/wingchat/internal/ui"
	"github.com/ehrlich-b/wingchat/internal/ws"
)

const agentConfigTimeout = 3 * time.Second

type chatOptions struct {
	transcript string
}

func chatCmd(a *app) *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open an interactive chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, a, opts)
		},
	}
	cmd.Flags().StringVar(&opts.transcript, "transcript", "", "record the conversation to this sqlite file")
	return cmd
}

// view is what the banner and explorer show, from the profile refined by
// the server's own /api/config.
type view struct {
	title     string
	welcome   string
	outputDir string
	labels    chat.Labels
}

func resolveView(ctx context.Context, p config.Profile, client *api.Client) view {
	v := view{title: p.Title, welcome: p.Welcome, outputDir: p.OutputDir, labels: p.ResolvedLabels()}

	ctx, cancel := context.WithTimeout(ctx, agentConfigTimeout)
	defer cancel()
	ac, err := client.Config(ctx)
	if err != nil {
		logger.Debug("agent config unavailable", "err", err)
		return v
	}
	if t := ac.Title(); t != "" {
		v.title = t
	}
	if ac.Agent.WelcomeMessage != "" {
		v.welcome = ac.Agent.WelcomeMessage
	}
	if ac.Files.OutputDirectory != "" {
		v.outputDir = ac.Files.OutputDirectory
	}
	if len(ac.Tools.DisplayNames) > 0 {
		names := make(map[string]string, len(ac.Tools.DisplayNames)+len(v.labels.DisplayNames))
		for k, n := range ac.Tools.DisplayNames {
			names[k] = n
		}
		// locally configured names win
		for k, n := range v.labels.DisplayNames {
			names[k] = n
		}
		v.labels.DisplayNames = names
	}
	return v
}

func runChat(cmd *cobra.Command, a *app, opts chatOptions) error {
	cfg := a.cfg
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL, err := cfg.WSURL()
	if err != nil {
		return err
	}
	apiClient := api.NewClient(cfg.APIBase(), cfg.Token)
	v := resolveView(ctx, cfg.Profile.Profile, apiClient)

	out := cmd.OutOrStdout()
	renderer := ui.NewRenderer(ui.DefaultTheme())
	if w, ok := termWidth(out); ok {
		renderer.SetWidth(w)
	}
	printer := ui.NewPrinter(renderer, out)
	observers := []func(chat.Change){printer.Observe}

	transcript := opts.transcript
	if transcript == "" {
		transcript = cfg.Transcript
	}
	if transcript != "" {
		st, err := openTranscript(transcript)
		if err != nil {
			return err
		}
		defer st.Close()
		observers = append(observers, store.NewRecorder(st, cfg.Profile.Name, logger.With("transcript")).Observe)
	}

	client := ws.NewClient(wsURL)
	client.Token = cfg.Token
	client.Policy = cfg.Policy()
	client.Logger = logger.With("ws")
	if cfg.SendRate > 0 {
		burst := cfg.SendBurst
		if burst < 1 {
			burst = 1
		}
		client.Limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), burst)
	}

	ctrlOpts := []chat.Option{
		chat.WithLogger(logger.With("chat")),
		chat.WithObserver(fanOut(observers...)),
	}
	if d := cfg.CreateTimeoutDuration(); d > 0 {
		ctrlOpts = append(ctrlOpts, chat.WithCreateTimeout(d))
	}
	ctrl := chat.NewController(chat.NewStore(v.labels), client, ctrlOpts...)
	defer ctrl.Close()
	client.OnFrame = ctrl.HandleFrame
	client.OnStateChange = ctrl.HandleStatus

	replCtx, cancelREPL := context.WithCancel(ctx)
	defer cancelREPL()
	done := make(chan error, 1)
	go func() {
		err := client.Run(ctx)
		done <- err
		cancelREPL()
	}()

	repl := ui.NewREPL(ctrl, client, apiClient, printer, ui.Options{
		Title:     v.title,
		Welcome:   v.welcome,
		OutputDir: v.outputDir,
		Logger:    logger.With("repl"),
	})
	replErr := repl.Run(replCtx, cmd.InOrStdin())

	client.Close()
	runErr := <-done
	if replErr != nil {
		return replErr
	}
	if runErr != nil && !errors.Is(runErr, ws.ErrClosed) && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// fanOut delivers each change to every observer in order.
func fanOut(observers ...func(chat.Change)) func(chat.Change) {
	return func(ch chat.Change) {
		for _, o := range observers {
			o(ch)
		}
	}
}
