// Command planmon dispatches a security-testing workflow to a remote engine
// and monitors its event stream, capturing the engine's reasoning, plan, and
// findings into a per-run summary artifact.
package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/planmon/planmon/internal/client"
	"github.com/planmon/planmon/internal/config"
	"github.com/planmon/planmon/internal/logging"
	"github.com/planmon/planmon/internal/monitor"
	"github.com/planmon/planmon/internal/render"
	"github.com/planmon/planmon/internal/report"
	"github.com/planmon/planmon/internal/session"
	"github.com/planmon/planmon/internal/tui"
)

var (
	cfgFile string
	cfg     config.Config

	flagTarget      string
	flagDescription string
	flagLive        bool
	flagDebug       bool
)

var rootCmd = &cobra.Command{
	Use:   "planmon",
	Short: "Monitor AI security test planning workflows",
	Long: `planmon sends a test request to a workflow engine, subscribes to the
engine's event stream, and captures its thought process, execution plan, and
findings. Each run writes an ai-analysis-<workflow-id>.json summary.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/planmon/config.yaml)")

	rootCmd.Flags().StringVarP(&flagTarget, "target", "t", "", "target URL to test (required)")
	rootCmd.Flags().StringVarP(&flagDescription, "description", "d",
		"Comprehensive security assessment of the target", "test description and objectives")
	rootCmd.Flags().String("scope", "/*", "scope of testing")
	rootCmd.Flags().String("backend", "", "workflow engine base URL")
	rootCmd.Flags().String("ws", "", "event stream URL (default: derived from backend)")
	rootCmd.Flags().StringP("output-dir", "o", "", "directory for summary artifacts")
	rootCmd.Flags().BoolVar(&flagLive, "live", false, "render events in a live terminal view")
	rootCmd.Flags().BoolVar(&flagDebug, "debug", false, "write debug logs to planmon-debug.log")

	rootCmd.Flags().Bool("recon", true, "include reconnaissance")
	rootCmd.Flags().Bool("subdomains", true, "include subdomain enumeration")
	rootCmd.Flags().Bool("auth", true, "test authentication")
	rootCmd.Flags().Bool("apis", true, "test APIs")
	rootCmd.Flags().Int("max-initial-tests", 5, "cap on initial tests the engine schedules")

	_ = rootCmd.MarkFlagRequired("target")

	_ = viper.BindPFlag("scope", rootCmd.Flags().Lookup("scope"))
	_ = viper.BindPFlag("backend", rootCmd.Flags().Lookup("backend"))
	_ = viper.BindPFlag("ws", rootCmd.Flags().Lookup("ws"))
	_ = viper.BindPFlag("output_dir", rootCmd.Flags().Lookup("output-dir"))
	_ = viper.BindPFlag("options.recon", rootCmd.Flags().Lookup("recon"))
	_ = viper.BindPFlag("options.subdomains", rootCmd.Flags().Lookup("subdomains"))
	_ = viper.BindPFlag("options.auth", rootCmd.Flags().Lookup("auth"))
	_ = viper.BindPFlag("options.apis", rootCmd.Flags().Lookup("apis"))
	_ = viper.BindPFlag("options.max_initial_tests", rootCmd.Flags().Lookup("max-initial-tests"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("backend", defaults.Backend)
	viper.SetDefault("scope", defaults.Scope)
	viper.SetDefault("test_type", defaults.TestType)
	viper.SetDefault("output_dir", defaults.OutputDir)
	viper.SetDefault("poll_interval", defaults.PollInterval)
	viper.SetDefault("request_timeout", defaults.RequestTimeout)
	viper.SetDefault("options.verbose", defaults.Options.Verbose)
	viper.SetDefault("options.capture_reasoning", defaults.Options.CaptureReasoning)
	viper.SetDefault("options.show_thoughts", defaults.Options.ShowThoughts)

	viper.SetEnvPrefix("PLANMON")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, _ := os.UserHomeDir()
		viper.AddConfigPath(filepath.Join(home, ".config", "planmon"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "planmon", "config.yaml")
				if writeErr := config.WriteDefault(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func run(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if flagDebug || os.Getenv("PLANMON_DEBUG") != "" {
		cleanup, err := logging.Init("planmon-debug.log")
		if err != nil {
			return err
		}
		defer cleanup()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New()
	req := client.WorkflowRequest{
		WorkflowID:  sess.ID,
		Target:      flagTarget,
		Scope:       cfg.Scope,
		Description: flagDescription,
		TestType:    cfg.TestType,
		Options:     cfg.Options.Wire(),
	}

	wsURL := cfg.WS
	if wsURL == "" {
		wsURL = deriveWSURL(cfg.Backend)
	}

	dispatcher := client.NewDispatcher(cfg.Backend, cfg.RequestTimeout)
	events := client.NewEventClient(wsURL, sess.ID, cfg.PollInterval)
	writer := report.NewWriter(cfg.OutputDir)

	if flagLive {
		return runLive(ctx, dispatcher, events, writer, sess, req)
	}

	console := render.NewConsole(os.Stdout, 0)
	mon := monitor.New(dispatcher, events, console, writer, sess, req)
	_, err := mon.Run(ctx)
	return err
}

// runLive runs the supervisor underneath a Bubble Tea program. Quitting the
// view follows the same path as an operator interrupt, so the summary is
// still finalized and reprinted after the screen is restored.
func runLive(ctx context.Context, dispatcher *client.Dispatcher, events *client.EventClient, writer *report.Writer, sess *session.Session, req client.WorkflowRequest) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := tui.New(cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())
	mon := monitor.New(dispatcher, events, tui.NewForwarder(p), writer, sess, req)

	type result struct {
		sum report.Summary
		err error
	}
	done := make(chan result, 1)
	go func() {
		sum, err := mon.Run(runCtx)
		done <- result{sum, err}
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return err
	}
	cancel()
	res := <-done

	// Re-print the summary on the normal terminal once the alt screen is gone.
	console := render.NewConsole(os.Stdout, 0)
	console.Render(render.SummaryAction{
		WorkflowID:    res.sum.WorkflowID,
		Duration:      res.sum.Duration,
		ThoughtCount:  len(res.sum.AIThoughts),
		FindingCount:  len(res.sum.Findings),
		PlanGenerated: res.sum.TestPlan != nil,
		OutputPath:    writer.Path(res.sum.WorkflowID),
	})
	return res.err
}

// deriveWSURL converts an http(s) backend base URL to its ws(s) stream URL.
func deriveWSURL(backend string) string {
	u, err := url.Parse(backend)
	if err != nil || u.Host == "" {
		return "ws://127.0.0.1:8001/ws"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/ws", scheme, u.Host)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
