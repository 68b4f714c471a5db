// cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/cuakit/api/schemas"
	"github.com/xkilldash9x/cuakit/internal/agent"
	"github.com/xkilldash9x/cuakit/internal/computer"
	"github.com/xkilldash9x/cuakit/internal/computer/dockerdesktop"
	"github.com/xkilldash9x/cuakit/internal/computer/localbrowser"
	"github.com/xkilldash9x/cuakit/internal/config"
	"github.com/xkilldash9x/cuakit/internal/memory"
	"github.com/xkilldash9x/cuakit/internal/modelclient"
	"github.com/xkilldash9x/cuakit/internal/observability"
)

var runFlags struct {
	computer   string
	input      string
	debug      bool
	show       bool
	startURL   string
	memoryFile string
	memoryDB   string
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent loop against a computer backend.",
	Long: `Starts the turn loop: reads user input lines, sends the conversation to
the model, executes requested actions against the selected backend, and
prints the model's messages. Type "exit" to quit.`,
	RunE: runAgent,
}

func init() {
	runCmd.Flags().StringVar(&runFlags.computer, "computer", "local-browser", "computer backend: local-browser or docker-desktop")
	runCmd.Flags().StringVar(&runFlags.input, "input", "", "initial input to use instead of asking for the first line")
	runCmd.Flags().BoolVar(&runFlags.debug, "debug", false, "enable debug output for the turn loop")
	runCmd.Flags().BoolVar(&runFlags.show, "show", false, "save screenshots during execution and log their paths")
	runCmd.Flags().StringVar(&runFlags.startURL, "start-url", "", "start the browsing session at this URL (browser backends only)")
	runCmd.Flags().StringVar(&runFlags.memoryFile, "memory-file", "", "path to the file memory provider's backing file")
	runCmd.Flags().StringVar(&runFlags.memoryDB, "memory-db", "", "path to the sqlite memory provider's database")
	rootCmd.AddCommand(runCmd)
}

func runAgent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := observability.GetLogger()
	applyRunFlags(cfg)

	comp, cleanup, err := newComputer(ctx, runFlags.computer, cfg, logger)
	if err != nil {
		return err
	}
	// The backend session spans the whole run; release it on every exit path.
	defer cleanup()

	providers, closeProviders, err := newMemoryProviders(cfg.Memory, logger)
	if err != nil {
		return err
	}
	defer closeProviders()

	model, err := modelclient.New(cfg.Model, logger)
	if err != nil {
		return err
	}

	stdin := bufio.NewReader(os.Stdin)
	opts := agent.Options{
		AcknowledgeSafetyCheck: promptSafetyCheck(stdin),
		Blocklist:              cfg.Agent.Blocklist,
		Debug:                  cfg.Agent.Debug,
		Logger:                 logger,
	}
	if cfg.Agent.PrintSteps {
		opts.StepWriter = os.Stdout
	}
	if cfg.Agent.ShowImages {
		opts.OnScreenshot = saveScreenshot(logger)
	}

	ag, err := agent.New(model, comp, providers, opts)
	if err != nil {
		return err
	}

	if browser, ok := comp.(computer.BrowserComputer); ok && cfg.Browser.StartURL != "" {
		if err := browser.Navigate(ctx, cfg.Browser.StartURL); err != nil {
			return fmt.Errorf("opening start URL: %w", err)
		}
	}

	return interactiveLoop(ctx, ag, stdin, runFlags.input)
}

// interactiveLoop reads user lines until the literal "exit" (or EOF), running
// one full turn per line and carrying the complete history forward.
func interactiveLoop(ctx context.Context, ag *agent.Agent, stdin *bufio.Reader, initialInput string) error {
	var history []schemas.Item
	pending := initialInput

	for {
		line := pending
		pending = ""
		if line == "" {
			fmt.Print("> ")
			text, err := stdin.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					fmt.Println()
					return nil
				}
				return fmt.Errorf("reading input: %w", err)
			}
			line = strings.TrimSpace(text)
		}
		if line == "" {
			continue
		}
		if line == "exit" {
			return nil
		}

		history = append(history, schemas.UserMessage(line))
		generated, err := ag.RunTurn(ctx, history)
		if err != nil {
			return err
		}
		history = append(history, generated...)
	}
}

// applyRunFlags layers the run command's flags over the loaded config.
func applyRunFlags(cfg *config.Config) {
	if runFlags.debug {
		cfg.Agent.Debug = true
	}
	if runFlags.show {
		cfg.Agent.ShowImages = true
	}
	if runFlags.startURL != "" {
		cfg.Browser.StartURL = runFlags.startURL
	}
	if runFlags.memoryFile != "" {
		cfg.Memory.FilePath = runFlags.memoryFile
	}
	if runFlags.memoryDB != "" {
		cfg.Memory.SQLitePath = runFlags.memoryDB
	}
}

// newComputer builds the selected backend and its teardown function.
func newComputer(ctx context.Context, name string, cfg *config.Config, logger *zap.Logger) (computer.Computer, func(), error) {
	switch name {
	case "local-browser":
		browser, err := localbrowser.New(ctx, cfg.Browser, logger)
		if err != nil {
			return nil, nil, err
		}
		return browser, func() {
			if err := browser.Close(); err != nil {
				logger.Warn("Browser teardown failed", zap.Error(err))
			}
		}, nil
	case "docker-desktop":
		desktop, err := dockerdesktop.New(ctx, cfg.Docker, logger)
		if err != nil {
			return nil, nil, err
		}
		return desktop, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown computer backend %q (want local-browser or docker-desktop)", name)
	}
}

// newMemoryProviders builds the configured providers in deterministic order:
// file first, then sqlite. Order matters because the first provider declaring
// a tool name wins at dispatch time.
func newMemoryProviders(cfg config.MemoryConfig, logger *zap.Logger) ([]memory.Provider, func(), error) {
	var providers []memory.Provider
	var closers []func() error

	if cfg.FilePath != "" {
		p, err := memory.NewFileProvider(cfg.FilePath, logger)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, p)
	}
	if cfg.SQLitePath != "" {
		p, err := memory.NewSQLiteProvider(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		providers = append(providers, p)
		closers = append(closers, p.Close)
	}

	cleanup := func() {
		for _, closeFn := range closers {
			if err := closeFn(); err != nil {
				logger.Warn("Memory provider teardown failed", zap.Error(err))
			}
		}
	}
	return providers, cleanup, nil
}

// promptSafetyCheck asks the operator to acknowledge a pending safety check.
func promptSafetyCheck(stdin *bufio.Reader) agent.AcknowledgeFunc {
	return func(message string) bool {
		fmt.Printf("Safety check: %s\nAcknowledge and proceed? (y/n): ", message)
		text, err := stdin.ReadString('\n')
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(text), "y")
	}
}

// saveScreenshot writes each captured screenshot to a temp file and logs the
// path, since terminal image display is environment-dependent.
func saveScreenshot(logger *zap.Logger) agent.ScreenshotFunc {
	return func(imageB64 string) {
		data, err := base64.StdEncoding.DecodeString(imageB64)
		if err != nil {
			logger.Warn("Screenshot was not valid base64", zap.Error(err))
			return
		}
		f, err := os.CreateTemp("", "cuakit-screenshot-*.png")
		if err != nil {
			logger.Warn("Could not create screenshot file", zap.Error(err))
			return
		}
		defer f.Close()
		if _, err := f.Write(data); err != nil {
			logger.Warn("Could not write screenshot file", zap.Error(err))
			return
		}
		logger.Info("Screenshot saved", zap.String("path", f.Name()))
	}
}
