package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"content_repurposer/config"
	"content_repurposer/generator"
	"content_repurposer/logger"
	"content_repurposer/observability"
	"content_repurposer/style"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}
}

// app holds what every subcommand needs once the config is loaded.
type app struct {
	configPath string
	cfg        config.Config
	log        *logger.Logger
	shutdown   func(context.Context) error
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "repurposer",
		Short:         "Turn one transcript into a thread, a post and a newsletter",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close(cmd.Context())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "config/config.json", "path to config file (.json or .toml)")

	rootCmd.AddCommand(newRunCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newStylesCommand(a))
	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.cfg = cfg
	a.log = log
	if cfg.Tracing.Enabled {
		shutdown, err := observability.InitTracer(os.Stderr)
		if err != nil {
			return err
		}
		a.shutdown = shutdown
	}
	return nil
}

func (a *app) close(ctx context.Context) error {
	if a.log != nil {
		defer a.log.Sync()
	}
	if a.shutdown != nil {
		return a.shutdown(ctx)
	}
	return nil
}

// openStyles opens the style store. When required is false a broken store only degrades
// style resolution to the built-in default.
func (a *app) openStyles(ctx context.Context, required bool) (*style.GormStore, error) {
	store, err := style.Open(a.cfg.Style.DSN, a.log)
	if err != nil {
		if required {
			return nil, err
		}
		a.log.Warn("style_store_unavailable", "error", err)
		return nil, nil
	}
	if a.cfg.Style.SeedFile != "" {
		if _, err := store.LoadSeedFile(ctx, a.cfg.Style.SeedFile); err != nil {
			a.log.Warn("style_seed_failed", "path", a.cfg.Style.SeedFile, "error", err)
		}
	}
	return store, nil
}

// buildAgent wires the analytical and creative backends behind one router.
func (a *app) buildAgent() (*generator.Agent, error) {
	analytical, err := buildLLM(a.cfg.Analytical)
	if err != nil {
		return nil, fmt.Errorf("analytical: %w", err)
	}
	creative, err := buildLLM(a.cfg.Creative)
	if err != nil {
		return nil, fmt.Errorf("creative: %w", err)
	}
	router, err := generator.NewRouter(analytical, creative)
	if err != nil {
		return nil, err
	}
	return generator.NewAgent(router, a.log)
}

func buildLLM(cfg config.LLMConfig) (generator.LLMClient, error) {
	if cfg.Provider == "" {
		return nil, fmt.Errorf("llm config missing; please set provider/model/api_key_env in config")
	}
	switch cfg.Provider {
	case config.ProviderMock:
		return generator.MockLLM{}, nil
	case config.ProviderOpenAI:
		settings := cfg.Settings()
		return generator.NewOpenAILLMFromConfig(&settings)
	case config.ProviderDeepSeek:
		// DeepSeek 提供 OpenAI 兼容接口，需填写 base_url（例如官方/网关地址）。
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		settings := cfg.Settings()
		return generator.NewOpenAILLMFromConfig(&settings)
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
