package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"harlowe-toolbox/internal/cache"
	"harlowe-toolbox/internal/config"
	"harlowe-toolbox/internal/filewalker"
	"harlowe-toolbox/internal/grammar"
	"harlowe-toolbox/internal/graph"
	"harlowe-toolbox/internal/markup"
	"harlowe-toolbox/internal/nouns"
	"harlowe-toolbox/internal/passage"
	"harlowe-toolbox/internal/story"
)

// app holds the settings shared by every command.
type app struct {
	cfg *config.Config

	grammarFile string
	workers     int
	leading     int
	trailing    int
}

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "harlowe-toolbox",
		Short: "Extract and replay translatable text in Harlowe stories",
		Long: `Lexes Harlowe markup into a token tree, slices out the prose worth
translating and writes it back into Twine archives or sectioned text files.
Proper nouns listed in a glossary are fenced before translation and restored
afterwards.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.cfg = config.Load()
			level, err := zerolog.ParseLevel(a.cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("parse LOG_LEVEL: %w", err)
			}
			zerolog.SetGlobalLevel(level)

			flags := cmd.Flags()
			if !flags.Changed("grammar") {
				a.grammarFile = a.cfg.GrammarFile
			}
			if !flags.Changed("workers") {
				a.workers = a.cfg.WorkerCount
			}
			if !flags.Changed("leading") {
				a.leading = a.cfg.LeadingReturns
			}
			if !flags.Changed("trailing") {
				a.trailing = a.cfg.TrailingReturns
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.grammarFile, "grammar", "", "TOML rule table replacing the built-in Harlowe grammar")
	pf.IntVar(&a.workers, "workers", 8, "Number of files processed concurrently")
	pf.IntVar(&a.leading, "leading", 0, "Line breaks before a section header that belong to it")
	pf.IntVar(&a.trailing, "trailing", 1, "Line breaks after a section header that belong to it")

	rootCmd.AddCommand(a.extractCmd())
	rootCmd.AddCommand(a.hydrateCmd())
	rootCmd.AddCommand(a.sliceCmd())
	rootCmd.AddCommand(a.walkCmd())
	rootCmd.AddCommand(a.fenceCmd())
	rootCmd.AddCommand(a.restoreCmd())
	rootCmd.AddCommand(a.glossaryCmd())

	return rootCmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// rules returns the configured rule table.
func (a *app) rules() (markup.Rules, error) {
	if a.grammarFile == "" {
		return grammar.Harlowe(), nil
	}
	rules, err := grammar.LoadFile(a.grammarFile)
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	log.Info().Str("file", a.grammarFile).Int("rules", len(rules)).Msg("Loaded grammar")
	return rules, nil
}

// walker returns a file walker over every supported story format.
func (a *app) walker(rules markup.Rules) *filewalker.Walker {
	return filewalker.NewWalker(
		story.NewHTMLFormat(),
		story.NewTextFormat(rules, passage.Options{Leading: a.leading, Trailing: a.trailing}),
	)
}

// deps holds the optional external stores. Both are disabled by leaving
// their connection setting empty.
type deps struct {
	pool   *pgxpool.Pool
	driver neo4j.DriverWithContext
	memory *cache.Memory
}

// initDependencies connects the configured stores and prepares their schema.
func initDependencies(ctx context.Context, cfg *config.Config) (*deps, error) {
	d := &deps{}

	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect PostgreSQL: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping PostgreSQL: %w", err)
		}
		log.Info().Msg("Connected to PostgreSQL")
		d.pool = pool
		d.memory = cache.New(pool)
	} else {
		d.memory = cache.New(nil)
	}

	if err := d.memory.EnsureSchema(ctx); err != nil {
		d.Close(ctx)
		return nil, err
	}

	if cfg.Neo4jURI != "" {
		driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
		if err != nil {
			d.Close(ctx)
			return nil, fmt.Errorf("connect Neo4j: %w", err)
		}
		if err := driver.VerifyConnectivity(ctx); err != nil {
			driver.Close(ctx)
			d.Close(ctx)
			return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
		}
		log.Info().Msg("Connected to Neo4j")
		d.driver = driver
	}

	return d, nil
}

func (d *deps) Close(ctx context.Context) {
	if d.pool != nil {
		d.pool.Close()
	}
	if d.driver != nil {
		if err := d.driver.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("Close Neo4j driver")
		}
	}
}

// glossary loads the glossary from a CSV file when path is set, otherwise
// from the graph when one is connected. With neither, the glossary is empty.
func (d *deps) glossary(ctx context.Context, path string) (nouns.Glossary, error) {
	if path != "" {
		g, err := nouns.LoadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("load glossary: %w", err)
		}
		log.Info().Str("file", path).Int("names", len(g)).Int("forms", g.Len()).Msg("Loaded glossary")
		return g, nil
	}
	if d != nil && d.driver != nil {
		return graph.NewQuerier(d.driver).Load(ctx)
	}
	return nil, nil
}

// readInput reads a file, or stdin for "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		raw, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(raw), nil
}
