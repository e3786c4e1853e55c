package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"harlowe-toolbox/internal/graph"
	"harlowe-toolbox/internal/nouns"
)

var errNoGraph = errors.New("NEO4J_URI is not set")

func (a *app) fenceCmd() *cobra.Command {
	var glossaryFile string
	cmd := &cobra.Command{
		Use:   "fence <file>",
		Short: "Mark every glossary noun in a text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.applyGlossary(cmd, args[0], glossaryFile, func(text string, g nouns.Glossary) string {
				return nouns.Fence(text, g)
			})
		},
	}
	cmd.Flags().StringVar(&glossaryFile, "glossary", "", "Glossary CSV (defaults to the Neo4j glossary when configured)")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var glossaryFile string
	cmd := &cobra.Command{
		Use:   "restore <file>",
		Short: "Replace every fenced noun in a text with its glossary target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.applyGlossary(cmd, args[0], glossaryFile, func(text string, g nouns.Glossary) string {
				return nouns.Restore(text, g.Targets())
			})
		},
	}
	cmd.Flags().StringVar(&glossaryFile, "glossary", "", "Glossary CSV (defaults to the Neo4j glossary when configured)")
	return cmd
}

func (a *app) applyGlossary(cmd *cobra.Command, path, glossaryFile string, apply func(string, nouns.Glossary) string) error {
	ctx, cancel := setupContext()
	defer cancel()

	text, err := readInput(cmd, path)
	if err != nil {
		return err
	}

	var d *deps
	if glossaryFile == "" {
		if d, err = initDependencies(ctx, a.cfg); err != nil {
			return err
		}
		defer d.Close(ctx)
	}
	g, err := d.glossary(ctx, glossaryFile)
	if err != nil {
		return err
	}
	if len(g) == 0 {
		log.Warn().Msg("Glossary is empty")
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), apply(text, g))
	return err
}

func (a *app) glossaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "glossary",
		Short: "Manage the glossary stored in Neo4j",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <csv>",
		Short: "Upsert the rows of a glossary CSV into Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runGlossaryImport(args[0])
		},
	})
	return cmd
}

func (a *app) runGlossaryImport(path string) error {
	if a.cfg.Neo4jURI == "" {
		return errNoGraph
	}

	ctx, cancel := setupContext()
	defer cancel()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open glossary: %w", err)
	}
	defer f.Close()

	rows, err := nouns.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("read glossary %s: %w", path, err)
	}

	d, err := initDependencies(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	b := graph.NewBuilder(d.driver)
	if err := b.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}
	n, err := b.Import(ctx, rows)
	if err != nil {
		return err
	}

	log.Info().Str("file", path).Str("forms", humanize.Comma(int64(n))).Msg("Glossary imported")
	return nil
}
