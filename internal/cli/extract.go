package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"harlowe-toolbox/internal/cache"
	"harlowe-toolbox/internal/filewalker"
	"harlowe-toolbox/internal/interchange"
	"harlowe-toolbox/internal/markup"
	"harlowe-toolbox/internal/nouns"
	"harlowe-toolbox/internal/phrases"
	"harlowe-toolbox/internal/slicer"
	"harlowe-toolbox/internal/story"
	"harlowe-toolbox/internal/worker"
)

// memorySuffix names the side-car of remembered translations written next to
// the phrase file.
const memorySuffix = ".memory"

func (a *app) extractCmd() *cobra.Command {
	var (
		glossaryFile string
		noOptimize   bool
	)
	cmd := &cobra.Command{
		Use:   "extract <src> <records-out> <phrases-out>",
		Short: "Slice every passage of the stories under src into records and a phrase file",
		Long: `Loads the story file or every story file below the src directory, slices the
prose out of each passage and writes:

  records-out   the pieces with their offsets and origin (JSON, or MessagePack
                when the name ends in .mp or .msgpack)
  phrases-out   one distinct phrase per line, proper nouns fenced

With a translation memory configured, phrases-out.memory holds the phrase
file with every remembered translation filled in.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExtract(args[0], args[1], args[2], glossaryFile, !noOptimize)
		},
	}
	cmd.Flags().StringVar(&glossaryFile, "glossary", "", "Glossary CSV (defaults to the Neo4j glossary when configured)")
	cmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "Keep sentences split around inline styles")
	return cmd
}

func (a *app) runExtract(src, recordsOut, phrasesOut, glossaryFile string, optimize bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	rules, err := a.rules()
	if err != nil {
		return err
	}

	d, err := initDependencies(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer d.Close(ctx)

	g, err := d.glossary(ctx, glossaryFile)
	if err != nil {
		return err
	}

	w := a.walker(rules)
	entries, err := w.Walk(src)
	if err != nil {
		return fmt.Errorf("walk source: %w", err)
	}

	records := sliceStories(ctx, w, entries, rules, a.workers, optimize)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := interchange.WriteFile(recordsOut, records); err != nil {
		return fmt.Errorf("write records: %w", err)
	}

	originals := phrases.DedupeOrdered(records)
	fenced := fencePhrases(originals, g)
	if err := phrases.WriteFile(phrasesOut, fenced); err != nil {
		return fmt.Errorf("write phrases: %w", err)
	}

	known, err := writeMemory(ctx, d.memory, phrasesOut+memorySuffix, originals, fenced)
	if err != nil {
		return err
	}

	log.Info().
		Str("files", humanize.Comma(int64(len(entries)))).
		Str("pieces", humanize.Comma(int64(len(records)))).
		Str("phrases", humanize.Comma(int64(len(originals)))).
		Str("remembered", humanize.Comma(int64(known))).
		Msg("Extraction complete")
	return nil
}

// sliceStories loads and slices every entry concurrently and returns the
// pieces in entry order. Files that fail to load are logged and skipped.
func sliceStories(ctx context.Context, w *filewalker.Walker, entries []filewalker.FileEntry, rules markup.Rules, workers int, optimize bool) []slicer.Piece {
	pool := worker.NewPool[filewalker.FileEntry, []slicer.Piece](workers, func(ctx context.Context, entry filewalker.FileEntry) ([]slicer.Piece, error) {
		st, err := w.Load(entry)
		if err != nil {
			return nil, err
		}
		return slicePassages(st, entry.Rel, rules, optimize), nil
	})

	var records []slicer.Piece
	for _, task := range pool.Execute(ctx, entries) {
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", task.Input.Path).Msg("Skipping story")
			continue
		}
		log.Debug().Str("file", task.Input.Rel).Int("pieces", len(task.Result)).Msg("Sliced story")
		records = append(records, task.Result...)
	}
	return records
}

// slicePassages slices each passage of st. Offsets are relative to the
// passage content; the origin travels as an interchange.Source.
func slicePassages(st *story.Story, rel string, rules markup.Rules, optimize bool) []slicer.Piece {
	var out []slicer.Piece
	for _, p := range st.Passages {
		opts := slicer.DefaultOptions()
		opts.WithTypes = optimize
		opts.Extension = interchange.Source{File: filepath.ToSlash(rel), Passage: p.Name, PID: p.PID}

		pieces := slicer.Slice(p.Content, rules, opts)
		if optimize {
			pieces = slicer.Optimize(pieces)
		}
		out = append(out, pieces...)
	}
	return out
}

func fencePhrases(originals []string, g nouns.Glossary) []string {
	if len(g) == 0 {
		return originals
	}
	out := make([]string, len(originals))
	for i, p := range originals {
		out[i] = nouns.Fence(p, g)
	}
	return out
}

// writeMemory writes the phrase file with remembered translations in place
// of their phrases. Nothing is written when no phrase is remembered.
func writeMemory(ctx context.Context, m *cache.Memory, path string, originals, fenced []string) (int, error) {
	if err := m.Preload(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to preload translation memory")
	}
	known := m.Lookup(ctx, originals)
	if len(known) == 0 {
		return 0, nil
	}

	out := make([]string, len(fenced))
	for i, p := range originals {
		if t, ok := known[p]; ok {
			out[i] = t
			continue
		}
		out[i] = fenced[i]
	}
	if err := phrases.WriteFile(path, out); err != nil {
		return 0, fmt.Errorf("write remembered phrases: %w", err)
	}
	return len(known), nil
}
