package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"harlowe-toolbox/internal/filewalker"
	"harlowe-toolbox/internal/interchange"
	"harlowe-toolbox/internal/nouns"
	"harlowe-toolbox/internal/phrases"
	"harlowe-toolbox/internal/slicer"
	"harlowe-toolbox/internal/worker"
)

func (a *app) hydrateCmd() *cobra.Command {
	var (
		glossaryFile string
		flat         bool
	)
	cmd := &cobra.Command{
		Use:   "hydrate <src> <records> <translated> <dst>",
		Short: "Write translated phrases back into the stories under src",
		Long: `Reads the records written by extract and the translated phrase file, restores
fenced proper nouns with their glossary targets and writes every story below
src to the same relative path under dst.

With --flat the translated file is read line by line, without side-car
quoting, and regrouped using the line count of each original phrase.`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHydrate(args[0], args[1], args[2], args[3], glossaryFile, flat)
		},
	}
	cmd.Flags().StringVar(&glossaryFile, "glossary", "", "Glossary CSV (defaults to the Neo4j glossary when configured)")
	cmd.Flags().BoolVar(&flat, "flat", false, "Translated file is plain lines rather than a quoted side-car")
	return cmd
}

func (a *app) runHydrate(src, recordsPath, translatedPath, dst, glossaryFile string, flat bool) error {
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

	records, err := interchange.ReadFile(recordsPath)
	if err != nil {
		return err
	}
	originals := phrases.DedupeOrdered(records)

	translated, err := readTranslations(translatedPath, originals, flat)
	if err != nil {
		return err
	}
	translated = restorePhrases(translated, g)

	if err := d.memory.SetBatch(ctx, phrases.Map(originals, translated)); err != nil {
		log.Warn().Err(err).Msg("Failed to remember translations")
	}

	w := a.walker(rules)
	entries, err := w.Walk(src)
	if err != nil {
		return fmt.Errorf("walk source: %w", err)
	}

	written := replayStories(ctx, w, entries, phrases.ApplyOrdered(records, translated), dst, a.workers)
	if err := ctx.Err(); err != nil {
		return err
	}

	log.Info().
		Str("files", humanize.Comma(int64(written))).
		Str("phrases", humanize.Comma(int64(len(translated)))).
		Str("output", dst).
		Msg("Hydration complete")
	return nil
}

// readTranslations reads the translated phrases and checks they line up
// with originals.
func readTranslations(path string, originals []string, flat bool) ([]string, error) {
	if flat {
		lines, err := phrases.LinesFile(path)
		if err != nil {
			return nil, err
		}
		out, err := phrases.Realign(lines, originals)
		if err != nil {
			return nil, fmt.Errorf("realign %s: %w", path, err)
		}
		return out, nil
	}

	out, err := phrases.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(out) != len(originals) {
		return nil, fmt.Errorf("%s: %w: have %d phrases, want %d", path, phrases.ErrLineCount, len(out), len(originals))
	}
	return out, nil
}

// restorePhrases replaces every fenced noun with its glossary target. Fences
// without a target give back the text they enclose.
func restorePhrases(translated []string, g nouns.Glossary) []string {
	targets := g.Targets()
	out := make([]string, len(translated))
	for i, t := range translated {
		out[i] = nouns.Restore(t, targets)
	}
	return out
}

type passageKey struct {
	pid, name string
}

// groupBySource buckets pieces by file and passage, keeping their order.
func groupBySource(pieces []slicer.Piece) map[string]map[passageKey][]slicer.Piece {
	out := make(map[string]map[passageKey][]slicer.Piece)
	for _, p := range pieces {
		src, ok := interchange.SourceOf(p)
		if !ok {
			log.Warn().Int("start", p.Start).Str("text", p.Text).Msg("Record without origin, skipping")
			continue
		}
		byPassage, ok := out[src.File]
		if !ok {
			byPassage = make(map[passageKey][]slicer.Piece)
			out[src.File] = byPassage
		}
		k := passageKey{pid: src.PID, name: src.Passage}
		byPassage[k] = append(byPassage[k], p)
	}
	return out
}

// replayStories writes every entry to dst with its pieces replayed into the
// matching passages and returns the number of files written. Entries
// without records are copied through their format unchanged.
func replayStories(ctx context.Context, w *filewalker.Walker, entries []filewalker.FileEntry, pieces []slicer.Piece, dst string, workers int) int {
	groups := groupBySource(pieces)

	pool := worker.NewPool[filewalker.FileEntry, int](workers, func(ctx context.Context, entry filewalker.FileEntry) (int, error) {
		st, err := w.Load(entry)
		if err != nil {
			return 0, err
		}

		replayed := 0
		for k, ps := range groups[filepath.ToSlash(entry.Rel)] {
			p, ok := st.Passage(k.pid, k.name)
			if !ok {
				log.Warn().Str("file", entry.Rel).Str("passage", k.name).Str("pid", k.pid).Msg("Passage not found, skipping")
				continue
			}
			p.Content = slicer.Replace(p.Content, ps)
			replayed++
		}

		if err := entry.Format.Save(st, filepath.Join(dst, entry.Rel)); err != nil {
			return 0, fmt.Errorf("save %s: %w", entry.Rel, err)
		}
		return replayed, nil
	})

	written := 0
	seen := make(map[string]bool, len(entries))
	for _, task := range pool.Execute(ctx, entries) {
		seen[filepath.ToSlash(task.Input.Rel)] = true
		if task.Err != nil {
			log.Warn().Err(task.Err).Str("file", task.Input.Path).Msg("Skipping story")
			continue
		}
		log.Debug().Str("file", task.Input.Rel).Int("passages", task.Result).Msg("Replayed story")
		written++
	}

	for file := range groups {
		if !seen[file] {
			log.Warn().Str("file", file).Msg("Records refer to a file missing from the source")
		}
	}
	return written
}
