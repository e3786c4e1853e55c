package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"harlowe-toolbox/internal/interchange"
	"harlowe-toolbox/internal/markup"
	"harlowe-toolbox/internal/slicer"
	"harlowe-toolbox/internal/textutil"
)

func (a *app) sliceCmd() *cobra.Command {
	var (
		included []string
		skipped  []string
		shallow  bool
		topLevel bool
		types    bool
		optimize bool
		output   string
	)
	cmd := &cobra.Command{
		Use:   "slice <file>",
		Short: "Print the pieces extracted from one passage text",
		Long: `Treats the whole file as one passage, slices it and prints the pieces as
JSON. With --output the pieces are written to a record file instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.rules()
			if err != nil {
				return err
			}
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			opts := slicer.Options{
				Included:  kinds(included),
				Skipped:   kinds(skipped),
				Shallow:   shallow,
				TopLevel:  topLevel,
				WithTypes: types || optimize,
			}
			pieces := slicer.Slice(src, rules, opts)
			if optimize {
				pieces = slicer.Optimize(pieces)
			}

			if output != "" {
				return interchange.WriteFile(output, pieces)
			}
			return interchange.Encode(cmd.OutOrStdout(), pieces, false)
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&included, "include", []string{string(markup.KindText)}, "Kinds extracted as pieces")
	f.StringSliceVar(&skipped, "skip", []string{string(markup.KindMacro)}, "Kinds pruned without extraction")
	f.BoolVar(&shallow, "shallow", false, "Never descend, not even into the root")
	f.BoolVar(&topLevel, "top-level", false, "Only look at the top-level nodes")
	f.BoolVar(&types, "types", false, "Record the ancestor kinds of each piece")
	f.BoolVar(&optimize, "optimize", false, "Rejoin sentences split around inline styles")
	f.StringVarP(&output, "output", "o", "", "Write a record file instead of printing")
	return cmd
}

func kinds(names []string) []markup.Kind {
	out := make([]markup.Kind, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, markup.Kind(n))
		}
	}
	return out
}

func (a *app) walkCmd() *cobra.Command {
	var (
		check bool
		width int
	)
	cmd := &cobra.Command{
		Use:   "walk <file>",
		Short: "Print the token tree of a passage text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := a.rules()
			if err != nil {
				return err
			}
			src, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			root := markup.Lex(src, rules)
			if check {
				if err := markup.Check(root, src); err != nil {
					return fmt.Errorf("check tree: %w", err)
				}
			}
			printTree(cmd.OutOrStdout(), root, width)
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "Verify offsets and nesting of every token")
	cmd.Flags().IntVar(&width, "width", 60, "Truncate token text to this display width")
	return cmd
}

var kindColors = map[markup.Kind]*color.Color{
	markup.KindRoot:     color.New(color.Bold),
	markup.KindBreak:    color.New(color.Faint),
	markup.KindComment:  color.New(color.FgGreen),
	markup.KindVerbatim: color.New(color.FgGreen),
	markup.KindMacro:    color.New(color.FgMagenta),
	markup.KindHook:     color.New(color.FgCyan),
	markup.KindHookRef:  color.New(color.FgCyan),
	markup.KindLink:     color.New(color.FgBlue),
	markup.KindHTML:     color.New(color.FgRed),
	markup.KindVariable: color.New(color.FgYellow),
	markup.KindTempVar:  color.New(color.FgYellow),
	markup.KindString:   color.New(color.FgHiGreen),
	markup.KindNumber:   color.New(color.FgHiBlue),
	markup.KindCSS:      color.New(color.FgHiBlue),
	markup.KindOperator: color.New(color.FgHiMagenta),
}

func colorize(k markup.Kind, s string) string {
	if c, ok := kindColors[k]; ok {
		return c.Sprint(s)
	}
	return s
}

// printTree writes one line per token, indented by depth.
func printTree(out io.Writer, root *markup.Token, width int) {
	w := markup.NewWalker(root)
	for {
		ev, ok := w.Step()
		if !ok {
			break
		}
		if !ev.Entering {
			continue
		}
		node := ev.Node
		indent := strings.Repeat("  ", w.Depth()-1)
		fmt.Fprintf(out, "%s%s %d..%d", indent, colorize(node.Kind, node.Label()), node.Start, node.End)
		if !node.IsContainer() && node.Text != "" {
			fmt.Fprintf(out, " %s", strconv.Quote(textutil.Truncate(node.Text, width)))
		}
		fmt.Fprintln(out)
	}
}
