package cli

import (
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/astra/pkg/family"
)

// pickCommand creates the pick command: choose the root and highlighted
// individual interactively, then build the graph as "astra graph" does.
func (c *CLI) pickCommand() *cobra.Command {
	var g graphOpts

	cmd := &cobra.Command{
		Use:   "pick <file.ged>",
		Short: "Pick the root and highlight interactively, then build the graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := readGEDCOM(path)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			loaded, err := runner.Load(cmd.Context(), data, g.opts.Strict || c.cfg().Defaults.Strict)
			runner.Close()
			if err != nil {
				return userError(err)
			}
			fg := loaded.Family
			if len(fg.Nodes) == 0 {
				printWarning("No related individuals in %s", path)
				return nil
			}

			sorted := family.SortedNodes(fg.Nodes)
			root, ok, err := runPicker(NewPersonListModel("Select Root", fg, sorted, family.DefaultRoot(sorted)))
			if err != nil {
				return err
			}
			if !ok {
				printDetail("No selection made")
				return nil
			}

			rest := slices.DeleteFunc(slices.Clone(sorted), func(k string) bool { return k == root })
			if len(rest) > 0 {
				m := NewPersonListModel("Select Highlight", fg, rest, family.DefaultHighlight(sorted, root))
				m.Optional = true
				highlight, ok, err := runPicker(m)
				if err != nil {
					return err
				}
				if !ok {
					printDetail("No selection made")
					return nil
				}
				g.opts.Highlight = highlight
			}

			g.opts.Root = root
			g.opts.NoRoot = false
			return c.runGraph(cmd, path, g)
		},
	}

	addPipelineFlags(cmd, &g.opts)
	cmd.Flags().StringVarP(&g.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&g.noCache, "no-cache", false, "disable caching and the CLI session")

	return cmd
}

// runPicker runs m and returns the selection. ok is false when the user quit;
// a skipped optional list returns "" and true.
func runPicker(m PersonListModel) (selected string, ok bool, err error) {
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", false, err
	}
	fm, isModel := final.(PersonListModel)
	if !isModel {
		return "", false, nil
	}
	if fm.Skipped {
		return "", true, nil
	}
	return fm.Selected, fm.Selected != "", nil
}
