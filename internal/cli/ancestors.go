package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/family"
)

// ancestorsCommand creates the ancestors command, which lists the ancestor
// chain of one individual.
func (c *CLI) ancestorsCommand() *cobra.Command {
	var (
		strict bool
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:     "ancestors <file.ged> <individual>",
		Short:   "List the ancestors of an individual",
		Example: `  astra ancestors family.ged "John Smith (I1)"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, key := args[0], args[1]
			if err := errors.ValidateSelection(key); err != nil {
				return userError(err)
			}
			data, err := readGEDCOM(path)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return err
			}
			defer runner.Close()

			loaded, err := runner.Load(cmd.Context(), data, strict || c.cfg().Defaults.Strict)
			if err != nil {
				return userError(err)
			}
			chain, err := loaded.Family.Ancestors(loaded.Record, key)
			if err != nil {
				return userError(err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(chain)
			}
			renderAncestors(cmd.OutOrStdout(), loaded.Family, chain)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "reject lines that violate the GEDCOM grammar")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the chain as a JSON array")

	return cmd
}

// renderAncestors prints chain as a table. The first row is the queried
// individual.
func renderAncestors(w io.Writer, fg *family.Graph, chain []string) {
	rows := make([][]string, 0, len(chain))
	for i, key := range chain {
		p := fg.People[key]
		rows = append(rows, []string{strconv.Itoa(i), key, p.BirthDate, p.BirthPlace})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("#", "Individual", "Born", "Place").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == 0:
				return StyleHighlight.Bold(true)
			case col == 0:
				return StyleDim
			}
			return StyleValue
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render(fmt.Sprintf("  %d ancestors", len(chain)-1)))
}
