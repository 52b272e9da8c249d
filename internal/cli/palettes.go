package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/astra/pkg/palette"
)

// palettesCommand creates the palettes command, which lists the built-in and
// configured color schemes.
func (c *CLI) palettesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "palettes",
		Short: "List available color palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			palettes := c.cfg().Registry().All()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(palettes)
			}
			renderPalettes(cmd.OutOrStdout(), palettes, c.defaultPalette())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print palettes as JSON")
	return cmd
}

func (c *CLI) defaultPalette() string {
	if p := c.cfg().Defaults.Palette; p != "" {
		return p
	}
	return palette.Default
}

// renderPalettes prints one row per palette with a swatch per color.
func renderPalettes(w io.Writer, palettes []palette.Palette, current string) {
	rows := make([][]string, 0, len(palettes))
	for _, p := range palettes {
		name := p.Name
		if name == current {
			name += " *"
		}
		rows = append(rows, []string{
			name,
			swatch(p.Background),
			swatch(p.Individual),
			swatch(p.Root),
			swatch(p.Ancestor),
			swatch(p.Highlight),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Palette", "Background", "Individual", "Root", "Ancestor", "Highlight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 && row < len(palettes) && palettes[row].Name == current {
				return StyleHighlight.Bold(true)
			}
			return lipgloss.NewStyle()
		})

	fmt.Fprintln(w, t.Render())
	fmt.Fprintln(w, StyleDim.Render("  * default"))
}
