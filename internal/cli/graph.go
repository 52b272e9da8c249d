package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/astra/pkg/errors"
	"github.com/matzehuels/astra/pkg/graph"
	"github.com/matzehuels/astra/pkg/pipeline"
	"github.com/matzehuels/astra/pkg/session"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	output  string // output file path; empty writes JSON to stdout
	noCache bool   // disable the layout and graph cache
	opts    pipeline.Options
}

// graphCommand creates the graph command, which turns a GEDCOM file into
// the wire graph.
func (c *CLI) graphCommand() *cobra.Command {
	var g graphOpts

	cmd := &cobra.Command{
		Use:   "graph <file.ged>",
		Short: "Build a colored family graph from a GEDCOM file",
		Long: `Build a colored family graph from a GEDCOM file.

The root defaults to the individual with id I1; its ancestors are colored
with the palette's ancestor color. Use --highlight auto to also mark the
individual with id I2.`,
		Example: `  astra graph family.ged -o family.json
  astra graph family.ged --palette Pastel --root "John Smith (I1)" --highlight auto`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGraph(cmd, args[0], g)
		},
	}

	addPipelineFlags(cmd, &g.opts)
	cmd.Flags().StringVarP(&g.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&g.noCache, "no-cache", false, "disable caching and the CLI session")

	return cmd
}

// addPipelineFlags registers the flags shared by commands that run the pipeline.
func addPipelineFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.StringVarP(&opts.Palette, "palette", "p", "", "color palette (see 'astra palettes')")
	f.StringVar(&opts.Root, "root", "", "long id of the root individual, e.g. \"John Smith (I1)\"")
	f.BoolVar(&opts.NoRoot, "no-root", false, "do not select a root; every node gets the individual color")
	f.StringVar(&opts.Highlight, "highlight", "", "long id of an individual to highlight, or \"auto\"")
	f.BoolVar(&opts.SkipAncestors, "no-ancestors", false, "do not color the root's ancestors")
	f.BoolVar(&opts.SkipLayout, "no-layout", false, "omit seed positions")
	f.BoolVar(&opts.Strict, "strict", false, "reject lines that violate the GEDCOM grammar")
	f.StringVar(&opts.Background, "background", "", "background color override (#RRGGBB)")
	f.StringVar(&opts.IndividualColor, "individual-color", "", "individual color override (#RRGGBB)")
	f.StringVar(&opts.RootColor, "root-color", "", "root color override (#RRGGBB)")
	f.StringVar(&opts.AncestorColor, "ancestor-color", "", "ancestor color override (#RRGGBB)")
	f.StringVar(&opts.HighlightColor, "highlight-color", "", "highlight color override (#RRGGBB)")
}

func (c *CLI) runGraph(cmd *cobra.Command, path string, g graphOpts) error {
	ctx := cmd.Context()

	data, err := readGEDCOM(path)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(g.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := g.opts
	c.cfg().apply(&opts)
	opts.Logger = c.Logger
	if !g.noCache {
		opts.SessionID = session.CLISessionID()
	}

	prog := newProgress(c.Logger)
	var sp *Spinner
	if g.output != "" {
		sp = newSpinner(ctx, cmd.ErrOrStderr(), "Building graph...")
		sp.Start()
	}
	result, err := runner.Execute(ctx, data, opts)
	if sp != nil {
		sp.Stop()
	}
	if err != nil {
		return userError(err)
	}
	prog.done(fmt.Sprintf("Built graph for %s", filepath.Base(path)))

	if result.CacheInfo.LayoutInvalidated {
		c.Logger.Info("file changed since last run, layout reset")
	}

	if g.output == "" {
		return graph.WriteGraph(result.Graph, cmd.OutOrStdout())
	}
	if err := graph.WriteGraphFile(result.Graph, g.output); err != nil {
		return err
	}

	printSuccess("Graph written")
	printFile(g.output)
	printStats(result.Stats.NodeCount, result.Stats.EdgeCount, result.Stats.Anomalies, result.CacheInfo.GraphHit)
	if result.Graph.Root != "" {
		printKeyValue("Root", result.Graph.Root)
	}
	if result.Graph.Highlight != "" {
		printKeyValue("Highlight", result.Graph.Highlight)
	}
	printKeyValue("Palette", result.Palette.Name)
	if result.Graph.Root != "" {
		printNextStep("Ancestors", fmt.Sprintf("astra ancestors %s %q", path, result.Graph.Root))
	}
	return nil
}

// readGEDCOM reads a .ged file from disk.
func readGEDCOM(path string) ([]byte, error) {
	if err := errors.ValidateUploadName(filepath.Base(path)); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// userError replaces coded errors with their user-facing message.
func userError(err error) error {
	if errors.GetCode(err) == "" {
		return err
	}
	return fmt.Errorf("%s", errors.UserMessage(err))
}
