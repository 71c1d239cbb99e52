package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphjson/pkg/dot"
	gjio "github.com/matzehuels/graphjson/pkg/io"
)

type dotOpts struct {
	output   string
	detailed bool
	noRefs   bool
	scale    float64
}

// dotCommand creates the dot command.
func (c *CLI) dotCommand() *cobra.Command {
	var opts dotOpts

	cmd := &cobra.Command{
		Use:   "dot FILE",
		Short: "Draw a document as a node-link diagram",
		Long: `Draw a document as a Graphviz diagram.

The output format follows the extension of -o: .dot writes the DOT source,
.svg renders in-process, .pdf and .png additionally need rsvg-convert.
Without -o the DOT source goes to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDot(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (.dot, .svg, .pdf or .png)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show attribute values in node labels")
	cmd.Flags().BoolVar(&opts.noRefs, "no-refs", false, "omit reference edges")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2.0, "PNG scale factor")

	return cmd
}

func (c *CLI) runDot(cmd *cobra.Command, path string, opts dotOpts) error {
	ctx := cmd.Context()

	_, cd, err := c.setup()
	if err != nil {
		return err
	}
	doc, err := gjio.ImportDocument(ctx, path, cd, nil)
	if err != nil {
		return err
	}
	src := dot.ToDOT(doc, dot.Options{Detailed: opts.detailed, NoReferences: opts.noRefs})

	if opts.output == "" {
		_, err := fmt.Fprint(c.out.w, src)
		return err
	}

	data, err := renderDot(src, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(opts.output, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	c.out.success("Rendered %d nodes", doc.Len())
	c.out.file(opts.output)
	return nil
}

// renderDot converts DOT source to the format implied by the output
// extension.
func renderDot(src string, opts dotOpts) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(opts.output)); ext {
	case ".dot", ".gv":
		return []byte(src), nil
	case ".svg":
		return dot.RenderSVG(src)
	case ".pdf":
		return dot.RenderPDF(src)
	case ".png":
		return dot.RenderPNG(src, opts.scale)
	default:
		return nil, fmt.Errorf("unsupported output format %q (want .dot, .svg, .pdf or .png)", ext)
	}
}
