package cli

import (
	"github.com/spf13/cobra"

	gjio "github.com/matzehuels/graphjson/pkg/io"
)

type convertOpts struct {
	output     string
	indent     string
	typeFormat string
	ids        bool
	noTypes    bool
}

// convertCommand creates the convert command.
func (c *CLI) convertCommand() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Re-encode a document with the configured options",
		Long: `Decode a document and write it back in normalized form.

Flags override the [codec] section of the config file. Without -o the
result goes to stdout.`,
		Example: `  graphjson convert users.json --indent "  "
  graphjson convert users.json --type-format uri --ids -o users.out.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runConvert(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.indent, "indent", "", "indent string for pretty output")
	cmd.Flags().StringVar(&opts.typeFormat, "type-format", "", "type tag format: name, qualified or uri")
	cmd.Flags().BoolVar(&opts.ids, "ids", false, "write node ids, generating missing ones")
	cmd.Flags().BoolVar(&opts.noTypes, "no-types", false, "omit type tags")

	return cmd
}

func (c *CLI) runConvert(cmd *cobra.Command, path string, opts convertOpts) error {
	ctx := cmd.Context()
	prog := newProgress(loggerFromContext(ctx))

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("indent") {
		cfg.Codec.Indent = opts.indent
	}
	if opts.typeFormat != "" {
		cfg.Codec.TypeFormat = opts.typeFormat
	}
	if opts.ids {
		cfg.Codec.UseID = true
		if cfg.Codec.IDStrategy == "" {
			cfg.Codec.IDStrategy = "uuid"
		}
	}
	if opts.noTypes {
		cfg.Codec.SerializeTypes = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	cd, err := c.newCodec(cfg)
	if err != nil {
		return err
	}

	doc, err := gjio.ImportDocument(ctx, path, cd, nil)
	if err != nil {
		return err
	}
	for _, d := range doc.Diagnostics() {
		c.Logger.Warn("diagnostic", "code", d.Code, "offset", d.Offset, "msg", d.Message)
	}

	if opts.output == "" {
		return gjio.WriteDocument(ctx, c.out.w, cd, doc)
	}
	if err := gjio.ExportDocument(ctx, doc, cd, opts.output); err != nil {
		return err
	}
	prog.done("converted", "nodes", doc.Len(), "diagnostics", len(doc.Diagnostics()))
	c.out.success("Converted %s", path)
	c.out.file(opts.output)
	return nil
}
