package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphjson/pkg/errors"
)

// storeCommand creates the store command.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Read and write documents in the configured store",
		Long: `Read and write documents in the store selected by the [store] section
of the config file. Documents are decoded before they are written, so the
store only holds normalized JSON.`,
	}

	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// storeGetCommand creates the "store get" subcommand.
func (c *CLI) storeGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			data, ok, err := st.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return errors.New(errors.ErrCodeDocumentNotFound, "%s not found", args[0])
			}
			_, err = fmt.Fprintln(c.out.w, string(data))
			return err
		},
	}
}

// storePutCommand creates the "store put" subcommand.
func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY FILE",
		Short: "Normalize a document and store it under KEY",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, path := args[0], args[1]
			cfg, cd, err := c.setup()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc, err := cd.Unmarshal(ctx, data, key, nil)
			if err != nil {
				return err
			}
			out, err := cd.Marshal(ctx, doc)
			if err != nil {
				return err
			}

			st, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Set(ctx, key, out, cfg.Store.TTL.Duration); err != nil {
				return err
			}

			c.out.success("Stored %s", key)
			c.out.stats(doc.Len(), len(doc.Diagnostics()), countProxies(doc))
			for _, d := range doc.Diagnostics() {
				c.out.warning("%s", d)
			}
			return nil
		},
	}
}

// storeDeleteCommand creates the "store delete" subcommand.
func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY",
		Aliases: []string{"rm"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			st, err := c.openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			c.out.success("Deleted %s", args[0])
			return nil
		},
	}
}
