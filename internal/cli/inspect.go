package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/graphjson/pkg/graph"
	"github.com/matzehuels/graphjson/pkg/resource"
)

type inspectOpts struct {
	resolve bool
	eager   bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var opts inspectOpts

	cmd := &cobra.Command{
		Use:   "inspect FILE|URI",
		Short: "Decode a document and print its structure and diagnostics",
		Long: `Decode a document and print its roots, node count and diagnostics.

References into other documents stay proxies unless --load-refs is given,
which loads the referenced documents through the configured store.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.eager, "load-refs", false, "load referenced documents eagerly")
	cmd.Flags().BoolVar(&opts.resolve, "resolve", false, "also resolve lazy references after loading")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, arg string, opts inspectOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, cd, err := c.setup()
	if err != nil {
		return err
	}
	u, err := documentURI(arg)
	if err != nil {
		return err
	}
	st, err := c.openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	set := resource.NewSet(cd, st, resource.Options{
		EagerProxies: opts.eager || cfg.Store.EagerProxies,
		Logger:       logger,
	})

	spin := newSpinner(ctx, os.Stderr, c.out, "Loading "+arg)
	spin.Start()
	doc, err := set.Load(ctx, u)
	if err != nil {
		spin.StopWithError("Load failed")
		return err
	}
	spin.Stop()

	var stats resource.ProxyStats
	if opts.resolve {
		stats = set.ResolveAllProxies(ctx, doc)
	}

	c.printDocument(doc)
	if docs := set.Documents(); len(docs) > 1 {
		c.out.info("Loaded %d documents", len(docs))
		for _, d := range docs[1:] {
			c.out.file(d.URI)
		}
	}
	if opts.resolve {
		c.out.info("Resolved %d proxies, %d unresolved", stats.Resolved, stats.Unresolved)
	}
	if n := countProxies(doc); n > 0 && !opts.resolve {
		c.out.nextStep("Resolve references", fmt.Sprintf("%s inspect --load-refs --resolve %s", appName, arg))
	}
	return nil
}

// printDocument prints the roots, statistics and diagnostics of doc.
func (c *CLI) printDocument(doc *graph.Document) {
	c.out.title("%s", doc.URI)
	for _, r := range doc.Roots() {
		c.out.keyValue(doc.Fragment(r), r.String())
	}
	c.out.stats(doc.Len(), len(doc.Diagnostics()), countProxies(doc))
	for _, d := range doc.Diagnostics() {
		c.out.warning("%s", d)
	}
}

// countProxies counts distinct proxies referenced from doc.
func countProxies(doc *graph.Document) int {
	seen := make(map[*graph.Node]bool)
	for n := range doc.Nodes() {
		for _, name := range n.Features() {
			collectProxies(n.Get(name), seen)
		}
	}
	return len(seen)
}

func collectProxies(v any, seen map[*graph.Node]bool) {
	switch v := v.(type) {
	case *graph.Node:
		if v.IsProxy() {
			seen[v] = true
		}
	case []*graph.Node:
		for _, n := range v {
			collectProxies(n, seen)
		}
	case *graph.Map:
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			collectProxies(e, seen)
		}
	case []graph.Entry:
		for _, e := range v {
			collectProxies(e.Value, seen)
		}
	}
}
