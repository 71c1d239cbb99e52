package cli

import (
	"context"
	"os"
)

// Execute runs the graphjson CLI with ctx and returns the first command
// error. Logs go to stderr at info level, or debug with --verbose.
func Execute(ctx context.Context) error {
	c := New(os.Stderr, LogInfo)
	return c.RootCommand().ExecuteContext(ctx)
}
