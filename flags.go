package msgkeep

import (
	"github.com/urfave/cli/v2"
)

// Flags returns the standard argument surface for msgkeep-aware hook
// commands, so hook authors wire the shared options without redefining
// them. The commit message file itself is positional (the pre-commit
// framework passes it as the first argument).
func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "workdir",
			Usage: "repository directory the hook runs against (default: current directory)",
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "override the directory holding the message store and log",
		},
	}
}

// MessageFile extracts the commit message file path from a CLI context:
// the first positional argument.
func MessageFile(c *cli.Context) string {
	return c.Args().First()
}

// FromContext builds a Keeper honoring the standard flags. Extra
// options are applied after the flag-derived ones and win on conflict.
func FromContext(c *cli.Context, opts ...Option) *Keeper {
	base := make([]Option, 0, len(opts)+2)
	if dir := c.String("workdir"); dir != "" {
		base = append(base, WithWorkDir(dir))
	}
	if dir := c.String("cache-dir"); dir != "" {
		base = append(base, WithCacheDir(dir))
	}
	return New(append(base, opts...)...)
}
