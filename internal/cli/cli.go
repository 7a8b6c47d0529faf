package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	urfavecli "github.com/urfave/cli/v2"

	"github.com/vk/clustergrid/internal/app"
)

// Version is set at build time.
var Version = "dev"

const name = "clustergrid"

// Run parses args, not including the program name, and executes the
// selected command. Every returned error is an *ExitError.
func Run(ctx context.Context, args []string, outW, errW io.Writer, opts ...app.Option) error {
	cliApp := newCLI(outW, errW, opts)
	err := cliApp.RunContext(ctx, append([]string{name}, args...))
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Anything not raised by a command comes from flag parsing.
	return usageError(err)
}

func newCLI(outW, errW io.Writer, opts []app.Option) *urfavecli.App {
	return &urfavecli.App{
		Name:      name,
		Usage:     "synthesize a Spark cluster topology and its network policy",
		Version:   Version,
		Writer:    outW,
		ErrWriter: errW,
		// Exit codes are decided by the caller.
		ExitErrHandler: func(*urfavecli.Context, error) {},
		Flags: []urfavecli.Flag{
			&urfavecli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"CLUSTERGRID_LOG_LEVEL"},
			},
			&urfavecli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Usage:   "Log output format (text, json)",
				EnvVars: []string{"CLUSTERGRID_LOG_FORMAT"},
			},
			&urfavecli.BoolFlag{
				Name:    "aws-pricing",
				Usage:   "Resolve unknown instance types through the AWS Price List API",
				EnvVars: []string{"CLUSTERGRID_AWS_PRICING"},
			},
		},
		Commands: []*urfavecli.Command{
			{
				Name:      "plan",
				Usage:     "Render the synthesized cluster as an HCL plan",
				ArgsUsage: "PATH",
				Flags: []urfavecli.Flag{
					&urfavecli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Write the plan to this file instead of stdout",
					},
				},
				Action: func(c *urfavecli.Context) error {
					a, err := newApp(c, outW, errW, opts)
					if err != nil {
						return err
					}
					if err := a.Plan(c.Context); err != nil {
						return failure(err)
					}
					return nil
				},
			},
			{
				Name:      "deploy",
				Usage:     "Emit the synthesized cluster to its platform",
				ArgsUsage: "PATH",
				Flags: []urfavecli.Flag{
					&urfavecli.StringFlag{
						Name:    "platform",
						Aliases: []string{"p"},
						Usage:   "Override the platform named by the description",
						EnvVars: []string{"CLUSTERGRID_PLATFORM"},
					},
				},
				Action: func(c *urfavecli.Context) error {
					a, err := newApp(c, outW, errW, opts)
					if err != nil {
						return err
					}
					if err := a.Deploy(c.Context); err != nil {
						return failure(err)
					}
					return nil
				},
			},
			{
				Name:  "version",
				Usage: "Print the version",
				Action: func(c *urfavecli.Context) error {
					_, err := fmt.Fprintf(outW, "%s %s\n", name, Version)
					return err
				},
			},
		},
	}
}

// newApp builds the application from the command's flags and its single
// PATH argument.
func newApp(c *urfavecli.Context, outW, errW io.Writer, opts []app.Option) (*app.App, error) {
	if c.NArg() != 1 {
		return nil, &ExitError{Code: ExitUsage, Message: fmt.Sprintf("%s: expected exactly one PATH argument, got %d", c.Command.Name, c.NArg())}
	}

	cfg, err := app.NewConfig(app.Config{
		Path:       c.Args().First(),
		LogLevel:   c.String("log-level"),
		LogFormat:  c.String("log-format"),
		AWSPricing: c.Bool("aws-pricing"),
		Platform:   c.String("platform"),
		Out:        c.String("out"),
	})
	if err != nil {
		return nil, usageError(err)
	}

	a, err := app.NewApp(c.Context, outW, errW, cfg, opts...)
	if err != nil {
		return nil, failure(err)
	}
	return a, nil
}
