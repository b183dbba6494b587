package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fatih/color"
	"github.com/urfave/cli"

	"github.com/zeusync/ppersist/internal/core/codec"
	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/internal/injector"
	"github.com/zeusync/ppersist/pkg/concurrent"
	"github.com/zeusync/ppersist/pkg/ppersist"
	"github.com/zeusync/ppersist/pkg/value"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "YAML configuration `FILE`",
	}
	logLevelFlag = cli.StringFlag{
		Name:  "log-level",
		Usage: "override the configured log level (debug, info, warn, error, none)",
	}
	trustedFlag = cli.BoolFlag{
		Name:  "trusted",
		Usage: "decode types outside the allow-list; only for files you produced yourself",
	}

	heading  = color.New(color.FgCyan, color.Bold)
	faint    = color.New(color.FgHiBlack)
	failure  = color.New(color.FgRed, color.Bold)
	accepted = color.New(color.FgGreen)
)

func main() {
	app := cli.NewApp()
	app.Name = "ppersist"
	app.Usage = "inspect allow-list gated value blobs"
	app.Version = fmt.Sprintf("format v%d", codec.FormatVersion)
	app.Flags = []cli.Flag{configFlag, logLevelFlag}
	app.Commands = []cli.Command{
		{
			Name:      "inspect",
			Usage:     "decode files and list their fields",
			ArgsUsage: "FILE...",
			Flags:     []cli.Flag{trustedFlag},
			Action:    inspect,
		},
		{
			Name:      "tags",
			Usage:     "list the type tags a file references, without decoding it",
			ArgsUsage: "FILE",
			Action:    tags,
		},
		{
			Name:   "allowlist",
			Usage:  "print the tags the decoder accepts",
			Action: allowlist,
		},
		{
			Name:      "fetch",
			Usage:     "download a blob over HTTP and list its fields",
			ArgsUsage: "URL",
			Action:    fetch,
		},
	}

	if err := app.Run(os.Args); err != nil {
		failure.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func setup(c *cli.Context) (*injector.App, error) {
	return injector.InitializeApp(
		injector.ConfigPath(c.GlobalString("config")),
		injector.LogLevel(c.GlobalString(logLevelFlag.Name)),
	)
}

type inspected struct {
	path   string
	bundle *value.Bundle
}

func inspect(c *cli.Context) error {
	if len(c.Args()) == 0 {
		return cli.NewExitError("inspect needs at least one FILE", 2)
	}
	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	var opts []ppersist.LoadOption
	if c.Bool(trustedFlag.Name) {
		opts = append(opts, ppersist.Trusted())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, errs := concurrent.ParallelMap(ctx, []string(c.Args()), runtime.NumCPU(),
		func(_ context.Context, path string) (inspected, error) {
			b, err := app.Persister.LoadDict(path, opts...)
			return inspected{path: path, bundle: b}, err
		})

	failed := 0
	for i, res := range results {
		if errs[i] != nil {
			failed++
			failure.Printf("%s: %v\n", c.Args()[i], errs[i])
			continue
		}
		heading.Println(res.path)
		printFields(res.bundle)
	}
	if failed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d of %d files failed", failed, len(results)), 1)
	}
	return nil
}

func tags(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("tags needs exactly one FILE", 2)
	}
	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	blob, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}
	found, err := codec.Tags(blob)
	if err != nil {
		return err
	}

	reg := app.Persister.Registry()
	disallowed := 0
	for _, tag := range found {
		if reg.IsAllowed(tag) {
			accepted.Printf("  allowed     %s\n", tag)
			continue
		}
		disallowed++
		failure.Printf("  DISALLOWED  %s\n", tag)
	}
	if disallowed > 0 {
		return cli.NewExitError(fmt.Sprintf("%d disallowed tags", disallowed), 1)
	}
	return nil
}

func allowlist(_ *cli.Context) error {
	for _, tag := range registry.Default().Tags() {
		fmt.Println(tag)
	}
	return nil
}

func fetch(c *cli.Context) error {
	if len(c.Args()) != 1 {
		return cli.NewExitError("fetch needs exactly one URL", 2)
	}
	app, err := setup(c)
	if err != nil {
		return err
	}
	defer app.Logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec, err := app.Persister.Fetch(ctx, c.Args().First())
	if err != nil {
		return err
	}
	heading.Println(c.Args().First())
	printFields(rec.Bundle())
	return nil
}

func printFields(b *value.Bundle) {
	for _, name := range b.Names() {
		v, _ := b.Get(name)
		fmt.Printf("  %-20s %s\n", name, faint.Sprint(describe(v)))
	}
}
