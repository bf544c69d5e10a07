package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/platinummonkey/protodoc/pkg/docs"
)

func newResolveCommand() *Command {
	return &Command{
		Name:        "resolve",
		Description: "Show what a reference such as {@link Foo.Bar} resolves to",
		Flags:       flag.NewFlagSet("resolve", flag.ExitOnError),
		Run:         runResolve,
	}
}

func runResolve(args []string) error {
	flags := flag.NewFlagSet("resolve", flag.ContinueOnError)
	var f commonFlags
	f.register(flags)
	ref := flags.String("ref", "", "Reference to resolve")
	from := flags.String("from", "", "Full name of the entity the reference appears in (default: root scope)")
	asJSON := flags.Bool("json", false, "Print the resolution as JSON")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *ref == "" {
		return fmt.Errorf("ref is required")
	}

	cfg, err := f.load(flags.Args())
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	model, err := loadModel(context.Background(), cfg, logger, nil)
	if err != nil {
		return err
	}
	formats, err := cfg.Formats()
	if err != nil {
		return err
	}

	d := docs.NewDocumenter(model, cfg.DocsOptions(formats[0]), logger, nil)
	resolution, err := d.Resolve(*ref, *from)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resolution); err != nil {
			return err
		}
	} else if resolution.Resolved() {
		fmt.Fprintf(stdout, "%s -> %s (%s)\n", resolution.Reference, resolution.Entity, resolution.Kind)
		if resolution.File != "" {
			fmt.Fprintf(stdout, "  documented in %s\n", resolution.File)
		} else {
			fmt.Fprintf(stdout, "  not documented\n")
		}
	}

	if !resolution.Resolved() {
		return fmt.Errorf("unable to resolve %q: %s", *ref, resolution.Error)
	}
	return nil
}
