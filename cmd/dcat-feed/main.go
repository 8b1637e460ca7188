// dcat-feed writes a DCAT-AP feed of the dataset records read from a file or
// standard input. Records may be given as a JSON array, as newline-delimited
// JSON or as a sequence of JSON objects.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/koopjs/koop-output-dcat-ap-201/dataset"
	"github.com/koopjs/koop-output-dcat-ap-201/dcat"
	"github.com/koopjs/koop-output-dcat-ap-201/sources"
)

// ANSI codes for the summary
const (
	green = "\033[32m"
	red   = "\033[31m"
	reset = "\033[0m"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	status := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(status)
}

// runs the command with the given arguments (program name first), returning
// its exit status
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var recordsFile string
	var templateFile string
	var siteUrl string
	var siteTitle string
	var siteDescription string
	var culture string
	var orgTitle string
	var orgBaseUrl string
	var portalUrl string
	var version string
	var validate bool
	var deps bool

	flags := flag.NewFlagSet(args[0], flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.Usage = func() {
		fmt.Fprintf(stderr, "%s: usage:\n", args[0])
		fmt.Fprintf(stderr, "%s [options] < records.json > feed.json\n\n", args[0])
		flags.PrintDefaults()
	}
	flags.StringVar(&recordsFile, "records", "", "file of dataset records (default: standard input)")
	flags.StringVar(&templateFile, "template", "", "JSON or YAML file holding a custom dataset template")
	flags.StringVar(&siteUrl, "site-url", "", "URL of the site whose catalog the feed describes")
	flags.StringVar(&siteTitle, "site-title", "", "catalog title")
	flags.StringVar(&siteDescription, "site-description", "", "catalog description")
	flags.StringVar(&culture, "culture", "", "the site's locale (e.g. en-us)")
	flags.StringVar(&orgTitle, "org-title", "", "title of the organization publishing the catalog")
	flags.StringVar(&orgBaseUrl, "org-base-url", "", "base URL of the organization's portal")
	flags.StringVar(&portalUrl, "portal", dataset.DefaultPortalUrl, "URL of the portal hosting item pages")
	flags.StringVar(&version, "version", dcat.Version2, "DCAT-AP version: 2.0.1 or 3.0.0")
	flags.BoolVar(&validate, "validate", false, "expand the feed as JSON-LD before writing it")
	flags.BoolVar(&deps, "deps", false, "print the upstream fields the feed needs and exit")
	if err := flags.Parse(args[1:]); err != nil {
		return 2
	}

	var template dcat.Template
	if templateFile != "" {
		data, err := os.ReadFile(templateFile)
		if err != nil {
			fmt.Fprintf(stderr, "Couldn't read template %s: %s\n", templateFile, err)
			return 1
		}
		template, err = dcat.ParseTemplate(data)
		if err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			return 1
		}
	}

	siteCtx := dataset.Context{
		OrgBaseUrl: orgBaseUrl,
		OrgTitle:   orgTitle,
		SiteUrl:    siteUrl,
		PortalUrl:  portalUrl,
		SiteModel: dataset.SiteModel{
			Item: dataset.SiteItem{
				Url:         siteUrl,
				Title:       siteTitle,
				Description: siteDescription,
				Culture:     culture,
			},
		},
	}
	dcatFeed, err := dcat.GetDataStream(dcat.FeedOptions{
		Template: template,
		Version:  version,
		Context:  siteCtx,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s\n", err)
		return 1
	}

	if deps {
		for _, field := range dcatFeed.Dependencies {
			fmt.Fprintln(stdout, field)
		}
		return 0
	}

	input := stdin
	if recordsFile != "" {
		file, err := os.Open(recordsFile)
		if err != nil {
			fmt.Fprintf(stderr, "Couldn't open %s: %s\n", recordsFile, err)
			return 1
		}
		defer file.Close()
		input = file
	}

	// a validated feed is held back until it expands cleanly
	var buffer bytes.Buffer
	out := stdout
	if validate {
		out = &buffer
	}

	count, err := dcatFeed.Stream(out).Copy(ctx, sources.NewJSONSource(input))
	if err != nil {
		summarize(stderr, red, "Feed failed after %d datasets: %s\n", count, err)
		return 1
	}

	if validate {
		if _, err := dcat.ExpandFeed(buffer.Bytes()); err != nil {
			summarize(stderr, red, "Feed isn't valid JSON-LD: %s\n", err)
			return 1
		}
		if _, err := buffer.WriteTo(stdout); err != nil {
			fmt.Fprintf(stderr, "%s\n", err)
			return 1
		}
	}
	fmt.Fprintln(stdout)
	summarize(stderr, green, "Wrote %d datasets (DCAT-AP %s)\n", count, dcatFeed.Version)
	return 0
}

// writes a summary line, coloured if it goes to a terminal
func summarize(w io.Writer, color string, msg string, args ...any) {
	if file, ok := w.(*os.File); ok &&
		(isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())) {
		colored := colorable.NewColorable(file)
		fmt.Fprint(colored, color)
		fmt.Fprintf(colored, msg, args...)
		fmt.Fprint(colored, reset)
		return
	}
	fmt.Fprintf(w, msg, args...)
}
