package main

import (
	"errors"
	"flag"
	"io"
	"strings"
)

// listFlag collects a repeatable flag; each value may also be comma separated.
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l = append(*l, part)
		}
	}
	return nil
}

type options struct {
	identifiers listFlag
	files       listFlag
	folder      string
	history     int
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("tricount-export", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Var(&opts.identifiers, "id", "Tricount public identifier (repeatable or comma separated)")
	fs.Var(&opts.files, "from-file", "saved registry JSON document to export instead of calling the API (repeatable)")
	fs.StringVar(&opts.folder, "folder", "", "existing output folder for the workbooks")
	fs.IntVar(&opts.history, "history", 0, "print the last N export journal entries and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, errors.New("unexpected arguments: " + strings.Join(fs.Args(), " "))
	}

	if opts.history > 0 {
		return opts, nil
	}
	if opts.history < 0 {
		return options{}, errors.New("-history must be positive")
	}
	if len(opts.identifiers) > 0 && len(opts.files) > 0 {
		return options{}, errors.New("-id and -from-file cannot be combined")
	}
	if len(opts.identifiers) == 0 && len(opts.files) == 0 {
		return options{}, errors.New("at least one -id or -from-file is required")
	}
	if opts.folder == "" {
		return options{}, errors.New("-folder is required")
	}
	return opts, nil
}
