package main

import (
	"context"
	"flag"
	"io"
)

func runGet(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	var raw bool
	cfg, err := parseFlags("get", args, stderr, func(fs *flag.FlagSet) {
		fs.BoolVar(&raw, "json", false, "print the raw JSON payload")
	})
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.close(ctx); err == nil {
			err = cerr
		}
	}()

	href, err := a.href()
	if err != nil {
		return err
	}
	st, err := a.store.Load(ctx, href, a.token)
	if err != nil {
		return err
	}
	return printPayload(stdout, st.Payload, raw)
}
