package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jonwraymond/hyperentity/action"
	"github.com/jonwraymond/hyperentity/hypermedia"
)

func runAct(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	var (
		name   string
		fields fieldFlags
		raw    bool
	)
	cfg, err := parseFlags("act", args, stderr, func(fs *flag.FlagSet) {
		fs.StringVar(&name, "action", "", "action name")
		fs.Var(&fields, "field", "field override name=value (repeatable)")
		fs.BoolVar(&raw, "json", false, "print the raw JSON result")
	})
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("%w: -action is required", errUsage)
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
	doc, err := hypermedia.Parse(st.Payload)
	if err != nil {
		return fmt.Errorf("%s: %w", href, err)
	}
	act := doc.ActionByName(name)
	if act == nil {
		return fmt.Errorf("action %q not found on %s; available: %s", name, href, actionNames(doc))
	}

	vals, err := action.Fields(act)
	if err != nil {
		return err
	}
	for _, f := range fields {
		v, err := a.secrets.ResolveValue(ctx, f.value)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
		vals.Set(f.name, v)
	}

	exec := action.NewExecutor(a.client, a.store, action.WithMiddleware(a.mw))
	res, err := exec.Perform(ctx, act, a.token, vals)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(stdout, "%s %s: %d\n", act.Method, res.URL, res.StatusCode)
	if res.Payload == nil {
		return nil
	}
	return printPayload(stdout, res.Payload, raw)
}

func actionNames(doc *hypermedia.Entity) string {
	names := make([]string, 0, len(doc.Actions))
	for _, a := range doc.Actions {
		if a != nil {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
