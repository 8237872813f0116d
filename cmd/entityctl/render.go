package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jonwraymond/hyperentity/hypermedia"
)

// printPayload prints a Siren summary, or indented JSON when the payload is
// not a Siren document.
func printPayload(w io.Writer, payload any, raw bool) error {
	if !raw {
		if doc, err := hypermedia.Parse(payload); err == nil {
			return printSiren(w, doc)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func printSiren(w io.Writer, e *hypermedia.Entity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if len(e.Class) > 0 {
		_, _ = fmt.Fprintf(tw, "class:\t%s\n", strings.Join(e.Class, " "))
	}
	if e.Title != "" {
		_, _ = fmt.Fprintf(tw, "title:\t%s\n", e.Title)
	}

	if len(e.Properties) > 0 {
		_, _ = fmt.Fprintln(tw, "properties:")
		names := make([]string, 0, len(e.Properties))
		for k := range e.Properties {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", k, compact(e.Properties[k]))
		}
	}

	if len(e.Entities) > 0 {
		_, _ = fmt.Fprintln(tw, "entities:")
		for _, sub := range e.Entities {
			if sub == nil {
				continue
			}
			target := "embedded"
			if sub.IsLink() {
				target = sub.Href
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\n", strings.Join(sub.Rel, " "), strings.Join(sub.Class, " "), target)
		}
	}

	if len(e.Links) > 0 {
		_, _ = fmt.Fprintln(tw, "links:")
		for _, l := range e.Links {
			if l == nil {
				continue
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s\n", strings.Join(l.Rel, " "), l.Href)
		}
	}

	if len(e.Actions) > 0 {
		_, _ = fmt.Fprintln(tw, "actions:")
		for _, a := range e.Actions {
			if a == nil {
				continue
			}
			names := make([]string, 0, len(a.Fields))
			for _, f := range a.Fields {
				if f != nil {
					names = append(names, f.Name)
				}
			}
			_, _ = fmt.Fprintf(tw, "  %s\t%s %s\t%s\t%s\n", a.Name, a.Method, a.Href, a.Type, strings.Join(names, ","))
		}
	}
	return tw.Flush()
}

func compact(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
