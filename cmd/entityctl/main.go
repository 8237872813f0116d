// Command entityctl reads, watches and acts on Siren resources through the
// entity store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

// errUsage marks errors caused by bad invocation; they exit with status 2.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch cmd, rest := args[0], args[1:]; cmd {
	case "get":
		err = runGet(ctx, rest, stdout, stderr)
	case "watch":
		err = runWatch(ctx, rest, stdout, stderr)
	case "act":
		err = runAct(ctx, rest, stdout, stderr)
	case "version":
		_, _ = fmt.Fprintf(stdout, "entityctl version %s\n", version)
	case "help", "-h", "--help":
		printUsage(stdout)
	default:
		_, _ = fmt.Fprintf(stderr, "unknown command: %s\n", cmd)
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	default:
		_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
}

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, `entityctl - read, watch and act on Siren resources

Usage:
  entityctl <command> [flags]

Commands:
  get       Load a resource and print a summary
  watch     Print every change to a resource, refreshing on an interval
  act       Perform a named action on a resource
  version   Print version
  help      Show this help

Common flags (environment default in brackets):
  -href URL         resource to load [ENTITYCTL_HREF]
  -token VALUE      bearer token, ${VAR} or secretref:<provider>:<ref> [ENTITYCTL_TOKEN]
  -base-url URL     base for relative hrefs [ENTITYCTL_BASE_URL]
  -timeout D        per-request timeout [ENTITYCTL_TIMEOUT]
  -retries N        extra attempts for failed GETs [ENTITYCTL_RETRIES]
  -log-level L      debug|info|warn|error [ENTITYCTL_LOG_LEVEL]
  -traces NAME      trace exporter: none|stdout|otlp|jaeger [ENTITYCTL_TRACES]
  -metrics NAME     metrics exporter: none|stdout|otlp|prometheus [ENTITYCTL_METRICS]

Examples:
  entityctl get -href https://api.example.com/courses/1 -token secretref:env:API_TOKEN
  entityctl watch -href /courses/1 -base-url https://api.example.com -interval 30s -health-addr :8081
  entityctl act -href /courses/1 -action rename -field name="Biology 102"
`)
}
