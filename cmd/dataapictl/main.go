// Command dataapictl loads documents into a Data API collection.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "insert":
		return runInsert(ctx, args[1:], stdin, stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "dataapictl v%s\n", version)
		return 0
	case "help", "-h", "--help":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `dataapictl - load documents into a Data API collection

Usage:
  dataapictl <command> [options]

Commands:
  insert    Insert NDJSON documents into a collection
  version   Show version information
  help      Show this help message

Run 'dataapictl insert --help' for the insert options.

Every config key can also be set with a DATAAPI_ environment variable, nested keys joined
with a double underscore, e.g. DATAAPI_BULK__CONCURRENCY=4.
`)
}
