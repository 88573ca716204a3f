// Command subflow generates English subtitles for video libraries.
//
//	subflow run [flags] <file|dir>...   process videos once
//	subflow watch [flags] <dir>         process the library, then new arrivals
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// Exit codes
const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Exit(dispatch(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func dispatch(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return exitUsage
	}

	switch args[0] {
	case "run":
		return runCommand(ctx, args[1:], stdin, stdout, stderr)
	case "watch":
		return watchCommand(ctx, args[1:], stdout, stderr)
	case "-h", "--help", "help":
		printUsage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "subflow: unknown command %q\n", args[0])
		printUsage(stderr)
		return exitUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage:
  subflow run [flags] <file|dir>...   generate subtitles once ("-" reads a JSON array of paths from stdin)
  subflow watch [flags] <dir>         generate subtitles for the library, then for new videos

Run "subflow run -h" or "subflow watch -h" for flags.`)
}
