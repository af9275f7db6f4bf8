// Command fraudctl reviews advertiser accounts and manages the feedback
// log and learned models.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// command is one fraudctl subcommand.
type command struct {
	summary string
	run     func(ctx context.Context, c *cli, args []string) int
}

var commands = map[string]command{
	"review":     {"Review one account record (JSON file or - for stdin)", runReview},
	"batch":      {"Review a JSON, JSONL or CSV batch into a reviewer queue CSV", runBatch},
	"feedback":   {"Append a confirmed outcome to the feedback log", runFeedback},
	"train":      {"Train a new model from the feedback log", runTrain},
	"auto-train": {"Train only when enough new feedback has arrived", runAutoTrain},
	"models":     {"List model artifacts or activate one (models activate <version>)", runModels},
}

// cli carries the process streams into subcommands.
type cli struct {
	stdout io.Writer
	stderr io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	c := &cli{stdout: stdout, stderr: stderr}
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.usage()
		return exitUsage
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "fraudctl: unknown command %q\n\n", args[0])
		c.usage()
		return exitUsage
	}
	return cmd.run(ctx, c, args[1:])
}

func (c *cli) usage() {
	fmt.Fprintln(c.stderr, "Usage: fraudctl <command> [flags]")
	fmt.Fprintln(c.stderr)
	fmt.Fprintln(c.stderr, "Commands:")

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.stderr, "  %-11s %s\n", name, commands[name].summary)
	}
}

// flagSet returns a flag set with the shared -config flag.
func (c *cli) flagSet(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet("fraudctl "+name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	configPath := fs.String("config", "", "Config file (default configs/config.yaml if present)")
	return fs, configPath
}

// usageError reports a bad invocation.
func (c *cli) usageError(format string, args ...interface{}) int {
	fmt.Fprintf(c.stderr, "fraudctl: "+format+"\n", args...)
	return exitUsage
}
