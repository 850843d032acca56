// Command graphboard maintains the competition leaderboard: it validates and
// decrypts submissions, scores them, merges score feeds into the persisted
// leaderboard and serves it over HTTP.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/okian/graphboard/pkg/ux"
)

func main() {
	code := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	memguard.Purge()
	os.Exit(code)
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := &cli{
		stdin:  stdin,
		out:    ux.NewPrinter(stdout, stderr),
		stderr: stderr,
		getenv: os.Getenv,
	}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	c.close(context.Background())
	if err != nil {
		c.out.Error(err)
		return 1
	}
	return 0
}
