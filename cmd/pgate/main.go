// Command pgate resolves database connection settings and checks them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/koustreak/pgate/internal/errs"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command tree and converts its outcome, including a
// MustConnect abort, into an exit code.
func run(args []string) (code int) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		connErr, ok := r.(*errs.Error)
		if !ok {
			panic(r)
		}
		fmt.Fprintf(os.Stderr, "fatal: %v\n", connErr)
		code = exitConnectionError
	}()

	root := newRootCmd()
	root.SetArgs(args)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitCode(err)
	}
	return exitSuccess
}
