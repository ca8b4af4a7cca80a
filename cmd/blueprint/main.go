// Command blueprint is the reference CLI over the plan/execute engine: a
// thin cobra wrapper that builds one of the built-in S1-S6 fixtures and
// either validates, describes, or runs it.
package main

import (
	"fmt"
	"os"

	"github.com/alexchoi0/blueprint/cli"
)

func main() {
	root := cli.NewRootCommand()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
