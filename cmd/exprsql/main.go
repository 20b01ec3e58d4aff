// Command exprsql compiles typed entity expressions to SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/exprsql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
