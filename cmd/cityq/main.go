// Command cityq compiles city model query documents to SQL.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/cityq/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Commands report their own failures; flag errors are printed here.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
