// Command skillsplit is the CLI entrypoint over internal/cli's command
// tree, grounded on the teacher's gui/main.go runCLI path (build the
// root command, execute, map the error to a process exit code).
package main

import (
	"fmt"
	"os"

	"github.com/skill-split/skill-split/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
