package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/oscalarm/oscalarm/cmd"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

var osExit = os.Exit

func main() {
	osExit(runMain(os.Args, func(args []string) error {
		return cmd.Execute(args, cmd.BuildArgs{
			Version:   version,
			Commit:    commit,
			Date:      date,
			BuildType: buildType,
		})
	}))
}

// runMain runs execute and maps its result to an exit code. Errors the
// command already printed are not printed again.
func runMain(args []string, execute func([]string) error) int {
	err := execute(args)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, cmd.ErrReported):
		return 1
	default:
		fmt.Printf("oscalarm: %s\n", err.Error())
		return 1
	}
}
