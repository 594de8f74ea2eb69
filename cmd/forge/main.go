package main

import (
	"fmt"
	"os"

	"github.com/SanjoDeundiak/forge/pkg/lib/lifecycle"
)

func main() {
	root := NewRootCmd()

	if err := root.Execute(); err != nil {
		if launchErr, ok := lifecycle.AsLaunchError(err); ok {
			fmt.Fprintln(os.Stderr, launchErr.Actionable())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
