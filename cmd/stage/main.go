// Command stage renders stage.yaml scenes to image files.
package main

import (
	"fmt"
	"os"

	"github.com/go-drift/stage/cmd/stage/cmd"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
