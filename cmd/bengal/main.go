// Command bengal builds static sites.
package main

import (
	"fmt"
	"os"

	"github.com/bengalssg/bengal/cmd/bengal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "bengal:", err)
		os.Exit(1)
	}
}
