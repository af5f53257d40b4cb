// Command agencymap reconciles external agency-name observations against
// the canonical registry.
package main

import (
	"os"

	"github.com/agencymap/agencymap/cmd/agencymap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
