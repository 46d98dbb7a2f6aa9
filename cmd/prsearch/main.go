// Command prsearch indexes software release notes and answers queries
// about PRs, fixes and features across product versions.
package main

import (
	"fmt"
	"os"

	"github.com/relnote-labs/prsearch/internal/adapters/driving/cli"
)

// version is overridden at build time via
// -ldflags "-X main.version=v1.2.3".
var version = "dev"

func main() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
