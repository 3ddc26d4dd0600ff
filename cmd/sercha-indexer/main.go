// Command sercha-indexer runs the periodic collation and indexing service.
package main

import (
	"github.com/custodia-labs/sercha-indexer/internal/adapters/driving/cli"
)

// version is set via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
