// gqlfixtures CLI - serves and queries mocked GraphQL schemas
package main

import (
	"github.com/getmockd/gqlfixtures/pkg/cli"
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	cli.Version = Version
	cli.Commit = Commit
	cli.BuildDate = BuildDate
	cli.Execute()
}
