//	@title			Gita Companion API
//	@version		1.0
//	@description	Verse-grounded guidance over the Bhagavad Gita with multi-backend failover

//	@tag.name			guidance
//	@tag.description	Ask, mood and chat guidance

//	@tag.name			verses
//	@tag.description	Verse catalog browsing

//	@tag.name			Operations
//	@tag.description	Operational endpoints for monitoring and health

package main

import (
	"os"

	"github.com/gitacompanion/companion/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
