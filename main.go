// sgdesk - desktop client for ShotGrid task files
//
// Running with no arguments opens the GUI. Build version info is injected with:
//
//	go build -ldflags "-X github.com/pipelinekit/sgdesk/internal/version.Version=v0.4.1 -X github.com/pipelinekit/sgdesk/internal/version.BuildTime=$(date -u +%Y-%m-%d)"
package main

import "github.com/pipelinekit/sgdesk/internal/cli"

func main() {
	cli.Execute()
}
