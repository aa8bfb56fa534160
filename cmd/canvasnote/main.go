package main

import (
	"os"

	"github.com/canvasnote/canvasnote/internal/cli"
	"github.com/canvasnote/canvasnote/pkg/buildinfo"
)

func main() {
	cli.SetVersion(buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
