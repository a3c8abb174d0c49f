package main

import (
	"fmt"

	"github.com/carlton-source/bitcoin-ubi-protocol/app"
	"github.com/spf13/cobra"
)

var (
	GitCommit string
)

func VersionWithCommit(gitCommit string) string {
	vsn := app.Version
	if len(gitCommit) >= 8 {
		vsn += "-" + gitCommit[:8]
	}
	return vsn
}

var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print the ubid version",
	Aliases: []string{"V"},
	Run:     versionRun,
}

func versionRun(cmd *cobra.Command, args []string) {
	fmt.Println(VersionWithCommit(GitCommit))
}
