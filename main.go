//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cottand/tlbc/cmd"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "tlbc [subcommand]",
	Short:        "tlbc compiles TL-B schemas into Go and Python serializers",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.BuildCmd)
	rootCmd.AddCommand(cmd.WatchCmd)
}
