package main

import (
	"os"

	"github.com/grovetools/areatrip/cli"
	"github.com/grovetools/areatrip/cmd"
)

func main() {
	rootCmd := cli.NewStandardCommand(
		"areatrip",
		"Plan trips to nature areas and keep them in your trip list",
	)

	rootCmd.AddCommand(cmd.NewPlanCmd())
	rootCmd.AddCommand(cmd.NewTripsCmd())
	rootCmd.AddCommand(cmd.NewSessionCmd())
	rootCmd.AddCommand(cmd.NewServeCmd())
	rootCmd.AddCommand(cmd.NewConfigCmd())
	rootCmd.AddCommand(cli.NewVersionCommand("areatrip"))

	if err := rootCmd.Execute(); err != nil {
		verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
		cli.NewErrorHandler(os.Stderr, verbose).Handle(err)
		os.Exit(1)
	}
}
