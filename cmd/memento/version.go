package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/memento"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of memento",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("memento version %s\n", strings.TrimSpace(memento.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
