package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	taigamcp "github.com/talhaorak/taiga-mcp"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of taiga-mcp",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("taiga-mcp version %s\n", strings.TrimSpace(taigamcp.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
