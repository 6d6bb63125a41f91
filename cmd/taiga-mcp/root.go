package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taiga-mcp",
	Short: "taiga-mcp bridges MCP tool hosts to a Taiga project management server",
	Long: `taiga-mcp exposes the Taiga REST API as a set of MCP tools.

An AI agent connects over stdio or SSE, logs in (or relies on the
auto-authenticated default session) and manages projects, user stories,
tasks, issues, epics, sprints and wiki pages through tool calls.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML settings file overlaying the environment")
}
