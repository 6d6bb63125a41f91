package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/talhaorak/taiga-mcp/pkg/taiga"
)

// loginCmd verifies credentials against the configured Taiga server. Useful
// before wiring the binary into an MCP host: a failure here means tool calls
// would fail the same way.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Verify Taiga credentials",
	Long: `Authenticates against the configured Taiga server and reports the
account the token belongs to. Credentials come from TAIGA_USERNAME and
TAIGA_PASSWORD; missing values are prompted for interactively.`,
	Run: func(cmd *cobra.Command, args []string) {
		settings, err := loadSettings(cmd)
		if err != nil {
			log.Fatalf("Error loading settings: %v", err)
		}

		username := settings.Username
		if username == "" {
			fmt.Print("Username: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil {
				log.Fatalf("Error reading username: %v", err)
			}
			username = strings.TrimSpace(line)
		}

		password := settings.Password
		if password == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				log.Fatalf("Error reading password: %v", err)
			}
			password = string(raw)
		}

		transportCfg := taiga.TransportConfig{
			RequestTimeout:     settings.RequestTimeout,
			MaxConnections:     settings.MaxConnections,
			MaxIdleConnections: settings.MaxIdleConnections,
			RateLimitPerMinute: settings.RateLimitPerMinute,
		}

		p := termenv.ColorProfile()
		client, err := taiga.Login(cmd.Context(), settings.Host, username, password, transportCfg)
		if err != nil {
			fmt.Println(termenv.String(fmt.Sprintf("Login failed: %v", err)).Foreground(p.Color("#f87171")))
			os.Exit(1)
		}
		defer client.Close()

		me, err := client.Users.Me(cmd.Context())
		if err != nil {
			fmt.Println(termenv.String(fmt.Sprintf("Token check failed: %v", err)).Foreground(p.Color("#f87171")))
			os.Exit(1)
		}

		fmt.Println(termenv.String(fmt.Sprintf("Authenticated against %s", settings.Host)).Foreground(p.Color("#4ade80")))
		if name, ok := me["username"].(string); ok {
			fmt.Printf("Logged in as %s\n", name)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
