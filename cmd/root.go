package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the calbridge application
var rootCmd = &cobra.Command{
	Use:   "calbridge",
	Short: "Bridges AI assistants and HTTP clients to Google Calendar",
	Long: `calbridge is a thin integration server for a single Google Calendar
identity. It exposes the same six tools over three faces:

  - An MCP (Model Context Protocol) server on stdio for AI assistants
  - An HTTP/REST API (/auth/*, /calendar/events*)
  - An OpenAI-compatible tool-calling API (/tools/list, /tools/call)

Credentials come from a Google OAuth client secrets JSON, supplied via
the GOOGLE_CREDENTIALS_JSON environment variable or a credentials file.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "calbridge version %s\n" .Version}}`)

	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
