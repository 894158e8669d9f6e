// whenctl is the maintenance CLI: it drives the same services as the bot
// without needing a Telegram token.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:     "whenctl",
		Short:   "Whendoist maintenance CLI",
		Version: Version,
	}

	rootCmd.AddCommand(materializeCmd())
	rootCmd.AddCommand(agendaCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(completeBeforeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
