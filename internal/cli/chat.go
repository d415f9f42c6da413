package cli

import (
	"fmt"

	"github.com/harun/weatherbot/internal/daemon"
	"github.com/harun/weatherbot/pkg/channels"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with the weather assistant in the terminal",
	Long: fmt.Sprintf(`Start a single chat session on stdin/stdout.
Type a question and press enter. %s or end of input closes the session.`, channels.ExitCommand),
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	d, err := daemon.New(cfg, log, daemon.WithVersion(version), daemon.WithTerminal(cmd.InOrStdin(), cmd.OutOrStdout()))
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start chat: %w", err)
	}

	return d.Wait()
}
