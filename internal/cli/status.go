package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/harun/weatherbot/pkg/gateway"
	"github.com/harun/weatherbot/pkg/session"
	"github.com/spf13/cobra"
)

var statusTimeout time.Duration

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server status",
	Long:  `Show whether a weatherbot server is listening on the configured gateway address, and list its chat sessions.`,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 3*time.Second, "how long to wait for the server")
	rootCmd.AddCommand(statusCmd)
}

type sessionsResponse struct {
	Sessions []session.Snapshot  `json:"sessions"`
	Clients  []gateway.ClientInfo `json:"clients"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: statusTimeout}
	return printStatus(cmd.OutOrStdout(), client, "http://"+cfg.Gateway.Addr(), time.Now())
}

func printStatus(out io.Writer, client *http.Client, baseURL string, now time.Time) error {
	resp, err := client.Get(baseURL + "/healthz")
	if err != nil {
		fmt.Fprintln(out, "Status: stopped")
		return nil
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(out, "Status: unhealthy (%s)\n", resp.Status)
		return nil
	}

	resp, err = client.Get(baseURL + "/sessions")
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	defer resp.Body.Close()

	var body sessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("invalid sessions response: %w", err)
	}

	fmt.Fprintln(out, "Status: running")
	fmt.Fprintf(out, "Sessions: %d\n", len(body.Sessions))
	for _, s := range body.Sessions {
		fmt.Fprintf(out, "  %s  age %s  messages %d\n", s.ID, formatDuration(now.Sub(s.CreatedAt)), s.Messages)
	}

	return nil
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
