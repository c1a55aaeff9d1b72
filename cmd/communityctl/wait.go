package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"
)

// waitCmd represents the wait command
var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for the community server to be ready",
	Long: `Wait for the community server to be ready.

The status endpoint is polled once per interval until it answers with a
success status or the retries run out. Use it in container entrypoints and
CI before running clients against a fresh server.

Example:
  communityctl wait
  communityctl wait --port 3000 --retries 60
  communityctl wait --url https://community.example.com/status`,
	Run: func(cmd *cobra.Command, args []string) {
		port, _ := cmd.Flags().GetInt("port")
		retries, _ := cmd.Flags().GetUint64("retries")
		interval, _ := cmd.Flags().GetDuration("interval")
		target, _ := cmd.Flags().GetString("url")
		if target == "" {
			target = fmt.Sprintf("http://localhost:%d/", port)
		}

		fmt.Fprintf(os.Stderr, "Waiting for %s ", target)
		err := waitForServer(cmd.Context(), target, retries, interval)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Server did not become ready: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Community server is ready")
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	waitCmd.Flags().IntP("port", "p", defaultPortInt(), "Server port on localhost to check")
	waitCmd.Flags().String("url", "", "Full URL to poll instead of localhost")
	waitCmd.Flags().Uint64P("retries", "r", 90, "Number of retries")
	waitCmd.Flags().Duration("interval", time.Second, "Delay between attempts")
}

// waitForServer polls target until it returns a 2xx status. It gives up
// after retries failed attempts.
func waitForServer(ctx context.Context, target string, retries uint64, interval time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}
	client := &http.Client{Timeout: 2 * time.Second}

	probe := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		if resp.StatusCode >= 300 {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), retries), ctx)
	err := backoff.RetryNotify(probe, b, func(error, time.Duration) {
		fmt.Fprint(os.Stderr, ".")
	})
	if err != nil {
		return fmt.Errorf("not ready after %d retries: %w", retries, err)
	}
	return nil
}
