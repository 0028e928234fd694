package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/famledger/internal/adapter/http/dto"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
	)

	rootCmd := &cobra.Command{
		Use:           "famledger-cli",
		Short:         "FamLedger CLI tool",
		Long:          `A command line interface for the FamLedger API and offline balance forecasts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the FamLedger API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	client := func() *apiClient {
		return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
	}

	rootCmd.AddCommand(
		upcomingCmd(client),
		seriesCmd(client),
		balanceCmd(client),
		forecastCmd(),
		migrateCmd(),
	)

	return rootCmd
}

func upcomingCmd(client func() *apiClient) *cobra.Command {
	var userID, from, to string

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List upcoming recurring occurrences",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"user_id": {userID}}
			setIfNotEmpty(q, "from", from)
			setIfNotEmpty(q, "to", to)
			return client().get(cmd.OutOrStdout(), "/api/v1/dashboard/upcoming", q)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&from, "from", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end, exclusive (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func seriesCmd(client func() *apiClient) *cobra.Command {
	var userID, from, to, bucket, by string

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Aggregate income and expenses per period",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{"user_id": {userID}, "from": {from}, "to": {to}}
			setIfNotEmpty(q, "bucket", bucket)
			setIfNotEmpty(q, "by", by)
			return client().get(cmd.OutOrStdout(), "/api/v1/dashboard/series", q)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&from, "from", "", "Window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Window end, exclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&bucket, "bucket", "month", "Bucket size: day or month")
	cmd.Flags().StringVar(&by, "by", "none", "Grouping: none, account, category or user")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func balanceCmd(client func() *apiClient) *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "balance ACCOUNT_ID",
		Short: "Show the balance of an account at a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			setIfNotEmpty(q, "as_of", asOf)
			return client().get(cmd.OutOrStdout(), "/api/v1/accounts/"+url.PathEscape(args[0])+"/balance", q)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Date to project the balance to (YYYY-MM-DD)")

	return cmd
}

func setIfNotEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// get fetches path and writes the indented JSON body to out.
func (c *apiClient) get(out io.Writer, path string, query url.Values) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.http.Get(u)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr dto.ErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Message != "" {
				return fmt.Errorf("request failed (status %d): %s: %s", resp.StatusCode, apiErr.Error, apiErr.Message)
			}
			return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("request failed (status %d)", resp.StatusCode)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(out)
	return err
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
