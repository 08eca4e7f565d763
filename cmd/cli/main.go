package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "walletrecon-cli",
		Short:         "walletrecon CLI tool",
		Long:          `A command line interface for the walletrecon API: rates, wallets and reconciliation.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the walletrecon API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")

	rootCmd.AddCommand(rateCmd(), walletsCmd(), reconcileCmd())
	return rootCmd
}

func rateCmd() *cobra.Command {
	var amount string

	cmd := &cobra.Command{
		Use:   "rate FROM TO",
		Short: "Resolve an exchange rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{"from": {args[0]}, "to": {args[1]}}
			if amount != "" {
				query.Set("amount", amount)
			}

			var result struct {
				From      string `json:"from"`
				To        string `json:"to"`
				Rate      string `json:"rate"`
				Method    string `json:"method"`
				Converted string `json:"converted"`
			}
			if err := doRequest(http.MethodGet, "/api/v1/rates?"+query.Encode(), nil, &result); err != nil {
				return err
			}

			fmt.Printf("1 %s = %s %s (%s)\n", result.From, result.Rate, result.To, result.Method)
			if result.Converted != "" {
				fmt.Printf("%s %s = %s %s\n", amount, result.From, result.Converted, result.To)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "Amount to convert")
	return cmd
}

func walletsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallets",
		Short: "Wallet operations",
	}

	listCmd := &cobra.Command{
		Use:   "list USER_ID",
		Short: "List a user's wallets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Wallets []struct {
					ID            string `json:"id"`
					Currency      string `json:"currency"`
					Type          string `json:"type"`
					Balance       string `json:"balance"`
					AccountNumber string `json:"account_number"`
				} `json:"wallets"`
			}
			if err := doRequest(http.MethodGet, "/api/v1/users/"+url.PathEscape(args[0])+"/wallets", nil, &result); err != nil {
				return err
			}

			fmt.Printf("%-28s %-8s %-8s %-14s %s\n", "ID", "CURRENCY", "TYPE", "ACCOUNT", "BALANCE")
			for _, w := range result.Wallets {
				fmt.Printf("%-28s %-8s %-8s %-14s %s\n", truncate(w.ID, 28), w.Currency, w.Type, w.AccountNumber, w.Balance)
			}
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create USER_ID CURRENCY",
		Short: "Open a wallet, or return the existing one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"currency": args[1]}
			var result map[string]any
			if err := doRequest(http.MethodPost, "/api/v1/users/"+url.PathEscape(args[0])+"/wallets", body, &result); err != nil {
				return err
			}
			printJSON(result)
			return nil
		},
	}

	cmd.AddCommand(listCmd, createCmd)
	return cmd
}

func reconcileCmd() *cobra.Command {
	var base string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare ledger totals with wallet balances",
	}
	cmd.PersistentFlags().StringVar(&base, "base", "", "Base currency (server default when empty)")

	userCmd := &cobra.Command{
		Use:   "user USER_ID",
		Short: "Reconcile a single user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/users/" + url.PathEscape(args[0]) + "/reconciliation"
			if base != "" {
				path += "?" + url.Values{"base": {base}}.Encode()
			}

			var report reconciliationReport
			if err := doRequest(http.MethodGet, path, nil, &report); err != nil {
				return err
			}
			printReport(report)
			return nil
		},
	}

	var batchSize int
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Reconcile one page of users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if batchSize > 0 {
				query.Set("batch_size", strconv.Itoa(batchSize))
			}
			if base != "" {
				query.Set("base", base)
			}
			path := "/api/v1/reconciliation/batch"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var result struct {
				Results []struct {
					UserID string                `json:"user_id"`
					Report *reconciliationReport `json:"report"`
					Error  string                `json:"error"`
				} `json:"results"`
				Processed  int `json:"processed"`
				Failed     int `json:"failed"`
				Discrepant int `json:"discrepant"`
			}
			if err := doRequest(http.MethodPost, path, nil, &result); err != nil {
				return err
			}

			for _, r := range result.Results {
				switch {
				case r.Error != "":
					fmt.Printf("%-28s ERROR %s\n", truncate(r.UserID, 28), truncate(r.Error, 60))
				case r.Report != nil:
					fmt.Printf("%-28s %s\n", truncate(r.UserID, 28), r.Report.status())
				}
			}
			fmt.Printf("Processed: %d  Failed: %d  With discrepancies: %d\n", result.Processed, result.Failed, result.Discrepant)
			return nil
		},
	}
	batchCmd.Flags().IntVar(&batchSize, "batch-size", 0, "Users per batch (server default when 0)")

	cmd.AddCommand(userCmd, batchCmd)
	return cmd
}

type reconciliationReport struct {
	UserID       string `json:"user_id"`
	BaseCurrency string `json:"base_currency"`
	Currencies   []struct {
		Currency        string  `json:"currency"`
		Computed        string  `json:"computed"`
		Stored          string  `json:"stored"`
		Diff            string  `json:"diff"`
		ConvertedToBase *string `json:"converted_to_base"`
		Reconciled      bool    `json:"reconciled"`
	} `json:"currencies"`
	TotalInBase string   `json:"total_in_base"`
	Issues      []string `json:"issues"`
}

func (r reconciliationReport) status() string {
	drift := 0
	for _, c := range r.Currencies {
		if !c.Reconciled {
			drift++
		}
	}
	if drift == 0 && len(r.Issues) == 0 {
		return "OK"
	}
	return fmt.Sprintf("DRIFT currencies=%d issues=%d", drift, len(r.Issues))
}

func printReport(r reconciliationReport) {
	fmt.Printf("User: %s  Base: %s\n", r.UserID, r.BaseCurrency)
	fmt.Printf("%-8s %20s %20s %16s %20s\n", "CURRENCY", "COMPUTED", "STORED", "DIFF", "IN BASE")
	for _, c := range r.Currencies {
		converted := "-"
		if c.ConvertedToBase != nil {
			converted = *c.ConvertedToBase
		}
		fmt.Printf("%-8s %20s %20s %16s %20s\n", c.Currency, c.Computed, c.Stored, c.Diff, converted)
	}
	fmt.Printf("Total in %s: %s\n", r.BaseCurrency, r.TotalInBase)
	for _, issue := range r.Issues {
		fmt.Printf("Issue: %s\n", issue)
	}
	fmt.Printf("Status: %s\n", r.status())
}

// doRequest sends body as JSON when non-nil and decodes a 2xx response into out.
func doRequest(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, truncate(string(raw), 200))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("failed to format output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
