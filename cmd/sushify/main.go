package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pragmaticfish/sushify/internal/config"
	"github.com/pragmaticfish/sushify/internal/dashboard"
	"github.com/pragmaticfish/sushify/pkg/capture"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sushify",
		Short: "AI traffic capture for the sushify dashboard",
	}

	root.AddCommand(newStatusCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newConfigCmd())

	return root
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the dashboard is currently capturing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			client := dashboard.New(cfg.DashboardURL,
				dashboard.WithStatusTimeout(cfg.StatusTimeout()),
				dashboard.WithPushTimeout(cfg.PushTimeout()),
			)

			if client.CaptureEnabled(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), "capturing", client.BaseURL())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "not capturing", client.BaseURL())
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	var method, body string
	var noBody bool
	cmd := &cobra.Command{
		Use:   "check <url>",
		Short: "Check whether a request would be captured",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			payload := []byte(body)
			if noBody {
				payload = nil
			}

			url := args[0]
			classifier := capture.NewClassifier(cfg.ProviderBaseURLs(), cfg.CaptureMethods)
			if classifier.ShouldCapture(method, url, payload) {
				fmt.Fprintln(cmd.OutOrStdout(), "captured", matchedBase(cfg.ProviderBaseURLs(), url))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "ignored")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&method, "method", "POST", "request method to assume")
	cmd.Flags().StringVar(&body, "body", "{}", "request body to assume")
	cmd.Flags().BoolVar(&noBody, "no-body", false, "treat the request as bodyless")
	return cmd
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", *cfg)
			return nil
		},
	}
}

func matchedBase(baseURLs []string, url string) string {
	for _, base := range baseURLs {
		if strings.HasPrefix(url, base) {
			return base
		}
	}
	return ""
}
