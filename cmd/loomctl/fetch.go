package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loomrt/loom"
	"github.com/loomrt/loom/httpclient"
)

var fetchMethod string

func init() {
	fetchCmd.Flags().StringVar(&fetchMethod, "method", "GET", "HTTP method")
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [url]",
	Short: "Fetch a URL through the httpclient collaborator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		cfg, err := loadDemoConfig(configPath)
		if err != nil {
			return err
		}

		opts := httpclient.DefaultOptions()
		opts.Method = fetchMethod
		if !cmd.Flags().Changed("method") && cfg.Fetch.Method != "" {
			opts.Method = cfg.Fetch.Method
		}
		opts.Headers = cfg.Fetch.Headers
		opts.Body = cfg.Fetch.Body
		opts.Verify = cfg.Fetch.Verify
		if cfg.Fetch.ConnectTimeout > 0 {
			opts.ConnectTimeout = cfg.Fetch.ConnectTimeout
		}
		if cfg.Fetch.MaxBytes > 0 {
			opts.MaxBytes = cfg.Fetch.MaxBytes
		}

		url := args[0]
		ctx := context.Background()
		result, err := loom.Run(ctx, func(ctx context.Context, task *loom.Task) (any, error) {
			return httpclient.Fetch(ctx, url, opts)
		})
		if err != nil {
			fmt.Println(errColor.Sprintf("fetch failed: %v", err))
			return err
		}

		resp := result.(*httpclient.Response)
		fmt.Println(doneColor.Sprintf("status %d, %d bytes", resp.Status, len(resp.Body)))
		fmt.Println(string(resp.Body))
		return nil
	},
}
