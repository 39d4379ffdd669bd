package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/loomrt/loom"
)

var (
	runSeconds float64
)

func init() {
	runCmd.Flags().Float64Var(&runSeconds, "delay", 0.01, "seconds the demo task sleeps before returning")
}

var doneColor = color.New(color.FgGreen, color.Bold)
var errColor = color.New(color.FgRed, color.Bold)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single delayed task to completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		val, err := loom.Run(ctx, func(ctx context.Context, task *loom.Task) (any, error) {
			task.Delay(runSeconds)
			return "ok", nil
		})
		if err != nil {
			fmt.Println(errColor.Sprintf("run failed: %v", err))
			return err
		}
		fmt.Println(doneColor.Sprintf("run done: %v", val))
		return nil
	},
}
