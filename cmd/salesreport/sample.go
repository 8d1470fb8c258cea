package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"salesreport/internal/config"
	"salesreport/internal/parser"
)

var sampleOut string

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Write a demo workbook with the five expected sheets",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := parser.BuildWorkbook(parser.SampleData())
		if err != nil {
			return err
		}
		defer f.Close()
		if err := f.SaveAs(sampleOut); err != nil {
			return fmt.Errorf("save %s: %w", sampleOut, err)
		}
		fmt.Printf("示例工作簿: %s\n", sampleOut)
		return nil
	},
}

var initConfigOut string

var initConfigCmd = &cobra.Command{
	Use:   "init-config",
	Short: "Write a config.toml with default values",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SaveConfig(config.DefaultConfig(), initConfigOut); err != nil {
			return err
		}
		fmt.Println("配置已写入")
		return nil
	},
}

func init() {
	sampleCmd.Flags().StringVarP(&sampleOut, "out", "o", "sample.xlsx", "output workbook")
	initConfigCmd.Flags().StringVarP(&initConfigOut, "out", "o", "", "config path (defaults to the executable directory)")

	rootCmd.AddCommand(sampleCmd, initConfigCmd)
}
