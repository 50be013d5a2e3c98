package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/enervision/transition/app"
	"github.com/enervision/transition/config"
	"github.com/enervision/transition/infra/logger"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the configured forecast and report consistency findings",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}

	_, report, err := svc.Forecast()
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	logg := logger.New("validate-command")
	for _, w := range report.Warnings {
		logg.Warnf("%s", w)
	}
	for _, e := range report.Errors {
		logg.Errorf("%s", e)
	}
	if !report.Passed {
		return fmt.Errorf("validation failed with %d errors", len(report.Errors))
	}
	logg.Infof("validation passed with %d warnings", len(report.Warnings))
	return nil
}
