package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/enervision/transition/app"
	"github.com/enervision/transition/config"
	"github.com/enervision/transition/infra/logger"
	"github.com/enervision/transition/pkg/export"
)

var (
	outPath string
	format  string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Run the configured forecast and export the result",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	forecastCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or csv")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}

	mf, report, err := svc.Forecast()
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	logg := logger.New("forecast-command")
	for _, w := range report.Warnings {
		logg.Warnf("%s", w)
	}
	for _, e := range report.Errors {
		logg.Errorf("%s", e)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logg.Errorf("close output: %v", cerr)
			}
		}()
		out = f
	}

	switch format {
	case "json":
		return export.WriteJSON(out, export.Result{Forecast: mf, Validation: report})
	case "csv":
		return export.WriteCSV(out, mf)
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}
