package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carhunt/carhunt/internal/analyzer"
	"github.com/carhunt/carhunt/internal/output"
	"github.com/carhunt/carhunt/internal/store"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Find listings priced below their similarity group's average",
	Long: `Retrieve stored listings for a brand, group them by similarity
(same brand, model and gearbox, year within 2, mileage within
20,000 km) and report every listing priced below its group's mean.
With --location, local listings are compared both against local peers
and against the full result set.

Examples:
  carhunt analyze --brand bmw
  carhunt analyze --brand bmw --model "Seria 3" --year-min 2015
  carhunt analyze --brand audi --gearbox manual --location Kraków
  carhunt analyze --brand bmw --format json > occasions.json`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addFilterFlags(analyzeCmd)
	analyzeCmd.Flags().StringSliceP("location", "l", nil, "location substring(s) defining the local scope")
	analyzeCmd.Flags().StringP("format", "f", "text", "output format: text, json, yaml")
}

// addFilterFlags registers the listing-filter flags shared by analyze
// and export.
func addFilterFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("brand", "b", "", "brand, exact match (required)")
	flags.StringSliceP("model", "m", nil, "model substring(s), OR-ed (empty: all)")
	flags.Int("year-min", 1885, "minimum production year, inclusive")
	flags.Int("year-max", 2100, "maximum production year, inclusive")
	flags.Int("mileage-min", 0, "minimum mileage in km, inclusive")
	flags.Int("mileage-max", 10000000, "maximum mileage in km, inclusive")
	flags.StringSlice("fuel", nil, "fuel type substring(s), OR-ed (empty: all)")
	flags.StringSlice("gearbox", nil, "gearbox substring(s), OR-ed (empty: all)")
	flags.String("status", "", "condition substring: new, used (empty: all)")

	_ = cmd.MarkFlagRequired("brand")
}

// filterFromFlags assembles the store filter from the shared flags.
func filterFromFlags(cmd *cobra.Command) store.Filter {
	brand, _ := cmd.Flags().GetString("brand")
	models, _ := cmd.Flags().GetStringSlice("model")
	yearMin, _ := cmd.Flags().GetInt("year-min")
	yearMax, _ := cmd.Flags().GetInt("year-max")
	mileageMin, _ := cmd.Flags().GetInt("mileage-min")
	mileageMax, _ := cmd.Flags().GetInt("mileage-max")
	fuels, _ := cmd.Flags().GetStringSlice("fuel")
	gearboxes, _ := cmd.Flags().GetStringSlice("gearbox")
	status, _ := cmd.Flags().GetString("status")

	return store.Filter{
		Brand:         brand,
		ModelPatterns: models,
		YearMin:       yearMin,
		YearMax:       yearMax,
		MileageMin:    mileageMin,
		MileageMax:    mileageMax,
		FuelTypes:     fuels,
		Gearboxes:     gearboxes,
		StatusPattern: status,
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	initLogger()

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Find(context.Background(), filterFromFlags(cmd))
	if err != nil {
		return err
	}
	if len(records) == 0 {
		brands, err := db.Brands(context.Background())
		if err == nil && len(brands) > 0 {
			fmt.Printf("No stored listings match this filter. Brands crawled so far: %s\n",
				strings.Join(brands, ", "))
			return nil
		}
	}

	locations, _ := cmd.Flags().GetStringSlice("location")
	result := analyzer.Analyze(records, locations)

	format, _ := cmd.Flags().GetString("format")
	if format == "" || format == "text" {
		analyzer.WriteReport(os.Stdout, result)
		return nil
	}

	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}
	enc, err := output.New(os.Stdout, f)
	if err != nil {
		return err
	}
	if err := enc.Encode(result); err != nil {
		return err
	}
	return enc.Close()
}
