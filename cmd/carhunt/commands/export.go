package commands

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/carhunt/carhunt/internal/output"
	"github.com/carhunt/carhunt/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored listings as JSON, JSONL or YAML",
	Long: `Export stored listings matching a filter. The filter flags are the
same as for analyze; jsonl streams one record per line, which suits
piping into other tools.

Examples:
  carhunt export --brand bmw --format jsonl | jq .price_local
  carhunt export --brand audi --year-min 2018 --format yaml --out audi.yaml`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	addFilterFlags(exportCmd)
	exportCmd.Flags().StringP("format", "f", "jsonl", "output format: json, jsonl, yaml")
	exportCmd.Flags().StringP("out", "o", "", "output file (default: stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	initLogger()

	format, _ := cmd.Flags().GetString("format")
	f, err := output.ParseFormat(format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	db, err := store.Open(viper.GetString("db"))
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Find(context.Background(), filterFromFlags(cmd))
	if err != nil {
		return err
	}

	enc, err := output.New(w, f)
	if err != nil {
		return err
	}
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}
	return enc.Close()
}
