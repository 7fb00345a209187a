package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/internal/store"
)

var (
	recordsAddress string
	recordsQuality string
	recordsLimit   int
)

var recordsCmd = &cobra.Command{
	Use:   "records",
	Short: "List stored property records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		records, err := st.ListRecords(ctx, store.RecordFilter{
			Address: recordsAddress,
			Quality: model.DataQualityTier(recordsQuality),
			Limit:   recordsLimit,
		})
		if err != nil {
			return err
		}

		for _, rec := range records {
			fmt.Printf("%s  v%d  %-9s  %5.1f%%  %s\n",
				rec.ID, rec.Version, rec.Metadata.DataQuality,
				rec.Metadata.Completeness, rec.Address.Raw)
		}
		return nil
	},
}

var recordShowCmd = &cobra.Command{
	Use:   "show <record-id>",
	Short: "Print a stored record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		rec, err := st.GetRecord(ctx, args[0])
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	},
}

func init() {
	recordsCmd.Flags().StringVar(&recordsAddress, "address", "", "filter by raw address")
	recordsCmd.Flags().StringVar(&recordsQuality, "quality", "", "filter by data quality (scraped|estimated)")
	recordsCmd.Flags().IntVar(&recordsLimit, "limit", 50, "max records to list")
	recordsCmd.AddCommand(recordShowCmd)
	rootCmd.AddCommand(recordsCmd)
}
