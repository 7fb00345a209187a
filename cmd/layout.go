package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lotline/property-cli/internal/layout"
)

var (
	layoutPropertyID string
	layoutArea       float64
	layoutStories    int
	layoutBedrooms   int
	layoutBathrooms  int
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Synthesize heuristic room layouts from structural facts",
	Long:  "Generates a deterministic set of rooms with rectangular wall loops from living area, story count, and bed/bath counts, without fetching any source.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if layoutArea <= 0 {
			return eris.New("living area must be positive")
		}

		synth := layout.NewSynthesizer(layout.DefaultWeights(), layout.Options{
			WallThickness: cfg.Layout.WallThickness,
			CeilingHeight: cfg.Layout.CeilingHeight,
			DoorWidth:     layout.DefaultOptions().DoorWidth,
			DoorHeight:    layout.DefaultOptions().DoorHeight,
		})

		rooms := synth.Synthesize(layoutPropertyID, layout.Details{
			LivingArea: layoutArea,
			Stories:    layoutStories,
			Bedrooms:   layoutBedrooms,
			Bathrooms:  layoutBathrooms,
		})

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rooms)
	},
}

func init() {
	layoutCmd.Flags().StringVar(&layoutPropertyID, "property-id", "standalone", "property ID used to derive stable room IDs")
	layoutCmd.Flags().Float64Var(&layoutArea, "area", 0, "total living area in sqft (required)")
	layoutCmd.Flags().IntVar(&layoutStories, "stories", 1, "number of stories")
	layoutCmd.Flags().IntVar(&layoutBedrooms, "bedrooms", 3, "number of bedrooms")
	layoutCmd.Flags().IntVar(&layoutBathrooms, "bathrooms", 2, "number of bathrooms")
	_ = layoutCmd.MarkFlagRequired("area")
	rootCmd.AddCommand(layoutCmd)
}
