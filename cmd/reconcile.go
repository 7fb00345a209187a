package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/reconcile"
)

var (
	reconcileAddress string
	reconcileNoSave  bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile property facts for a single address",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		result, err := e.Orchestrator.Reconcile(ctx, reconcileAddress)
		if err != nil {
			if eris.Is(err, reconcile.ErrNoData) && result != nil {
				zap.L().Error("no source returned data",
					zap.String("address", reconcileAddress),
					zap.Int("sources_failed", len(result.Errors)),
				)
			}
			return err
		}
		rec := result.Record

		if !reconcileNoSave {
			version, err := e.Store.NextVersion(ctx, reconcileAddress)
			if err != nil {
				return err
			}
			rec.Version = version
			if err := e.Store.SaveRecord(ctx, rec); err != nil {
				return err
			}
			if err := e.Store.SaveTimings(ctx, rec.ID, result.Timings); err != nil {
				return err
			}
		}

		if e.Auditor != nil && len(rec.Conflicts) > 0 {
			if err := e.Auditor.Export(ctx, rec); err != nil {
				zap.L().Warn("conflict audit export failed", zap.Error(err))
			}
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	reconcileCmd.Flags().StringVar(&reconcileAddress, "address", "", "property address (required)")
	reconcileCmd.Flags().BoolVar(&reconcileNoSave, "no-save", false, "print the record without persisting it")
	_ = reconcileCmd.MarkFlagRequired("address")
	rootCmd.AddCommand(reconcileCmd)
}
