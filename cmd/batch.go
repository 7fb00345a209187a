package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lotline/property-cli/internal/fetcher"
	"github.com/lotline/property-cli/internal/reconcile"
)

var (
	batchFile  string
	batchLimit int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Reconcile a CSV file of addresses",
	Long:  "Reads addresses from a CSV file (one per row, first column) and reconciles them concurrently.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		addresses, err := readAddressFile(ctx, batchFile)
		if err != nil {
			return eris.Wrapf(err, "read address file %s", batchFile)
		}

		return processBatch(ctx, e, addresses, batchLimit, cfg.Batch.MaxConcurrent)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchFile, "file", "", "CSV file of addresses (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max number of addresses to process (0 = all)")
	_ = batchCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(batchCmd)
}

// readAddressFile returns the non-empty first column of every row, skipping
// a header row when the first cell looks like a column name.
func readAddressFile(ctx context.Context, path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, errs := fetcher.StreamCSV(ctx, f, fetcher.CSVOptions{})

	var addresses []string
	for row := range rows {
		if len(row) == 0 {
			continue
		}
		addr := strings.TrimSpace(row[0])
		if addr == "" || strings.EqualFold(addr, "address") {
			continue
		}
		addresses = append(addresses, addr)
	}
	if err := <-errs; err != nil {
		return nil, err
	}
	return addresses, nil
}

// processBatch applies limit, then reconciles addresses concurrently.
// Individual failures are logged and counted, never fatal to the batch.
func processBatch(ctx context.Context, e *env, addresses []string, limit, concurrency int) error {
	if len(addresses) == 0 {
		zap.L().Info("no addresses to process")
		return nil
	}

	if limit > 0 && len(addresses) > limit {
		addresses = addresses[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("addresses", len(addresses)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for _, address := range addresses {
		g.Go(func() error {
			log := zap.L().With(zap.String("address", address))

			result, err := e.Orchestrator.Reconcile(gctx, address)
			if err != nil {
				failed.Add(1)
				if eris.Is(err, reconcile.ErrNoData) {
					log.Warn("no source returned data")
				} else {
					log.Error("reconcile failed", zap.Error(err))
				}
				return nil
			}
			rec := result.Record

			version, err := e.Store.NextVersion(gctx, address)
			if err != nil {
				failed.Add(1)
				log.Error("version lookup failed", zap.Error(err))
				return nil
			}
			rec.Version = version

			if err := e.Store.SaveRecord(gctx, rec); err != nil {
				failed.Add(1)
				log.Error("save failed", zap.Error(err))
				return nil
			}
			if err := e.Store.SaveTimings(gctx, rec.ID, result.Timings); err != nil {
				log.Warn("save timings failed", zap.Error(err))
			}

			if e.Auditor != nil && len(rec.Conflicts) > 0 {
				if err := e.Auditor.Export(gctx, rec); err != nil {
					log.Warn("conflict audit export failed", zap.Error(err))
				}
			}

			succeeded.Add(1)
			log.Info("reconciled",
				zap.String("record_id", rec.ID),
				zap.Float64("completeness", rec.Metadata.Completeness),
				zap.Int("conflicts", len(rec.Conflicts)),
			)
			return nil
		})
	}

	_ = g.Wait()

	zap.L().Info("batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)

	if failed.Load() > 0 && succeeded.Load() == 0 {
		return eris.Errorf("all %d addresses failed", failed.Load())
	}
	return nil
}
