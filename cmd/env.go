package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/audit"
	"github.com/lotline/property-cli/internal/county"
	"github.com/lotline/property-cli/internal/fetcher"
	"github.com/lotline/property-cli/internal/layout"
	"github.com/lotline/property-cli/internal/model"
	"github.com/lotline/property-cli/internal/reconcile"
	"github.com/lotline/property-cli/internal/source"
	"github.com/lotline/property-cli/internal/store"
	"github.com/lotline/property-cli/pkg/grounded"
	"github.com/lotline/property-cli/pkg/homescout"
	"github.com/lotline/property-cli/pkg/zenlist"
)

// env bundles the long-lived objects every command needs.
type env struct {
	Store        store.Store
	Orchestrator *reconcile.Orchestrator
	Auditor      *audit.Exporter
}

func (e *env) Close() {
	if e.Store != nil {
		e.Store.Close() //nolint:errcheck
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "property.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initEnv builds the store, the configured sources, and the orchestrator.
func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}

	sources, err := initSources(ctx)
	if err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}

	table := model.DefaultPriorityTable()
	if cfg.Reconcile.PriorityTablePath != "" {
		table, err = model.LoadPriorityTable(cfg.Reconcile.PriorityTablePath)
		if err != nil {
			st.Close() //nolint:errcheck
			return nil, eris.Wrap(err, "load priority table")
		}
	}

	synth := layout.NewSynthesizer(layout.DefaultWeights(), layout.Options{
		WallThickness: cfg.Layout.WallThickness,
		CeilingHeight: cfg.Layout.CeilingHeight,
		DoorWidth:     layout.DefaultOptions().DoorWidth,
		DoorHeight:    layout.DefaultOptions().DoorHeight,
	})

	timeout := time.Duration(cfg.Reconcile.TimeoutSecs) * time.Second
	orch := reconcile.NewOrchestrator(sources, reconcile.NewReconciler(table), synth, timeout)

	e := &env{Store: st, Orchestrator: orch}

	if cfg.Notion.Token != "" && cfg.Notion.ConflictDB != "" {
		e.Auditor = audit.NewExporter(audit.NewClient(cfg.Notion.Token), cfg.Notion.ConflictDB)
	}

	return e, nil
}

// initSources builds one adapter per name in reconcile.sources. Unknown
// names are an error so typos in config fail loudly.
func initSources(ctx context.Context) ([]source.Source, error) {
	var sources []source.Source
	for _, name := range cfg.Reconcile.Sources {
		switch model.SourceName(name) {
		case model.SourceZenlist:
			var opts []zenlist.Option
			if cfg.Zenlist.BaseURL != "" {
				opts = append(opts, zenlist.WithBaseURL(cfg.Zenlist.BaseURL))
			}
			sources = append(sources, source.NewZenlistAdapter(zenlist.NewClient(cfg.Zenlist.Key, opts...)))
		case model.SourceHomescout:
			var opts []homescout.Option
			if cfg.Homescout.BaseURL != "" {
				opts = append(opts, homescout.WithBaseURL(cfg.Homescout.BaseURL))
			}
			sources = append(sources, source.NewHomescoutAdapter(homescout.NewClient(cfg.Homescout.Key, opts...)))
		case model.SourceCounty:
			index, err := loadCountyIndex(ctx)
			if err != nil {
				return nil, eris.Wrap(err, "load county roll")
			}
			sources = append(sources, source.NewCountyAdapter(index))
		case model.SourceGrounded:
			sources = append(sources, source.NewGroundedAdapter(
				grounded.NewClient(cfg.Grounded.Key, grounded.WithModel(cfg.Grounded.Model))))
		default:
			return nil, eris.Errorf("unknown source: %s", name)
		}
	}
	return sources, nil
}

// loadCountyIndex builds the assessor roll index from a local file or a
// remote URL (http or ftp), attaching parcel centroids when a shapefile
// is configured.
func loadCountyIndex(ctx context.Context) (*county.Index, error) {
	var (
		index *county.Index
		err   error
	)

	switch {
	case cfg.County.RollPath != "" && strings.HasSuffix(cfg.County.RollPath, ".xlsx"):
		index, err = county.LoadXLSX(cfg.County.RollPath)
	case cfg.County.RollPath != "":
		f, openErr := os.Open(cfg.County.RollPath)
		if openErr != nil {
			return nil, eris.Wrapf(openErr, "open roll %s", cfg.County.RollPath)
		}
		defer f.Close()
		index, err = county.LoadCSV(ctx, f)
	case cfg.County.RollURL != "":
		var fr fetcher.Fetcher
		if strings.HasPrefix(cfg.County.RollURL, "ftp://") {
			fr = fetcher.NewFTPFetcher(fetcher.FTPOptions{})
		} else {
			fr = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{RateLimiters: fetcher.DefaultRateLimiters()})
		}
		body, dlErr := fr.Download(ctx, cfg.County.RollURL)
		if dlErr != nil {
			return nil, eris.Wrapf(dlErr, "download roll %s", cfg.County.RollURL)
		}
		defer body.Close()
		index, err = county.LoadCSV(ctx, body)
	default:
		return nil, eris.New("county source enabled but no roll_path or roll_url configured")
	}
	if err != nil {
		return nil, err
	}

	if cfg.County.ParcelShpPath != "" {
		parcels, shpErr := county.LoadParcelShapefile(cfg.County.ParcelShpPath, cfg.County.ParcelField)
		if shpErr != nil {
			zap.L().Warn("parcel shapefile load failed, centroids unavailable", zap.Error(shpErr))
		} else {
			index = index.WithParcels(parcels)
		}
	}

	zap.L().Info("county roll loaded", zap.Int("entries", index.Len()))
	return index, nil
}
