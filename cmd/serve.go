package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lotline/property-cli/internal/reconcile"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for reconciliation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		mux := newServeMux(e)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newServeMux(e *env) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /reconcile", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Address string `json:"address"`
			Save    bool   `json:"save"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.Address == "" {
			http.Error(w, `{"error":"address is required"}`, http.StatusBadRequest)
			return
		}

		result, err := e.Orchestrator.Reconcile(r.Context(), req.Address)
		if err != nil {
			if eris.Is(err, reconcile.ErrNoData) {
				writeJSON(w, http.StatusNotFound, map[string]any{
					"error":  "no source returned data",
					"errors": result.Errors,
				})
				return
			}
			zap.L().Error("reconcile failed",
				zap.String("address", req.Address),
				zap.Error(err),
			)
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		rec := result.Record

		if req.Save {
			version, err := e.Store.NextVersion(r.Context(), req.Address)
			if err == nil {
				rec.Version = version
				err = e.Store.SaveRecord(r.Context(), rec)
			}
			if err != nil {
				zap.L().Error("save failed", zap.String("record_id", rec.ID), zap.Error(err))
				http.Error(w, `{"error":"save failed"}`, http.StatusInternalServerError)
				return
			}
		}

		writeJSON(w, http.StatusOK, result)
	})

	mux.HandleFunc("GET /records/{id}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := e.Store.GetRecord(r.Context(), r.PathValue("id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "record not found"})
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})

	mux.HandleFunc("GET /records/{id}/conflicts", func(w http.ResponseWriter, r *http.Request) {
		conflicts, err := e.Store.ListConflicts(r.Context(), r.PathValue("id"))
		if err != nil {
			http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, conflicts)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
