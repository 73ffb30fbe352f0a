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

	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/internal/store"
	"github.com/localpulse/listings-cli/internal/syncer"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the sync API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		sy := initSyncer(st)
		mux := newMux(sy, st)

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
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newMux(sy *syncer.Syncer, st store.Store) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /sync/test", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AgencyID string `json:"agency_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.AgencyID == "" {
			http.Error(w, `{"error":"agency_id is required"}`, http.StatusBadRequest)
			return
		}

		res := sy.Probe(r.Context(), req.AgencyID)
		writeJSON(w, http.StatusOK, res)
	})

	mux.HandleFunc("POST /sync/publish", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			AgencyID   string `json:"agency_id"`
			LocationID string `json:"location_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
			return
		}
		if req.AgencyID == "" || req.LocationID == "" {
			http.Error(w, `{"error":"agency_id and location_id are required"}`, http.StatusBadRequest)
			return
		}

		attempt, err := sy.Publish(r.Context(), req.AgencyID, req.LocationID)
		if err != nil {
			zap.L().Error("publish failed",
				zap.String("location_id", req.LocationID),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, syncer.NormalizeError(err))
			return
		}

		if err := st.LogAttempt(r.Context(), *attempt); err != nil {
			zap.L().Warn("attempt log write failed", zap.Error(err))
		}

		report := syncer.Normalize(attempt)
		writeJSON(w, statusForReport(attempt), report)
	})

	return mux
}

// statusForReport maps an attempt outcome onto an HTTP status code.
func statusForReport(attempt *model.SyncAttempt) int {
	if attempt.Outcome == model.OutcomeSuccess {
		return http.StatusOK
	}
	switch attempt.ErrorKind {
	case model.ErrKindValidation, model.ErrKindProvider:
		return http.StatusUnprocessableEntity
	case model.ErrKindCredentialsNotFound, model.ErrKindAuth:
		return http.StatusUnauthorized
	case model.ErrKindAlreadyInProgress:
		return http.StatusConflict
	case model.ErrKindTransport:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
