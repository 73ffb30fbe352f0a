package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/internal/store"
	"github.com/localpulse/listings-cli/internal/syncer"
	"github.com/localpulse/listings-cli/pkg/places"
)

func newTestEnv(t *testing.T, provider http.Handler) (*http.ServeMux, store.Store) {
	t.Helper()

	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	client := places.NewClient(places.WithBaseURL(srv.URL))
	sy := syncer.New(st, client)
	return newMux(sy, st), st
}

func seedLocationAndCreds(t *testing.T, st store.Store) *model.Location {
	t.Helper()
	loc, err := st.CreateLocation(context.Background(), model.Location{
		AgencyID:  "ag-1",
		Name:      "Blue Bottle Cafe",
		Street:    "12 Market St",
		City:      "Hamburg",
		Country:   "DE",
		Phone:     "+49 40 1234567",
		Latitude:  53.55,
		Longitude: 9.99,
	})
	require.NoError(t, err)
	require.NoError(t, st.UpsertCredentials(context.Background(), model.Credentials{
		AgencyID: "ag-1",
		Token:    "tok-abc",
	}))
	return loc
}

func TestHealthEndpoint(t *testing.T) {
	mux, _ := newTestEnv(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSyncPublishEndpoint(t *testing.T) {
	provider := http.NewServeMux()
	provider.HandleFunc("POST /listings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": "bp-1", "state": "pending"})
	})
	mux, st := newTestEnv(t, provider)
	loc := seedLocationAndCreds(t, st)

	body := `{"agency_id":"ag-1","location_id":"` + loc.ID + `"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/publish", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var report syncer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Success)
	assert.Equal(t, model.SyncStatusPending, report.Status)
	assert.Equal(t, "bp-1", report.ProviderListingID)

	// The attempt lands in the audit trail.
	attempts, err := st.ListAttempts(context.Background(), loc.ID, 10)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, model.OutcomeSuccess, attempts[0].Outcome)

	// And the status change is persisted.
	got, err := st.GetLocation(context.Background(), loc.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusPending, got.SyncStatus)
}

func TestSyncPublishEndpoint_Rejection(t *testing.T) {
	provider := http.NewServeMux()
	provider.HandleFunc("POST /listings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"code": "invalid_address", "message": "invalid address"},
		})
	})
	mux, st := newTestEnv(t, provider)
	loc := seedLocationAndCreds(t, st)

	body := `{"agency_id":"ag-1","location_id":"` + loc.ID + `"}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/publish", strings.NewReader(body)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var report syncer.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.Success)
	assert.Contains(t, report.Message, "invalid address")
	assert.Equal(t, model.SyncStatusSuspended, report.Status)
}

func TestSyncPublishEndpoint_BadRequest(t *testing.T) {
	mux, _ := newTestEnv(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/publish", strings.NewReader(`{"agency_id":""}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/publish", strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSyncTestEndpoint(t *testing.T) {
	provider := http.NewServeMux()
	provider.HandleFunc("GET /account", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"authorized": true})
	})
	mux, st := newTestEnv(t, provider)
	seedLocationAndCreds(t, st)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/test", strings.NewReader(`{"agency_id":"ag-1"}`)))

	require.Equal(t, http.StatusOK, rec.Code)

	var res syncer.ProbeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Reachable)
	assert.True(t, res.Authorized)
}

func TestSyncTestEndpoint_MissingAgency(t *testing.T) {
	mux, _ := newTestEnv(t, http.NotFoundHandler())

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync/test", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForReport(t *testing.T) {
	tests := []struct {
		name    string
		attempt model.SyncAttempt
		want    int
	}{
		{"success", model.SyncAttempt{Outcome: model.OutcomeSuccess}, http.StatusOK},
		{"validation", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindValidation}, http.StatusUnprocessableEntity},
		{"provider rejection", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindProvider}, http.StatusUnprocessableEntity},
		{"missing credentials", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindCredentialsNotFound}, http.StatusUnauthorized},
		{"auth", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindAuth}, http.StatusUnauthorized},
		{"in flight", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindAlreadyInProgress}, http.StatusConflict},
		{"transport", model.SyncAttempt{Outcome: model.OutcomeFailure, ErrorKind: model.ErrKindTransport}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusForReport(&tt.attempt))
		})
	}
}
