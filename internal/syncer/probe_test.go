package syncer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localpulse/listings-cli/internal/model"
	"github.com/localpulse/listings-cli/pkg/places"
)

func TestProbe_Healthy(t *testing.T) {
	st := seedStore(t, testLocation("loc-1", model.SyncStatusActive))
	client := &fakeClient{accessRes: &places.AccessResult{Reachable: true, Authorized: true}}
	s := New(st, client)

	res := s.Probe(context.Background(), "ag-1")
	assert.True(t, res.Reachable)
	assert.True(t, res.Authorized)
	assert.Equal(t, "provider connection is healthy", res.Message)
}

func TestProbe_ExpiredCredentials(t *testing.T) {
	st := seedStore(t, testLocation("loc-1", model.SyncStatusActive))
	client := &fakeClient{accessErr: &places.AuthError{StatusCode: 401, Message: "token expired"}}
	s := New(st, client)

	res := s.Probe(context.Background(), "ag-1")
	assert.True(t, res.Reachable)
	assert.False(t, res.Authorized)
	assert.Contains(t, res.Message, "reconnect the provider account")

	// A probe never moves any location's status.
	assert.Equal(t, model.SyncStatusActive, st.status("loc-1"))
}

func TestProbe_Unreachable(t *testing.T) {
	st := seedStore(t, testLocation("loc-1", model.SyncStatusActive))
	client := &fakeClient{accessErr: &places.TransportError{Err: errors.New("dial tcp: i/o timeout")}}
	s := New(st, client)

	res := s.Probe(context.Background(), "ag-1")
	assert.False(t, res.Reachable)
	assert.False(t, res.Authorized)
	assert.Contains(t, res.Message, "unreachable")
	assert.Equal(t, model.SyncStatusActive, st.status("loc-1"))
}

func TestProbe_NoCredentials(t *testing.T) {
	st := newFakeStore()
	_, err := st.CreateLocation(context.Background(), testLocation("loc-1", model.SyncStatusActive))
	require.NoError(t, err)
	client := &fakeClient{}
	s := New(st, client)

	res := s.Probe(context.Background(), "ag-1")
	assert.False(t, res.Reachable)
	assert.False(t, res.Authorized)
	assert.Contains(t, res.Message, "connect the provider account")
}

func TestProbe_LimitedAccessAsData(t *testing.T) {
	st := seedStore(t, testLocation("loc-1", model.SyncStatusActive))
	client := &fakeClient{accessRes: &places.AccessResult{
		Reachable:       true,
		Authorized:      false,
		ProviderMessage: "account under review",
	}}
	s := New(st, client)

	res := s.Probe(context.Background(), "ag-1")
	assert.True(t, res.Reachable)
	assert.False(t, res.Authorized)
	assert.Equal(t, "account under review", res.Message)
}
