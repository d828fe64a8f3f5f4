package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeNATS struct{ connected bool }

func (n fakeNATS) IsConnected() bool { return n.connected }

type fakeCounter int

func (c fakeCounter) Count() int { return int(c) }

func TestChecker_Check(t *testing.T) {
	checker := NewChecker(fakeNATS{connected: true}, fakePinger{}, fakePinger{err: errors.New("down")}, fakeCounter(3))

	status := checker.Check(context.Background())

	assert.Equal(t, "realtime", status.Service)
	assert.Equal(t, StatusConnected, status.NATS)
	assert.Equal(t, StatusConnected, status.Redis)
	assert.Equal(t, StatusDisconnected, status.Postgres)
	assert.Equal(t, 3, status.Connections)
	assert.False(t, checker.IsReady(status))
}

func TestChecker_NotConfigured(t *testing.T) {
	checker := NewChecker(nil, nil, nil, nil)

	status := checker.Check(context.Background())

	assert.Equal(t, StatusNotConfigured, status.NATS)
	assert.Equal(t, StatusNotConfigured, status.Redis)
	assert.Equal(t, StatusNotConfigured, status.Postgres)
	assert.Equal(t, 0, status.Connections)
	assert.True(t, checker.IsReady(status))
}

func TestChecker_Endpoints(t *testing.T) {
	tests := []struct {
		name      string
		postgres  Pinger
		wantReady int
	}{
		{"ready", fakePinger{}, http.StatusOK},
		{"postgres down", fakePinger{err: errors.New("down")}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewChecker(fakeNATS{}, fakePinger{}, tt.postgres, fakeCounter(1))

			rec := httptest.NewRecorder()
			checker.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			var status Status
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, StatusDisconnected, status.NATS)
			assert.Equal(t, 1, status.Connections)

			rec = httptest.NewRecorder()
			checker.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
			assert.Equal(t, tt.wantReady, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
