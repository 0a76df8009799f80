package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vaultops/backup-janitor/pkg/janitor"
)

func okJob(sum *janitor.Summary) JobFunc {
	return func(ctx context.Context) (*janitor.Summary, error) {
		return sum, nil
	}
}

func failingJob(err error) JobFunc {
	return func(ctx context.Context) (*janitor.Summary, error) {
		return nil, err
	}
}

func TestServerOptions(t *testing.T) {
	tests := []struct {
		name    string
		opt     Option
		wantErr bool
	}{
		{"valid job", WithJob("cleanup", okJob(&janitor.Summary{})), false},
		{"empty job name", WithJob("", okJob(&janitor.Summary{})), true},
		{"nil job func", WithJob("cleanup", nil), true},
		{"addr", WithAddr(":1810"), false},
		{"logger", WithLogger(zap.NewNop()), false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.opt)
			requireFunc := require.NoError
			if tc.wantErr {
				requireFunc = require.Error
			}
			requireFunc(t, err)
		})
	}
}

func TestServer_RunJob(t *testing.T) {
	s, err := New(
		WithLogger(zap.NewNop()),
		WithJob("cleanup", okJob(&janitor.Summary{Scanned: 3, Matched: 2, Acted: 2})),
	)
	require.NoError(t, err)

	sum, err := s.RunJob(context.Background(), "cleanup")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Acted)

	_, err = s.RunJob(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownJob)
}

func TestServer_ListJobs(t *testing.T) {
	s, err := New(
		WithLogger(zap.NewNop()),
		WithJob("cleanup", okJob(&janitor.Summary{Acted: 1})),
		WithJob("archive", okJob(&janitor.Summary{})),
	)
	require.NoError(t, err)

	_, err = s.RunJob(context.Background(), "cleanup")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/jobs", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var statuses []RunStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "archive", statuses[0].Name)
	assert.True(t, statuses[0].StartedAt.IsZero())
	assert.Equal(t, "cleanup", statuses[1].Name)
	require.NotNil(t, statuses[1].Summary)
	assert.Equal(t, 1, statuses[1].Summary.Acted)
}

func TestServer_TriggerJob(t *testing.T) {
	s, err := New(
		WithLogger(zap.NewNop()),
		WithJob("cleanup", okJob(&janitor.Summary{Acted: 5})),
		WithJob("copy", failingJob(errors.New("enumeration failed"))),
	)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/cleanup/run", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var status RunStatus
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Empty(t, status.Error)
	require.NotNil(t, status.Summary)
	assert.Equal(t, 5, status.Summary.Acted)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/copy/run", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&status))
	assert.Equal(t, "enumeration failed", status.Error)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/jobs/nope/run", nil))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_Healthz(t *testing.T) {
	s, err := New(WithLogger(zap.NewNop()))
	require.NoError(t, err)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestServerRun(t *testing.T) {
	tests := []struct {
		addr string
	}{
		{"unix://" + filepath.Join(os.TempDir(), "backup-janitor-test-server.sock")},
		{":1810"},
	}
	for _, tc := range tests {
		_ = os.Remove(strings.TrimPrefix(tc.addr, "unix://"))
		s, err := New(WithAddr(tc.addr), WithLogger(zap.NewNop()))
		require.NoError(t, err)
		s.testSignalCh = make(chan os.Signal, 1)

		var serverError error
		done := make(chan struct{})
		go func() {
			serverError = s.Run()
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)
		s.testSignalCh <- syscall.SIGTERM

		select {
		case <-done:
		case <-time.After(25 * time.Second):
			t.Fatal("server did not shut down")
		}
		assert.ErrorIs(t, serverError, http.ErrServerClosed)
	}
}
