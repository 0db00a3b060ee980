package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseActivityID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "valid", input: "1001", want: 1001},
		{name: "large", input: "12345678901", want: 12345678901},
		{name: "zero", input: "0", wantErr: true},
		{name: "negative", input: "-4", wantErr: true},
		{name: "not a number", input: "run", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseActivityID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{{"sync"}, {"backfill"}, {"check"}, {"activity", "delete"}} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	assert.NotNil(t, syncCmd.Flags().Lookup("limit"))
	assert.NotNil(t, backfillCmd.Flags().Lookup("dry-run"))
}

// fakeStrava serves one activity with a single PR effort.
func fakeStrava(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer","access_token":"access-1","expires_in":21600,"refresh_token":"refresh-me"}`))
	})
	mux.HandleFunc("/api/v3/athlete", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 7, "firstname": "Sam", "lastname": "Runner"}`))
	})
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 1001, "name": "Morning Run", "type": "Run", "distance": 10000,
			"moving_time": 3000, "elapsed_time": 3100, "start_date": "2024-05-01T07:00:00Z", "map": {}}]`))
	})
	mux.HandleFunc("/api/v3/activities/1001", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 1001, "name": "Morning Run", "type": "Run", "distance": 10000,
			"moving_time": 3000, "elapsed_time": 3100, "start_date": "2024-05-01T07:00:00Z", "map": {},
			"segment_efforts": [{"id": 9001, "name": "Hill Climb", "elapsed_time": 95, "moving_time": 95,
				"start_date": "2024-05-01T07:10:00Z", "pr_rank": 1,
				"segment": {"id": 555, "name": "Hill Climb", "distance": 800, "average_grade": 6.1}}]}`))
	})
	mux.HandleFunc("/api/v3/segments/555", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": 555, "name": "Hill Climb", "map": {"polyline": "_p~iF~ps|U_ulLnnqC"}}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsAgainstFakeStrava(t *testing.T) {
	srv := fakeStrava(t)
	t.Setenv("STRAVASYNC_CONFIG", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "strava.db"))
	t.Setenv("STRAVA_CLIENT_ID", "42")
	t.Setenv("STRAVA_CLIENT_SECRET", "shh")
	t.Setenv("STRAVA_REFRESH_TOKEN", "refresh-me")
	t.Setenv("STRAVA_BASE_URL", srv.URL+"/api/v3")
	t.Setenv("STRAVA_TOKEN_URL", srv.URL+"/oauth/token")
	t.Setenv("SYNC_DETAIL_DELAY", "0s")
	t.Setenv("LOG_LEVEL", "disabled")

	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "athlete 7 Sam Runner")

	out, err = execute(t, "sync", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted activities: 1")
	assert.Contains(t, out, "Inserted segments:   1")

	out, err = execute(t, "sync", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "Inserted activities: 0")

	out, err = execute(t, "backfill", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Candidates: 1, Filled: 1, Empty: 0, Failed: 0")

	out, err = execute(t, "backfill", "--dry-run=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Candidates: 1, Filled: 1")

	out, err = execute(t, "backfill", "--dry-run=false")
	require.NoError(t, err)
	assert.Contains(t, out, "Candidates: 0")

	out, err = execute(t, "activity", "delete", "1001")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted activity 1001")

	_, err = execute(t, "activity", "delete", "1001")
	assert.ErrorContains(t, err, "activity not found")
}
