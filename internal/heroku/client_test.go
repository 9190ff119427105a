package heroku

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sfwcore/herobot/internal/model"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 5*time.Second), srv
}

func TestRequestHeaders(t *testing.T) {
	var gotAccept, gotAuth string

	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotAccept = r.Header.Get("Accept")
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		}))
	defer srv.Close()

	_, err := c.ValidateToken(context.Background(), "secret")
	require.NoError(t, err)

	assert.Equal(t, "application/vnd.heroku+json; version=3", gotAccept)
	assert.Equal(t, "Bearer secret", gotAuth)
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantValid bool
		wantErr   bool
	}{
		{"valid", http.StatusOK, true, false},
		{"unauthorized", http.StatusUnauthorized, false, false},
		{"forbidden", http.StatusForbidden, false, false},
		{"server error", http.StatusInternalServerError, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(
				func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.status)
				}))
			defer srv.Close()

			valid, err := c.ValidateToken(context.Background(), "tok")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrUnavailable)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, valid)
		})
	}
}

func TestValidateTokenNetworkError(t *testing.T) {
	c := New("http://127.0.0.1:1", 100*time.Millisecond)

	_, err := c.ValidateToken(context.Background(), "tok")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnavailable)
}

func TestListApps(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/apps", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"id": "a1", "name": "alpha", "web_url": "https://alpha.herokuapp.com/"},
				{"id": "a2", "name": "beta", "web_url": "https://beta.herokuapp.com/"}
			]`))
		}))
	defer srv.Close()

	apps, err := c.ListApps(context.Background(), "tok")
	require.NoError(t, err)

	require.Len(t, apps, 2)
	assert.Equal(t, "alpha", apps[0].Name)
	assert.Equal(t, "https://beta.herokuapp.com/", apps[1].WebURL)
}

func TestGetAppNotFound(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
	defer srv.Close()

	_, err := c.GetApp(context.Background(), "tok", "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestAppExists(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantExists bool
		wantErr    bool
	}{
		{"taken", http.StatusOK, true, false},
		{"free", http.StatusNotFound, false, false},
		{"unavailable", http.StatusBadGateway, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(
				func(w http.ResponseWriter, _ *http.Request) {
					w.WriteHeader(tt.status)
				}))
			defer srv.Close()

			exists, err := c.AppExists(context.Background(), "tok", "some-app")
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrUnavailable)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantExists, exists)
		})
	}
}

func TestRestartApp(t *testing.T) {
	var gotMethod, gotPath string

	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotPath = r.URL.Path
			w.WriteHeader(http.StatusAccepted)
		}))
	defer srv.Close()

	require.NoError(t, c.RestartApp(context.Background(), "tok", "alpha"))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/apps/alpha/dynos", gotPath)
}

func TestCreateApp(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "new-app", body["name"])

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id": "n1", "name": "new-app"}`))
		}))
	defer srv.Close()

	app, err := c.CreateApp(context.Background(), "tok", "new-app")
	require.NoError(t, err)
	assert.Equal(t, "new-app", app.Name)
}

func TestSetConfig(t *testing.T) {
	var gotVars map[string]string

	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPatch, r.Method)
			assert.Equal(t, "/apps/alpha/config-vars", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotVars))
			w.WriteHeader(http.StatusOK)
		}))
	defer srv.Close()

	vars := map[string]string{"API_KEY": "v1", "DB_URL": "v2"}
	require.NoError(t, c.SetConfig(context.Background(), "tok", "alpha", vars))
	assert.Equal(t, vars, gotVars)
}

func TestCreateBuild(t *testing.T) {
	var gotBody struct {
		SourceBlob struct {
			URL     string `json:"url"`
			Version string `json:"version"`
		} `json:"source_blob"`
	}

	c, srv := newTestClient(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/apps/alpha/builds", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
		}))
	defer srv.Close()

	err := c.CreateBuild(
		context.Background(),
		"tok",
		"alpha",
		"https://github.com/o/r/archive/main.tar.gz",
		"main",
	)
	require.NoError(t, err)

	assert.Equal(t, "https://github.com/o/r/archive/main.tar.gz", gotBody.SourceBlob.URL)
	assert.Equal(t, "main", gotBody.SourceBlob.Version)
}

func TestGetLogs(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/logplex", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("line one\nline two\n"))
	})
	mux.HandleFunc("/apps/alpha/log-sessions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(25), body["lines"])
		assert.Equal(t, false, body["tail"])

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"logplex_url": srv.URL + "/logplex",
		})
	})

	c := New(srv.URL, 5*time.Second)

	logs, err := c.GetLogs(context.Background(), "tok", "alpha", 25)
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two\n", logs)
}

func TestSlugURL(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/apps/alpha/releases", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "version ..; order=desc,max=1", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
		_, _ = w.Write([]byte(`[{"slug": {"id": "s1"}}]`))
	})
	mux.HandleFunc("/apps/alpha/slugs/s1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"blob": {"url": "https://signed.example/slug.tgz"}}`))
	})

	c := New(srv.URL, 5*time.Second)

	url, err := c.SlugURL(context.Background(), "tok", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/slug.tgz", url)
}
