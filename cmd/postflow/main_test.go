package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/internal/config"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Store:  config.StoreConfig{Backend: config.StoreMemory},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Minute},
		Auth:   config.AuthConfig{RequireReviewer: true, DevTokens: true},
	}
}

func do(t *testing.T, r http.Handler, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func TestServerSaladWorkflow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, cleanup, err := buildServer(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	code, body := do(t, r, http.MethodPost, "/auth/token", "", map[string]string{"sub": "reviewer-1"})
	require.Equal(t, http.StatusOK, code)
	token, _ := body["accessToken"].(string)
	require.NotEmpty(t, token)

	code, body = do(t, r, http.MethodPost, "/api/posts", "", map[string]string{"title": "lunch", "content": "I ate a salad for lunch today"})
	require.Equal(t, http.StatusCreated, code)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	_, body = do(t, r, http.MethodGet, "/api/posts/"+id, "", nil)
	require.Equal(t, "", body["content"])
	code, _ = do(t, r, http.MethodGet, "/api/posts/"+id+"/draft", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)
	code, body = do(t, r, http.MethodGet, "/api/posts/"+id+"/draft", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "I ate a salad for lunch today", body["draft"])

	code, _ = do(t, r, http.MethodPost, "/api/posts/"+id+"/review", "", nil)
	require.Equal(t, http.StatusUnauthorized, code)

	code, body = do(t, r, http.MethodPost, "/api/posts/"+id+"/review", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "pending_review", body["to"])

	_, body = do(t, r, http.MethodGet, "/api/posts/"+id, "", nil)
	require.Equal(t, "", body["content"])

	code, body = do(t, r, http.MethodPost, "/api/posts/"+id+"/approve", token, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "published", body["to"])

	_, body = do(t, r, http.MethodGet, "/api/posts/"+id, "", nil)
	require.Equal(t, "I ate a salad for lunch today", body["content"])
}

func TestServerHealthAndReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, cleanup, err := buildServer(context.Background(), testConfig())
	require.NoError(t, err)
	defer cleanup()

	code, _ := do(t, r, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, code)
	code, body := do(t, r, http.MethodGet, "/ready", "", nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "ready", body["status"])
}

func TestBuildVerifier(t *testing.T) {
	cfg := testConfig()
	v, err := buildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, v)

	cfg.JWT.Secret = ""
	_, err = buildVerifier(context.Background(), cfg)
	require.Error(t, err)

	cfg.Auth.AllowInsecureToken = true
	v, err = buildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, v)

	cfg.Auth = config.AuthConfig{}
	v, err = buildVerifier(context.Background(), cfg)
	require.NoError(t, err)
	require.Nil(t, v)
}
