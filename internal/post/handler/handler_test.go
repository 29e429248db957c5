package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/internal/post/service"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func do(t *testing.T, g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPostHandler_SaladScenario(t *testing.T) {
	g := gin.New()
	RegisterPostRoutes(g, service.NewMemoryService())

	w := do(t, g, http.MethodPost, "/api/posts", `{"title":"lunch"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)
	require.NotEmpty(t, id)

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/text", `{"text":"I ate a salad for lunch today"}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w)
	require.Equal(t, "", got["content"])
	require.Equal(t, "draft", got["state"])

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/review", "")
	require.Equal(t, http.StatusOK, w.Code)
	tr := decode(t, w)
	require.Equal(t, "pending_review", tr["to"])
	require.Equal(t, true, tr["changed"])

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, "", decode(t, w)["content"])

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "published", decode(t, w)["to"])

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, "I ate a salad for lunch today", decode(t, w)["content"])

	w = do(t, g, http.MethodGet, "/api/posts/"+id+"/history", "")
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	require.Equal(t, "anonymous", entries[0]["actor"])
}

func TestPostHandler_ApproveDraftIsNoop(t *testing.T) {
	g := gin.New()
	RegisterPostRoutes(g, service.NewMemoryService())

	w := do(t, g, http.MethodPost, "/api/posts", `{"title":"t","content":"secret"}`)
	id := decode(t, w)["id"].(string)

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	tr := decode(t, w)
	require.Equal(t, false, tr["changed"])
	require.Equal(t, "draft", tr["to"])

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, "", decode(t, w)["content"])

	// the author still sees their draft
	w = do(t, g, http.MethodGet, "/api/posts/"+id+"/draft", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "secret", decode(t, w)["draft"])
}

func TestPostHandler_ListAndDelete(t *testing.T) {
	g := gin.New()
	RegisterPostRoutes(g, service.NewMemoryService())

	w := do(t, g, http.MethodPost, "/api/posts", `{}`)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	require.Equal(t, "untitled", created["title"])
	id := created["id"].(string)

	w = do(t, g, http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.Equal(t, id, list[0]["id"])

	w = do(t, g, http.MethodDelete, "/api/posts/"+id, "")
	require.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPostHandler_Errors(t *testing.T) {
	g := gin.New()
	RegisterPostRoutes(g, service.NewMemoryService())

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/posts/missing", ""},
		{http.MethodGet, "/api/posts/missing/draft", ""},
		{http.MethodPost, "/api/posts/missing/text", `{"text":"x"}`},
		{http.MethodPost, "/api/posts/missing/review", ""},
		{http.MethodPost, "/api/posts/missing/approve", ""},
		{http.MethodGet, "/api/posts/missing/history", ""},
		{http.MethodDelete, "/api/posts/missing", ""},
	} {
		w := do(t, g, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}

	w := do(t, g, http.MethodPost, "/api/posts", `{not json`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostHandler_GuardRecordsActor(t *testing.T) {
	g := gin.New()
	guard := func(c *gin.Context) {
		if c.GetHeader("X-Test-User") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set("claims", map[string]interface{}{"sub": c.GetHeader("X-Test-User")})
		c.Next()
	}
	RegisterPostRoutes(g, service.NewMemoryService(), guard)

	w := do(t, g, http.MethodPost, "/api/posts", `{"title":"t"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/review", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/posts/"+id+"/review", nil)
	req.Header.Set("X-Test-User", "editor-1")
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	require.Equal(t, http.StatusOK, rw.Code)

	w = do(t, g, http.MethodGet, "/api/posts/"+id+"/history", "")
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	require.Equal(t, "editor-1", entries[0]["actor"])
}

func TestPostHandler_GuardHidesUnpublishedText(t *testing.T) {
	g := gin.New()
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	svc := service.NewMemoryService()
	RegisterPostRoutes(g, svc, deny)

	w := do(t, g, http.MethodPost, "/api/posts", `{"title":"t","content":"secret unpublished text"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode(t, w)["id"].(string)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/posts/" + id + "/draft", ""},
		{http.MethodPost, "/api/posts/" + id + "/text", `{"text":" more"}`},
		{http.MethodPost, "/api/posts/" + id + "/review", ""},
		{http.MethodPost, "/api/posts/" + id + "/approve", ""},
		{http.MethodPost, "/api/posts/" + id + "/actions/approve", ""},
		{http.MethodDelete, "/api/posts/" + id, ""},
	} {
		w := do(t, g, tc.method, tc.path, tc.body)
		require.Equal(t, http.StatusUnauthorized, w.Code, tc.method+" "+tc.path)
		require.NotContains(t, w.Body.String(), "secret")
	}

	// readers still get the post, without its text
	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "", decode(t, w)["content"])
	w = do(t, g, http.MethodGet, "/api/posts", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "secret")

	rec, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, "secret unpublished text", rec.Content)
	require.Equal(t, "draft", rec.State)
}

func TestPostHandler_ActionByName(t *testing.T) {
	g := gin.New()
	RegisterPostRoutes(g, service.NewMemoryService())

	w := do(t, g, http.MethodPost, "/api/posts", `{"title":"t","content":"I ate a salad for lunch today"}`)
	id := decode(t, w)["id"].(string)

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/actions/publish", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "unknown action", decode(t, w)["error"])

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/actions/REQUEST_REVIEW", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pending_review", decode(t, w)["to"])

	w = do(t, g, http.MethodPost, "/api/posts/"+id+"/actions/approve", "")
	require.Equal(t, http.StatusOK, w.Code)
	tr := decode(t, w)
	require.Equal(t, "approve", tr["action"])
	require.Equal(t, "published", tr["to"])

	w = do(t, g, http.MethodGet, "/api/posts/"+id, "")
	require.Equal(t, "I ate a salad for lunch today", decode(t, w)["content"])

	w = do(t, g, http.MethodPost, "/api/posts/missing/actions/approve", "")
	require.Equal(t, http.StatusNotFound, w.Code)
}
