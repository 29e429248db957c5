package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/internal/post"
	"github.com/gogotex/postflow/internal/post/service"
	"github.com/gogotex/postflow/pkg/logger"
)

// RegisterPostRoutes mounts the post API on r. Middlewares in guard (for
// example AuthMiddleware) run before every route that reveals unpublished
// text or changes an existing post; creating a draft, listing and reading
// visible content stay open.
func RegisterPostRoutes(r gin.IRouter, svc service.Service, guard ...gin.HandlerFunc) {
	g := r.Group("/api/posts")
	guarded := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), h)
	}

	g.GET("", func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			writeError(c, err)
			return
		}
		out := make([]gin.H, 0, len(list))
		for _, p := range list {
			out = append(out, gin.H{"id": p.ID, "title": p.Title, "state": p.State, "updatedAt": p.UpdatedAt})
		}
		c.JSON(http.StatusOK, out)
	})

	g.POST("", func(c *gin.Context) {
		var req struct {
			Title   string `json:"title"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Title == "" {
			req.Title = "untitled"
		}
		p, err := svc.Create(c.Request.Context(), req.Title, req.Content)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": p.ID, "title": p.Title, "state": p.State})
	})

	// readers only ever see the visible content
	g.GET("/:id", func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "title": p.Title, "state": p.State, "content": p.Post().Content(), "createdAt": p.CreatedAt, "updatedAt": p.UpdatedAt})
	})

	g.GET("/:id/draft", guarded(func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "state": p.State, "draft": p.Post().Draft()})
	})...)

	g.POST("/:id/text", guarded(func(c *gin.Context) {
		var req struct {
			Text string `json:"text"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		p, err := svc.AppendText(c.Request.Context(), c.Param("id"), req.Text)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "state": p.State})
	})...)

	g.POST("/:id/review", guarded(func(c *gin.Context) {
		t, err := svc.RequestReview(c.Request.Context(), c.Param("id"), actor(c))
		if err != nil {
			writeError(c, err)
			return
		}
		writeTransition(c, t)
	})...)

	g.POST("/:id/approve", guarded(func(c *gin.Context) {
		t, err := svc.Approve(c.Request.Context(), c.Param("id"), actor(c))
		if err != nil {
			writeError(c, err)
			return
		}
		writeTransition(c, t)
	})...)

	// generic form for clients that carry the action name as data
	g.POST("/:id/actions/:action", guarded(func(c *gin.Context) {
		action, ok := post.ParseAction(c.Param("action"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action", "actions": []post.Action{post.ActionRequestReview, post.ActionApprove}})
			return
		}
		t, err := svc.Apply(c.Request.Context(), c.Param("id"), actor(c), action)
		if err != nil {
			writeError(c, err)
			return
		}
		writeTransition(c, t)
	})...)

	g.GET("/:id/history", func(c *gin.Context) {
		entries, err := svc.History(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	g.DELETE("/:id", guarded(func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})...)
}

func writeTransition(c *gin.Context, t *service.Transition) {
	c.JSON(http.StatusOK, gin.H{"id": t.ID, "action": t.Action, "from": t.From.String(), "to": t.To.String(), "changed": t.Changed})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "post was modified concurrently, retry"})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// actor is the authenticated subject, if the auth middleware ran.
func actor(c *gin.Context) string {
	if v, ok := c.Get("claims"); ok {
		if cm, ok := v.(map[string]interface{}); ok {
			if sub, ok := cm["sub"].(string); ok && sub != "" {
				return sub
			}
		}
	}
	return "anonymous"
}
