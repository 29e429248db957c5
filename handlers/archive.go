package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/postflow/internal/storage"
	"github.com/gogotex/postflow/pkg/logger"
)

const archiveLinkTTL = 15 * time.Minute

// Archive is the read side of the published-post archive.
type Archive interface {
	Archived(ctx context.Context, postID string) (string, error)
	ArchiveURL(ctx context.Context, postID string, ttl time.Duration) (string, error)
}

// RegisterArchive serves archived copies of published posts:
// GET /api/archive/:id returns the text, GET /api/archive/:id/link a
// presigned download URL.
func RegisterArchive(rg gin.IRouter, a Archive) {
	g := rg.Group("/api/archive")

	g.GET("/:id", func(c *gin.Context) {
		text, err := a.Archived(c.Request.Context(), c.Param("id"))
		if err != nil {
			archiveError(c, err)
			return
		}
		c.String(http.StatusOK, text)
	})

	g.GET("/:id/link", func(c *gin.Context) {
		u, err := a.ArchiveURL(c.Request.Context(), c.Param("id"), archiveLinkTTL)
		if err != nil {
			archiveError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": u, "expiresIn": int(archiveLinkTTL.Seconds())})
	})
}

func archiveError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotArchived) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not archived"})
		return
	}
	logger.Errorf("archive %s: %v", c.Param("id"), err)
	c.JSON(http.StatusBadGateway, gin.H{"error": "archive unavailable"})
}
