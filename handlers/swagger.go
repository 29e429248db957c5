package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the post service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>postflow API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "postflow", "version": "v0.1.0" },
  "paths": {
    "/api/posts": {
      "get": { "summary": "List posts", "responses": { "200": { "description": "id, title, state, updatedAt per post" } } },
      "post": {
        "summary": "Create a draft post",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"title":{"type":"string"},"content":{"type":"string"}}}}}},
        "responses": { "201": { "description": "created in draft state" }, "400": { "description": "bad request" } }
      }
    },
    "/api/posts/{id}": {
      "get": { "summary": "Read a post; content is empty until published", "responses": { "200": { "description": "post" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a post", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/api/posts/{id}/draft": {
      "get": { "summary": "Author view of the accumulated text", "responses": { "200": { "description": "draft" } } }
    },
    "/api/posts/{id}/text": {
      "post": {
        "summary": "Append text in any state",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"text":{"type":"string"}}}}}},
        "responses": { "200": { "description": "appended" }, "409": { "description": "concurrent update, retry" } }
      }
    },
    "/api/posts/{id}/review": {
      "post": { "summary": "Request review (draft -> pending_review)", "responses": { "200": { "description": "transition result" }, "401": { "description": "reviewer auth required" } } }
    },
    "/api/posts/{id}/approve": {
      "post": { "summary": "Approve (pending_review -> published)", "responses": { "200": { "description": "transition result" }, "401": { "description": "reviewer auth required" } } }
    },
    "/api/posts/{id}/actions/{action}": {
      "post": { "summary": "Apply request_review or approve by name", "responses": { "200": { "description": "transition result" }, "400": { "description": "unknown action" }, "401": { "description": "auth required" } } }
    },
    "/api/posts/{id}/history": {
      "get": { "summary": "Effective transitions, oldest first", "responses": { "200": { "description": "entries" } } }
    },
    "/api/archive/{id}": {
      "get": { "summary": "Archived text of a published post (when archiving is enabled)", "responses": { "200": { "description": "text/plain" }, "404": { "description": "not archived" } } }
    },
    "/api/archive/{id}/link": {
      "get": { "summary": "Presigned download link for the archived post", "responses": { "200": { "description": "url, expiresIn" }, "404": { "description": "not archived" } } }
    },
    "/auth/revoke": {
      "post": { "summary": "Revoke the bearer token until it expires", "responses": { "200": { "description": "revoked" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
