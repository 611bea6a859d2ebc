package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the auth service.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>jobboard-auth — Swagger</title>
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

// Minimal OpenAPI document describing the authentication endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "jobboard-auth", "version": "v0.1.0" },
  "paths": {
    "/authenticate": {
      "post": {
        "summary": "Verify credentials, set the refresh cookie, return a JWT",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["username","password"],"properties":{"username":{"type":"string"},"password":{"type":"string"},"rememberMe":{"type":"boolean"}}}}}},
        "responses": { "200": { "description": "token, tokenExpiry (seconds), username" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/refresh-token": {
      "get": { "summary": "Exchange the refresh cookie for a new JWT", "responses": { "200": { "description": "new access token" }, "400": { "description": "refresh token invalid or expired" } } }
    },
    "/logout": {
      "get": { "summary": "Revoke the refresh token and clear the cookie", "responses": { "200": { "description": "logged out" } } }
    },
    "/api/users/me": {
      "get": { "summary": "Account of the authenticated caller", "responses": { "200": { "description": "user" }, "401": { "description": "missing or invalid bearer token" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
