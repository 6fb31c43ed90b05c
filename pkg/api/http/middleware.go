package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"

	// JSONBodyKey holds the decoded request body, when one was sent
	JSONBodyKey = "json_body"
)

// requestID tags each request with the caller's X-Request-ID or a new uuid
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestIDFrom returns the id assigned to the request
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// requestLogger is a middleware for request logging
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		duration := time.Since(start)

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", RequestIDFrom(c)))
	}
}

// requestMetrics reports each request; unrouted paths share one label
func requestMetrics(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

// corsMiddleware allows every origin. Preflight requests are answered
// directly and echo the requested headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
			if headers := c.GetHeader("Access-Control-Request-Headers"); headers != "" {
				c.Header("Access-Control-Allow-Headers", headers)
				c.Writer.Header().Add("Vary", "Access-Control-Request-Headers")
			}
			c.Header("Content-Length", "0")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// jsonBody decodes JSON request bodies into the context under JSONBodyKey.
// Requests without a body pass through untouched; only a single object or
// array is accepted at the top level.
func jsonBody(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.ContentLength == 0 || !isJSON(c.ContentType()) {
			c.Next()
			return
		}

		raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortBadBody(c, http.StatusRequestEntityTooLarge, "Request body too large")
				return
			}
			abortBadBody(c, http.StatusBadRequest, "Invalid request body")
			return
		}

		trimmed := bytes.TrimSpace(raw)
		if len(trimmed) == 0 {
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			c.Next()
			return
		}

		// The binder stops after the first value, so the whole document is
		// checked for trailing data first.
		if (trimmed[0] != '{' && trimmed[0] != '[') || !json.Valid(trimmed) {
			abortBadBody(c, http.StatusBadRequest, "Invalid JSON body")
			return
		}

		var body any
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		if err := c.ShouldBindJSON(&body); err != nil {
			abortBadBody(c, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))

		c.Set(JSONBodyKey, body)
		c.Next()
	}
}

func isJSON(contentType string) bool {
	return contentType == "application/json" || strings.HasSuffix(contentType, "+json")
}

func abortBadBody(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Success: false,
		Message: message,
	})
}
