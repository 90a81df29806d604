package middleware

import (
	"bytes"
	"io"
	"strings"

	"authgate/pkg/logger"
	"github.com/gin-gonic/gin"
)

// AuditLog records write operations (POST/PUT/DELETE) with a masked copy
// of the request body. Applied to the auth routes so credential and
// session changes leave a trail.
func AuditLog() gin.HandlerFunc {
	audit := logger.With("audit")

	return func(c *gin.Context) {
		method := c.Request.Method
		if method != "POST" && method != "PUT" && method != "DELETE" {
			c.Next()
			return
		}

		var bodySnippet string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bodySnippet = string(bodyBytes)
			if len(bodySnippet) > 2000 {
				bodySnippet = bodySnippet[:2000] + "...[truncated]"
			}
			bodySnippet = maskSensitiveFields(bodySnippet)
		}

		c.Next()

		audit.Info().
			Str("method", method).
			Str("path", c.Request.URL.Path).
			Str("user_id", GetUserID(c)).
			Str("ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Int("status", c.Writer.Status()).
			Str("body", bodySnippet).
			Msg("write operation")
	}
}

// maskSensitiveFields replaces credential values in a JSON body.
func maskSensitiveFields(body string) string {
	sensitiveKeys := []string{"password", "refreshToken", "accessToken", "token", "secret"}
	lower := strings.ToLower(body)
	for _, key := range sensitiveKeys {
		if strings.Contains(lower, strings.ToLower(key)) {
			body = maskJSONValue(body, key)
		}
	}
	return body
}

// maskJSONValue does a best-effort mask of a JSON string value for a key.
func maskJSONValue(body, key string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, "\""+strings.ToLower(key)+"\"")
	if idx == -1 {
		return body
	}

	colonIdx := strings.Index(body[idx+len(key)+2:], ":")
	if colonIdx == -1 {
		return body
	}
	valueStart := idx + len(key) + 2 + colonIdx + 1

	for valueStart < len(body) && (body[valueStart] == ' ' || body[valueStart] == '\t') {
		valueStart++
	}
	if valueStart >= len(body) {
		return body
	}

	if body[valueStart] == '"' {
		endQuote := strings.Index(body[valueStart+1:], "\"")
		if endQuote == -1 {
			return body
		}
		return body[:valueStart+1] + "***" + body[valueStart+1+endQuote:]
	}

	return body
}
