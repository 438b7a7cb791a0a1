package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/Davide9292/Vibe-Coding-Award-sub000/internal/services"
	"github.com/gin-gonic/gin"
)

const maxAuditBody = 2000

var sensitiveKeys = map[string]bool{
	"password":     true,
	"secret":       true,
	"token":        true,
	"refreshtoken": true,
	"accesstoken":  true,
	"htmlbody":     true,
}

// AuditLog records admin writes to system_logs after the handler ran.
func AuditLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPut && method != http.MethodDelete {
			c.Next()
			return
		}

		var body string
		if c.Request.Body != nil {
			raw, _ := io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(raw))
			body = maskBody(raw)
		}

		c.Next()

		module, action := routeAction(c.FullPath(), method)
		status := c.Writer.Status()
		outcome := "OK"
		if status >= http.StatusBadRequest {
			outcome = "Failed"
		}

		var uid *uint
		if id := GetUserID(c); id > 0 {
			uid = &id
		}
		services.LogInfo(module, action,
			"[Audit] "+GetEmail(c)+" "+method+" "+c.Request.URL.Path+" "+outcome,
			uid, c.ClientIP(), c.Request.UserAgent(),
			map[string]interface{}{
				"method": method,
				"path":   c.Request.URL.Path,
				"status": status,
				"body":   body,
				"audit":  true,
			})
	}
}

// routeAction derives a module and action from the route pattern, e.g.
// PUT /api/admin/projects/:id/awards gives ("Projects", "Update").
func routeAction(fullPath, method string) (module, action string) {
	path := strings.TrimPrefix(fullPath, "/api/")
	path = strings.TrimPrefix(path, "admin/")
	module = strings.SplitN(path, "/", 2)[0]
	if module == "" {
		module = "unknown"
	} else {
		words := strings.Split(module, "-")
		for i, w := range words {
			if w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
		module = strings.Join(words, "-")
	}

	switch method {
	case http.MethodPost:
		action = "Create"
	case http.MethodPut:
		action = "Update"
	case http.MethodDelete:
		action = "Delete"
	default:
		action = method
	}
	return module, action
}

// maskBody blanks sensitive top-level JSON fields and truncates the result.
// Bodies that are not JSON objects are kept as text.
func maskBody(raw []byte) string {
	var fields map[string]interface{}
	out := string(raw)
	if err := json.Unmarshal(raw, &fields); err == nil {
		for k := range fields {
			if sensitiveKeys[strings.ToLower(k)] {
				fields[k] = "***"
			}
		}
		if b, err := json.Marshal(fields); err == nil {
			out = string(b)
		}
	}
	if len(out) > maxAuditBody {
		out = out[:maxAuditBody] + "...[truncated]"
	}
	return out
}
