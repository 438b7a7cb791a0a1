package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestInitWithWriter_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("warn", &buf)
	defer Init("info")

	Infof("hidden %d", 1)
	Warnf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, "shown 2") {
		t.Errorf("warn message missing from output: %s", out)
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	defer Init("info")

	l := Component("Vote")
	l.Info().Msg("cast")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if line["component"] != "Vote" {
		t.Errorf("component = %v, expected Vote", line["component"])
	}
}

func TestGinLogger_StatusLevels(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	defer Init("info")

	r := gin.New()
	r.Use(GinLogger())
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/missing", nil)
	r.ServeHTTP(w, req)

	if !strings.Contains(buf.String(), `"level":"warn"`) {
		t.Errorf("404 should be logged at warn level: %s", buf.String())
	}
}

func TestGinRecovery(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("info", &buf)
	defer Init("info")

	r := gin.New()
	r.Use(GinRecovery())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic should be logged")
	}
}
