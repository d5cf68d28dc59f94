package logger

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger(t *testing.T) {
	t.Helper()
	restore := Replace(nil)
	t.Cleanup(restore)
}

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"json info", "info", "json", zapcore.InfoLevel, false},
		{"console debug", "debug", "console", zapcore.DebugLevel, false},
		{"empty format defaults to json", "warn", "", zapcore.WarnLevel, false},
		{"json error", "error", "json", zapcore.ErrorLevel, false},
		{"invalid level", "invalid", "json", 0, true},
		{"invalid format", "info", "xml", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetLogger(t)
			err := Init(tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("Init(%q, %q) error = %v, wantErr %v", tt.level, tt.format, err, tt.wantErr)
				return
			}
			if !tt.wantErr && GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	resetLogger(t)
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		name      string
		level     string
		wantLevel zapcore.Level
		wantErr   bool
	}{
		{"to debug", "debug", zapcore.DebugLevel, false},
		{"to error", "error", zapcore.ErrorLevel, false},
		{"back to info", "info", zapcore.InfoLevel, false},
		{"invalid", "bogus", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SetLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("SetLevel(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
				return
			}
			if !tt.wantErr && GetLevel() != tt.wantLevel {
				t.Errorf("GetLevel() = %v, want %v", GetLevel(), tt.wantLevel)
			}
		})
	}
}

func TestL_NopBeforeInit(t *testing.T) {
	resetLogger(t)

	if L() == nil {
		t.Fatal("L() returned nil before Init")
	}
	// must not panic
	Info("dropped")
	if err := Sync(); err != nil {
		t.Errorf("Sync() before Init error = %v", err)
	}
}

func TestTransition(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	Transition("invoice_id", "inv-1", "Draft", "Sent", "admin-1", zap.String("recipient", "a@b.c"))

	entries := logs.FilterMessage("state transition").All()
	if len(entries) != 1 {
		t.Fatalf("got %d transition entries, want 1", len(entries))
	}
	ctx := entries[0].ContextMap()
	want := map[string]interface{}{
		"invoice_id": "inv-1",
		"from":       "Draft",
		"to":         "Sent",
		"actor":      "admin-1",
		"recipient":  "a@b.c",
	}
	for k, v := range want {
		if ctx[k] != v {
			t.Errorf("field %s = %v, want %v", k, ctx[k], v)
		}
	}
}

func TestWithAndS(t *testing.T) {
	resetLogger(t)
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if With(zap.String("k", "v")) == nil {
		t.Error("With() returned nil")
	}
	if S() == nil {
		t.Error("S() returned nil")
	}
}

func TestLevelHandler(t *testing.T) {
	resetLogger(t)
	if err := Init("info", "json"); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	h := LevelHandler()
	req := httptest.NewRequest(http.MethodPut, "/log/level", strings.NewReader(`{"level":"debug"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if GetLevel() != zapcore.DebugLevel {
		t.Errorf("GetLevel() = %v, want debug", GetLevel())
	}
	_ = SetLevel("info")
}
