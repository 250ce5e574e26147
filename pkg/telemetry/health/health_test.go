package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	if c := New(0); c.checkTimeout != 5*time.Second {
		t.Errorf("Expected default timeout 5s, got %v", c.checkTimeout)
	}
	if c := New(time.Second); c.checkTimeout != time.Second {
		t.Errorf("Expected timeout 1s, got %v", c.checkTimeout)
	}
}

func TestRegisterAndUnregisterCheck(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("b", func(context.Context) error { return nil })
	c.RegisterCheck("a", func(context.Context) error { return nil })

	names := c.ListChecks()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Expected sorted [a b], got %v", names)
	}

	c.UnregisterCheck("a")
	if len(c.ListChecks()) != 1 {
		t.Errorf("Expected 1 check after unregister, got %v", c.ListChecks())
	}
}

func TestCheckLiveness(t *testing.T) {
	status := New(time.Second).CheckLiveness(context.Background())
	if status.Status != StatusOK {
		t.Errorf("Expected ok, got %s", status.Status)
	}
}

func TestCheckReadiness_NoChecks(t *testing.T) {
	status := New(time.Second).CheckReadiness(context.Background())
	if status.Status != StatusReady || !status.Ready() {
		t.Errorf("Expected ready with no checks, got %s", status.Status)
	}
}

func TestCheckReadiness_SomeUnhealthy(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("config", func(context.Context) error { return nil })
	c.RegisterCheck("usage_store", func(context.Context) error { return errors.New("connection refused") })

	status := c.CheckReadiness(context.Background())
	if status.Status != StatusDegraded || status.Ready() {
		t.Errorf("Expected degraded, got %s", status.Status)
	}
	if status.Checks["config"].Status != StatusOK {
		t.Errorf("Expected config ok, got %+v", status.Checks["config"])
	}
	if got := status.Checks["usage_store"]; got.Status != StatusUnhealthy || got.Message != "connection refused" {
		t.Errorf("Unexpected usage_store result %+v", got)
	}
}

func TestCheckReadiness_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		select {
		case <-time.After(time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	start := time.Now()
	status := c.CheckReadiness(context.Background())
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Expected readiness to return after the check timeout")
	}
	if status.Checks["slow"].Status != StatusUnhealthy {
		t.Errorf("Expected slow check to be unhealthy, got %+v", status.Checks["slow"])
	}
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	New(time.Second).LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if body.Status != StatusOK {
		t.Errorf("Expected ok, got %s", body.Status)
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("usage_store", func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}

	c.RegisterCheck("usage_store", func(context.Context) error { return nil })
	rec = httptest.NewRecorder()
	c.ReadinessHandler()(rec, httptest.NewRequest(http.MethodHead, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Error("Expected no body for HEAD")
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler("1.2.3", "abc123", "2025-04-02")(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" || info.GoVersion == "" {
		t.Errorf("Unexpected version info %+v", info)
	}
}
