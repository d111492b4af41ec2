package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewCollector_RegistersMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	if c == nil {
		t.Fatal("expected non-nil collector")
	}

	// 二重登録はpanicするため、同一レジストリへの再登録で検証
	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	NewCollector(reg)
}

func TestHandler_ServesRecordedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPRequest(200, 25*time.Millisecond)
	c.RecordLoginSuccess()
	c.RecordLoginFailure()
	c.RecordTokenValidationFailure("expired")
	c.RecordTokenRefresh()
	c.RecordRotationConflict()
	c.RecordSessionsCleaned(3)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	body, _ := io.ReadAll(resp.Body)
	bodyStr := string(body)

	for _, metric := range []string{
		"listigo_http_requests_total",
		"listigo_login_success_total",
		"listigo_login_fail_total",
		"listigo_token_validation_fail_total",
		"listigo_token_refresh_total",
		"listigo_rotation_conflict_total",
		"listigo_sessions_cleaned_total",
	} {
		if !strings.Contains(bodyStr, metric) {
			t.Errorf("response should contain %s", metric)
		}
	}

	if !strings.Contains(bodyStr, `kind="expired"`) {
		t.Error("token validation failure should be labeled by kind")
	}
}
