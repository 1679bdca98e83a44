package ledgerd

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// Request validation happens before any storage access, so these run
// without a database.

func TestWriteRejectsUnknownAction(t *testing.T) {
	s := NewService(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/ledger",
		strings.NewReader(`{"action":"somethingElse","couponCode":"X"}`))
	res := httptest.NewRecorder()
	s.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d", res.Code)
	}
}

func TestWriteRejectsMissingCouponCode(t *testing.T) {
	s := NewService(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/ledger",
		strings.NewReader(`{"action":"registerGAE","firstName":"A"}`))
	res := httptest.NewRecorder()
	s.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without couponCode, got %d", res.Code)
	}
}

func TestReadRejectsMissingParams(t *testing.T) {
	s := NewService(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/ledger?action=gaeStats", nil)
	res := httptest.NewRecorder()
	s.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without couponCode, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ledger?couponCode=X", nil)
	res = httptest.NewRecorder()
	s.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without action, got %d", res.Code)
	}
}

func TestRejectsOtherMethods(t *testing.T) {
	s := NewService(nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodDelete, "/ledger", nil)
	res := httptest.NewRecorder()
	s.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}
