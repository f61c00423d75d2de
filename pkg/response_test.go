package pkg

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("%w: wrong password", ErrInvalidCredentials), http.StatusUnauthorized},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: email already in use", ErrAlreadyExists), http.StatusConflict},
		{ErrAccountLocked, http.StatusLocked},
		{ErrRateLimited, http.StatusTooManyRequests},
		{ErrBadRequest, http.StatusBadRequest},
		{ErrNetworkUnavailable, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, fmt.Errorf("%w: account locked for 15m", ErrAccountLocked))

	if rec.Code != http.StatusLocked {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusLocked)
	}

	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Success {
		t.Error("Success = true, want false")
	}
	if resp.Error != "account temporarily locked: account locked for 15m" {
		t.Errorf("Error = %q", resp.Error)
	}
}
