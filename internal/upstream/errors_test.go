package upstream

import (
	"net/http"
	"testing"
)

func TestDecodeErrorPrefersExplicitCode(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"duplicate code wins over status", http.StatusInternalServerError,
			`{"code":"duplicate_key","message":"bicycle number already exists"}`, KindConflict},
		{"validation code", http.StatusBadRequest, `{"code":"validation","error":"experienceLevel out of range"}`, KindValidation},
		{"conflict status without code", http.StatusConflict, `{"error":"already exists"}`, KindConflict},
		{"unauthorized status", http.StatusUnauthorized, ``, KindUnauthorized},
		{"forbidden status", http.StatusForbidden, `{}`, KindForbidden},
		{"not found status", http.StatusNotFound, ``, KindNotFound},
		{"bare 500 is internal, not guessed as duplicate", http.StatusInternalServerError,
			`{"error":"something broke"}`, KindInternal},
		{"unknown code falls back to status", http.StatusBadRequest, `{"code":"wat"}`, KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := decodeError(tt.status, []byte(tt.body))
			if err.Kind != tt.want {
				t.Fatalf("kind = %s, want %s", err.Kind, tt.want)
			}
			if err.Status != tt.status {
				t.Fatalf("status = %d, want %d", err.Status, tt.status)
			}
		})
	}
}

func TestDecodeErrorCarriesMessage(t *testing.T) {
	err := decodeError(http.StatusConflict, []byte(`{"message":"bicycle number already exists"}`))
	if err.Message != "bicycle number already exists" {
		t.Fatalf("message = %q", err.Message)
	}

	err = decodeError(http.StatusBadGateway, nil)
	if err.Message != http.StatusText(http.StatusBadGateway) {
		t.Fatalf("empty body should fall back to status text, got %q", err.Message)
	}
}

func TestKindOfNonUpstreamError(t *testing.T) {
	if got := KindOf(http.ErrServerClosed); got != KindInternal {
		t.Fatalf("KindOf(non-upstream) = %s", got)
	}
	if !IsKind(decodeError(http.StatusConflict, nil), KindConflict) {
		t.Fatal("IsKind failed to match")
	}
}
