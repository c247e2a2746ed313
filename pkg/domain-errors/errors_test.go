package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHasCode(t *testing.T) {
	base := New(CodeBadPayment, "payment does not match fee")

	if !HasCode(base, CodeBadPayment) {
		t.Fatal("expected HasCode to match the error's own code")
	}
	if HasCode(base, CodeDuplicateEntrant) {
		t.Fatal("expected HasCode to reject a different code")
	}
	if HasCode(errors.New("plain"), CodeBadPayment) {
		t.Fatal("expected HasCode to reject uncoded errors")
	}
}

func TestHasCode_WrappedChain(t *testing.T) {
	cause := errors.New("connection reset")
	coded := Wrap(cause, CodeTransferFailed, "payout rejected")
	outer := fmt.Errorf("settle epoch 3: %w", coded)

	if !HasCode(outer, CodeTransferFailed) {
		t.Fatal("expected HasCode to find code through wrapping")
	}
	if !errors.Is(outer, cause) {
		t.Fatal("expected cause to stay reachable through Unwrap")
	}
}

func TestErrorsIs_MatchesOnCode(t *testing.T) {
	err := Wrap(errors.New("boom"), CodeNotOccupant, "slot 4 held by another account")

	if !errors.Is(err, New(CodeNotOccupant, "different message")) {
		t.Fatal("expected errors.Is to match on code regardless of message")
	}
	if errors.Is(err, New(CodeAlreadyVacant, "slot 4 held by another account")) {
		t.Fatal("expected errors.Is to reject a different code despite equal message")
	}
}

func TestCodeOf_DefaultsToInternal(t *testing.T) {
	if got := CodeOf(errors.New("raw")); got != CodeInternal {
		t.Fatalf("expected CodeInternal for uncoded error, got %q", got)
	}
	if got := CodeOf(New(CodeNotReady, "too early")); got != CodeNotReady {
		t.Fatalf("expected CodeNotReady, got %q", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeBadPayment, http.StatusBadRequest},
		{CodeDuplicateEntrant, http.StatusConflict},
		{CodeNotOccupant, http.StatusForbidden},
		{CodeAlreadyVacant, http.StatusConflict},
		{CodeNotReady, http.StatusConflict},
		{CodeNoEntrants, http.StatusConflict},
		{CodeRandomnessUnavailable, http.StatusServiceUnavailable},
		{CodeTransferFailed, http.StatusBadGateway},
		{CodeMintFailed, http.StatusBadGateway},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{Code("never_registered"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := ToHTTPStatus(tt.code); got != tt.want {
			t.Errorf("ToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
		}
	}
}
