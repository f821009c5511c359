package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeStateConflict, http.StatusUnprocessableEntity},
		{CodeDependency, http.StatusServiceUnavailable},
		{Code("something_else"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s) status = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row not updated")
	err := Wrap(CodeConflict, cause, "box not sellable")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be found via errors.Is")
	}
	if got := err.Error(); got != "CONFLICT: box not sellable" {
		t.Fatalf("unexpected error string %q", got)
	}
}

func TestAsThroughChain(t *testing.T) {
	inner := New(CodeNotFound, "unknown barcode")
	outer := fmt.Errorf("submit scan: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error through chain")
	}
	if typed.Code() != CodeNotFound {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !HasCode(outer, CodeNotFound) {
		t.Fatal("HasCode should match through chain")
	}
	if HasCode(outer, CodeConflict) {
		t.Fatal("HasCode matched wrong code")
	}
}

func TestAsNil(t *testing.T) {
	if As(nil) != nil {
		t.Fatal("As(nil) should be nil")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("plain errors should not convert")
	}
}
