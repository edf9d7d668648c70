package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewCarriesCodeAndMessage(t *testing.T) {
	err := New(CodeNotFound, "order not found")
	if err.Code() != CodeNotFound {
		t.Fatalf("expected %s, got %s", CodeNotFound, err.Code())
	}
	if err.Message() != "order not found" {
		t.Fatalf("unexpected message %q", err.Message())
	}
	if err.Error() != "NOT_FOUND: order not found" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "load order")

	if !stdErrors.Is(err, cause) {
		t.Fatal("expected the cause to survive wrapping")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("expected %s, got %s", CodeDependency, err.Code())
	}
}

func TestWrapNilCauseBehavesLikeNew(t *testing.T) {
	err := Wrap(CodeValidation, nil, "bad input")
	if err.Unwrap() != nil {
		t.Fatal("expected no cause")
	}
	if err.Code() != CodeValidation {
		t.Fatalf("expected %s, got %s", CodeValidation, err.Code())
	}
}

func TestIsCodeWalksTheChain(t *testing.T) {
	inner := New(CodeConflict, "totals changed underneath us")
	outer := fmt.Errorf("mutate order: %w", inner)

	if !IsCode(outer, CodeConflict) {
		t.Fatal("expected the conflict code through the chain")
	}
	if IsCode(outer, CodeNotFound) {
		t.Fatal("did not expect a not-found code")
	}
	if IsCode(fmt.Errorf("plain"), CodeInternal) {
		t.Fatal("plain errors carry no code")
	}
	if IsCode(nil, CodeInternal) {
		t.Fatal("nil carries no code")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeValidation, "bad input").WithDetails(map[string]string{"name": "required"})
	wrapped := fmt.Errorf("create product: %w", err)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected a typed error")
	}
	if typed.Details() == nil {
		t.Fatal("expected details to survive")
	}
	if As(fmt.Errorf("plain")) != nil {
		t.Fatal("plain errors are not typed")
	}
	if As(nil) != nil {
		t.Fatal("nil is not typed")
	}
}

func TestMetadataForMapsStatuses(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeConflict, http.StatusConflict},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}

	// Unknown codes fall back to the internal error metadata.
	if got := MetadataFor(Code("SOMETHING_ELSE")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("expected fallback to 500, got %d", got)
	}
}
