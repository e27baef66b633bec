package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Internal("x"), http.StatusInternalServerError},
		{New(KindUnknown, "x"), http.StatusBadRequest},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("HTTPStatus(kind %d) = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestIs(t *testing.T) {
	if !Is(NotFound("missing"), KindNotFound) {
		t.Error("Is must match the kind")
	}
	if Is(NotFound("missing"), KindConflict) {
		t.Error("Is must not match a different kind")
	}
	if Is(errors.New("plain"), KindNotFound) {
		t.Error("foreign errors carry no kind")
	}
	if Is(nil, KindNotFound) {
		t.Error("nil is not an error of any kind")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(KindInternal, "query failed", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must survive errors.Is")
	}
	if GetKind(err) != KindInternal {
		t.Errorf("GetKind = %d, want KindInternal", GetKind(err))
	}
}

func TestErrorStringIncludesOp(t *testing.T) {
	err := Conflict("deadline already completed").WithOp("deadline.Complete")
	if err.Error() != "deadline.Complete: deadline already completed" {
		t.Errorf("unexpected error string %q", err.Error())
	}
}

func TestWithDetails(t *testing.T) {
	err := Validation("required data missing").WithDetails(map[string]any{"missing": []string{"file"}})
	if err.Details == nil {
		t.Fatal("details must be attached")
	}
}
