package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "without wrapped error",
			err:  New("INVOICE_NOT_FOUND", "invoice not found", http.StatusNotFound),
			want: "INVOICE_NOT_FOUND: invoice not found",
		},
		{
			name: "with wrapped error",
			err:  Wrap(fmt.Errorf("db error"), "DB_ERROR", "database failure", http.StatusInternalServerError),
			want: "DB_ERROR: database failure: db error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("inner error")
	appErr := Wrap(inner, "CODE", "msg", 500)

	if !errors.Is(appErr, inner) {
		t.Error("errors.Is should match inner error")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := NotFound("NOT_FOUND", "resource not found")
	wrapped := fmt.Errorf("wrapped: %w", appErr)

	got, ok := IsAppError(wrapped)
	if !ok {
		t.Fatal("IsAppError should return true for wrapped AppError")
	}
	if got.Code != "NOT_FOUND" {
		t.Errorf("Code = %q, want NOT_FOUND", got.Code)
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
	}{
		{"NotFound", NotFound("NF", "not found"), http.StatusNotFound},
		{"BadRequest", BadRequest("BR", "bad request"), http.StatusBadRequest},
		{"Unauthorized", Unauthorized("UA", "unauthorized"), http.StatusUnauthorized},
		{"Forbidden", Forbidden("FB", "forbidden"), http.StatusForbidden},
		{"Conflict", Conflict("CF", "conflict"), http.StatusConflict},
		{"MailDispatch", ErrMailDispatch(errors.New("421"), "inv-1"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("HTTPStatus = %d, want %d", tt.err.HTTPStatus, tt.wantStatus)
			}
		})
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("approve: %w", ErrInsufficientStock("part-1", 3, 2))

	if !HasCode(err, CodeInsufficientStock) {
		t.Fatal("HasCode should match wrapped INSUFFICIENT_STOCK")
	}
	if HasCode(err, CodeInvoiceNotDraft) {
		t.Fatal("HasCode matched an unrelated code")
	}
	if HasCode(fmt.Errorf("plain"), CodeInsufficientStock) {
		t.Fatal("HasCode matched a non-AppError")
	}
}

func TestErrInsufficientStock_Params(t *testing.T) {
	err := ErrInsufficientStock("part-1", 3, 2)
	if err.HTTPStatus != http.StatusConflict {
		t.Fatalf("HTTPStatus = %d, want 409", err.HTTPStatus)
	}
	if err.Params["requested"] != 3 || err.Params["available"] != 2 {
		t.Fatalf("Params = %#v", err.Params)
	}
}

func TestErrNotFoundf(t *testing.T) {
	err := ErrNotFoundf(CodeServiceNotFound, "service", "svc-1")
	if err.Code != CodeServiceNotFound || err.HTTPStatus != http.StatusNotFound {
		t.Fatalf("got %s/%d", err.Code, err.HTTPStatus)
	}
	if err.Message != "service not found" {
		t.Fatalf("Message = %q", err.Message)
	}
}

func TestAppError_ParamsAndFields(t *testing.T) {
	err := Conflict(CodeInvoiceNotDraft, "only draft invoices can be deleted").
		WithParam("id", "inv-1").
		WithParams(map[string]interface{}{"status": "Sent"})
	if err.Params["id"] != "inv-1" || err.Params["status"] != "Sent" {
		t.Fatalf("Params = %v, want id and status merged", err.Params)
	}

	v := ErrValidation("bad invoice").
		WithField("vehicleId", "mismatch", "must be the service's vehicle").
		WithField("userId", "mismatch", "must be the vehicle owner")
	if len(v.FieldErrors) != 2 || v.FieldErrors[1].Field != "userId" {
		t.Fatalf("FieldErrors = %+v, want vehicleId then userId", v.FieldErrors)
	}

	var nilErr *AppError
	if nilErr.WithParam("k", "v") != nil {
		t.Fatal("WithParam on nil must stay nil")
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", Forbidden(CodeForbidden, "no"), http.StatusForbidden},
		{"wrapped app error", fmt.Errorf("send: %w", ErrMailDispatch(errors.New("timeout"), "inv-1")), http.StatusBadGateway},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusOf(tt.err); got != tt.want {
				t.Errorf("StatusOf() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestErrMailDispatch_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := ErrMailDispatch(cause, "inv-9")
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is should reach the transport error")
	}
	if err.Code != CodeMailDispatchFailed || err.Params["invoice_id"] != "inv-9" {
		t.Fatalf("got %s %v", err.Code, err.Params)
	}
}
