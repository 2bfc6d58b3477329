package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Revision(7).
		JSON(map[string]string{"id": "abc"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get(HeaderRevision); got != "7" {
		t.Errorf("%s = %q, want 7", HeaderRevision, got)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.String() != `{"id":"abc"}` {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_Attachment(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Body("text/csv; charset=utf-8", []byte("a,b\n")).
		Attachment("MyExpense_2024-01-01.csv").
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="MyExpense_2024-01-01.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "a,b\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().JSON(make(chan int)).Write(w)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want 500", w.Code)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name       string
		builder    *JSONResponseBuilder
		wantStatus int
		wantBody   ErrorBody
	}{
		{"bad request", BadRequestError("Invalid input"), http.StatusBadRequest, ErrorBody{Error: "Invalid input"}},
		{"field error", FieldError("amount", "invalid amount"), http.StatusUnprocessableEntity, ErrorBody{Error: "invalid amount", Field: "amount"}},
		{"not found", NotFoundError("missing"), http.StatusNotFound, ErrorBody{Error: "missing"}},
		{"internal", InternalServerError("boom"), http.StatusInternalServerError, ErrorBody{Error: "boom"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.wantStatus {
				t.Errorf("Status code = %d, want %d", w.Code, tt.wantStatus)
			}
			var got ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got != tt.wantBody {
				t.Errorf("Body = %+v, want %+v", got, tt.wantBody)
			}
		})
	}
}

func TestNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	NoContent().Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("NoContent() wrote %d %q", w.Code, w.Body.String())
	}
}
