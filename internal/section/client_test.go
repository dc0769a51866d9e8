package section

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientFragmentAndStatuses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /plans/abc12345/section/expenses", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<div class="section" data-section="expenses"></div>`))
	})
	mux.HandleFunc("GET /plans/abc12345/section/bogus", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<div class="error">Unknown section</div>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())

	html, err := c.SectionFragment(context.Background(), "abc12345", "expenses")
	if err != nil {
		t.Fatalf("fragment: %v", err)
	}
	if html == "" {
		t.Fatalf("empty fragment")
	}

	// A 404 with an error-fragment body is still a transport error.
	if _, err := c.SectionFragment(context.Background(), "abc12345", "bogus"); err == nil {
		t.Fatalf("expected error for 404 fragment")
	}
}

func TestClientExpenseRoundTrip(t *testing.T) {
	var gotMethod, gotPath, gotContentType string
	var gotParticipants, gotAmounts []string

	mux := http.NewServeMux()
	record := func(w http.ResponseWriter, r *http.Request, status int) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		gotParticipants = r.PostForm["participants"]
		gotAmounts = r.PostForm["amounts"]
		w.WriteHeader(status)
	}
	mux.HandleFunc("POST /plans/abc12345/section/expenses", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, http.StatusCreated)
	})
	mux.HandleFunc("PUT /plans/abc12345/section/expenses/5", func(w http.ResponseWriter, r *http.Request) {
		record(w, r, http.StatusOK)
	})
	mux.HandleFunc("DELETE /plans/abc12345/section/expenses/5", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("DELETE /plans/abc12345/section/expenses/99", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	payload := ExpensePayload{
		Name:         "Fuel",
		Amount:       "40.00",
		Payer:        "Bob",
		Participants: []string{"Alice", "Bob"},
		Amounts:      []string{"20.00", "20.00"},
	}

	if err := c.CreateExpense(context.Background(), "abc12345", payload); err != nil {
		t.Fatalf("create: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/plans/abc12345/section/expenses" {
		t.Fatalf("create went to %s %s", gotMethod, gotPath)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Fatalf("content type=%q", gotContentType)
	}
	if len(gotParticipants) != 2 || len(gotAmounts) != 2 {
		t.Fatalf("parallel arrays: %v %v", gotParticipants, gotAmounts)
	}

	if err := c.UpdateExpense(context.Background(), "abc12345", 5, payload); err != nil {
		t.Fatalf("update: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("update method=%s", gotMethod)
	}

	if err := c.DeleteExpense(context.Background(), "abc12345", 5); err != nil {
		t.Fatalf("delete: %v", err)
	}
	// Non-OK delete is a failure even though the server wrote a body.
	if err := c.DeleteExpense(context.Background(), "abc12345", 99); err == nil {
		t.Fatalf("expected delete error for 404")
	}
}
