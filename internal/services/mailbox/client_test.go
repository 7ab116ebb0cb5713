package mailbox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledgerflow/internal/services"
	"ledgerflow/internal/txn"
)

func sampleTransaction() txn.Transaction {
	item := txn.New(1, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromFloat(-43.12), "AMAZON MKTPL*2K41Z")
	return item.WithDescription("Amazon Mktpl")
}

func TestClientLookupMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages/search" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "Amazon Mktpl" {
			t.Fatalf("unexpected query %q", got)
		}
		if got := r.URL.Query().Get("amount"); got != "-43.12" {
			t.Fatalf("unexpected amount %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("unexpected authorization %q", got)
		}
		payload := map[string]any{
			"messages": []any{
				map[string]string{
					"subject": "Your Amazon order has shipped",
					"snippet": "Wireless mouse and USB hub",
				},
			},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIToken: "token"})
	found, err := client.Lookup(context.Background(), sampleTransaction())
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if found == nil {
		t.Fatal("expected a match")
	}
	if found.Subject != "Your Amazon order has shipped" {
		t.Fatalf("unexpected subject %q", found.Subject)
	}
	if found.Snippet != "Wireless mouse and USB hub" {
		t.Fatalf("unexpected snippet %q", found.Snippet)
	}
}

func TestClientLookupNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"messages": []any{}})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	found, err := client.Lookup(context.Background(), sampleTransaction())
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected no match, got %+v", found)
	}
}

func TestClientLookupNotFoundStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	found, err := client.Lookup(context.Background(), sampleTransaction())
	if err != nil {
		t.Fatalf("Lookup returned error: %v", err)
	}
	if found != nil {
		t.Fatalf("expected no match for 404, got %+v", found)
	}
}

func TestClientLookupServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.Lookup(context.Background(), sampleTransaction())
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsTransient(err) {
		t.Fatalf("expected transient classification, got %v", err)
	}
}

func TestClientHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}
