package relation

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ArifBabayev05/backlify-client/internal/api"
	"github.com/ArifBabayev05/backlify-client/internal/session"
)

func newTestResolver(t *testing.T, handler http.Handler) (*Resolver, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := api.New(api.Options{
		BaseURL: srv.URL,
		Session: session.New(nil),
		Logger:  zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return NewResolver(client, zerolog.Nop(), 0), &hits
}

// ---------------------------------------------------------------------------
// Target inference
// ---------------------------------------------------------------------------

func TestTarget_Precedence(t *testing.T) {
	r := NewResolver(nil, zerolog.Nop(), 0)
	r.SetDeclarations([]Declaration{
		{Table: "orders", SourceColumn: "buyer_id", TargetTable: "accounts"},
		{Table: "invoices", SourceColumn: "order_ref", TargetTable: "orders"},
	})
	r.SetKnownTables([]string{"customers", "categories", "orders", "accounts"})

	tests := []struct {
		table, field string
		wantTarget   string
		wantOK       bool
	}{
		{"orders", "buyer_id", "accounts", true},      // own declaration
		{"orders", "order_ref", "invoices", true},     // reverse declaration
		{"orders", "customer_id", "customers", true},  // stem plus s
		{"orders", "category_id", "categories", true}, // -y to -ies
		{"orders", "author_id", "users", true},        // static dictionary
		{"orders", "vendor_id", "vendors", true},      // bare plural guess
		{"orders", "id", "", false},                   // own primary key
		{"orders", "total", "", false},                // not a foreign key
	}

	for _, tt := range tests {
		t.Run(tt.table+"."+tt.field, func(t *testing.T) {
			target, ok := r.Target(tt.table, tt.field)
			if ok != tt.wantOK || target != tt.wantTarget {
				t.Errorf("Target(%q, %q) = (%q, %v), want (%q, %v)",
					tt.table, tt.field, target, ok, tt.wantTarget, tt.wantOK)
			}
		})
	}
}

func TestTarget_MetadataDeclarationFromColumnType(t *testing.T) {
	// Scenario: orders.customer_id declared as uuid not-null with no
	// explicit relationship must still resolve to customers.
	r := NewResolver(nil, zerolog.Nop(), 0)
	r.SetKnownTables([]string{"orders", "customers"})

	target, ok := r.Target("orders", "customer_id")
	if !ok || target != "customers" {
		t.Errorf("Target = (%q, %v), want (customers, true)", target, ok)
	}
}

// ---------------------------------------------------------------------------
// Related-record loading
// ---------------------------------------------------------------------------

func TestLoadRelated_CachesPerTable(t *testing.T) {
	r, hits := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"id":"c1","name":"Acme"},{"id":"c2","name":"Globex"}]`))
	}))

	first := r.LoadRelated(context.Background(), "customers")
	if len(first) != 2 {
		t.Fatalf("rows = %d, want 2", len(first))
	}
	second := r.LoadRelated(context.Background(), "customers")
	if len(second) != 2 {
		t.Fatalf("cached rows = %d, want 2", len(second))
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hit %d times, want 1", n)
	}
}

func TestLoadRelated_TriesAlternateSpelling(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path == "/customers" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if req.URL.Path == "/customer" {
			w.Write([]byte(`[{"id":"c1","name":"Acme"}]`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))

	rows := r.LoadRelated(context.Background(), "customers")
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1 via singular fallback", len(rows))
	}
}

func TestLoadRelated_TotalFailureYieldsEmpty(t *testing.T) {
	r, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	rows := r.LoadRelated(context.Background(), "customers")
	if rows == nil {
		t.Fatal("rows is nil, want empty slice")
	}
	if len(rows) != 0 {
		t.Errorf("rows = %d, want 0", len(rows))
	}
}

func TestLoadRelated_EvictForcesReload(t *testing.T) {
	r, hits := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte(`[{"id":"c1"}]`))
	}))

	r.LoadRelated(context.Background(), "customers")
	r.Evict("customers")
	r.LoadRelated(context.Background(), "customers")
	if n := hits.Load(); n != 2 {
		t.Errorf("server hit %d times, want 2 after evict", n)
	}
}

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

func TestLabelFor(t *testing.T) {
	tests := []struct {
		name  string
		row   map[string]any
		table string
		want  string
	}{
		{"users prefer name", map[string]any{"name": "Arif", "username": "arif1", "email": "a@x.io"}, "users", "Arif"},
		{"users fall to username", map[string]any{"username": "arif1", "email": "a@x.io"}, "users", "arif1"},
		{"loans synthesized", map[string]any{"id": "abcdef123456", "created_at": "2026-08-30T10:00:00Z"}, "loans", "Loan abcdef12 (2026-08-30)"},
		{"generic name", map[string]any{"name": "Acme", "id": "c1"}, "customers", "Acme"},
		{"generic title", map[string]any{"title": "Q3 Report", "id": "r1"}, "reports", "Q3 Report"},
		{"first and last combined", map[string]any{"first_name": "Ada", "last_name": "Lovelace"}, "authors", "Ada Lovelace"},
		{"description after names", map[string]any{"description": "widget"}, "products", "widget"},
		{"fuzzy name match", map[string]any{"product_name": "Widget"}, "products", "Widget"},
		{"fallback to id", map[string]any{"id": "abcdef123456"}, "categories", "Category abcdef12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LabelFor(tt.row, tt.table); got != tt.want {
				t.Errorf("LabelFor = %q, want %q", got, tt.want)
			}
		})
	}
}
