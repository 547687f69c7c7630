package api

import (
	"testing"
)

func TestParseList_Shapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantRows  int
		wantTotal int
	}{
		{"bare array", `[{"id":1},{"id":2}]`, 2, 0},
		{"data with pagination", `{"data":[{"id":1}],"pagination":{"page":1,"limit":10,"total":35}}`, 1, 35},
		{"records wrapper", `{"records":[{"id":1},{"id":2},{"id":3}]}`, 3, 0},
		{"single object", `{"id":7,"name":"solo"}`, 1, 0},
		{"empty array", `[]`, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseList([]byte(tt.body))
			if err != nil {
				t.Fatalf("ParseList: %v", err)
			}
			if len(env.Rows) != tt.wantRows {
				t.Errorf("rows = %d, want %d", len(env.Rows), tt.wantRows)
			}
			total := 0
			if env.Pagination != nil {
				total = env.Pagination.Total
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}

func TestParseList_RejectsUnknownShape(t *testing.T) {
	for _, body := range []string{`"just a string"`, `42`, `{}`} {
		if _, err := ParseList([]byte(body)); err == nil {
			t.Errorf("ParseList(%s) accepted an unknown shape", body)
		}
	}
}

func TestParseRecord(t *testing.T) {
	row, err := ParseRecord([]byte(`{"data":{"id":1,"name":"x"}}`))
	if err != nil {
		t.Fatalf("ParseRecord: %v", err)
	}
	if row["name"] != "x" {
		t.Errorf("row = %v", row)
	}

	row, err = ParseRecord([]byte(`{"id":2}`))
	if err != nil {
		t.Fatalf("ParseRecord bare: %v", err)
	}
	if row["id"].(float64) != 2 {
		t.Errorf("row = %v", row)
	}
}
