package handler

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

func TestTableResponseShape(t *testing.T) {
	now := time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC)
	resp := toTableResp(model.Table{
		ID:        7,
		Number:    12,
		Seats:     4,
		Joinable:  true,
		Available: true,
		Location:  "terrace",
		CreatedAt: now,
		UpdatedAt: now,
	})

	raw, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	for _, key := range []string{`"id":7`, `"number":12`, `"seats":4`, `"joinable":true`, `"available":true`, `"location":"terrace"`, `"created_at"`, `"updated_at"`} {
		if !strings.Contains(body, key) {
			t.Fatalf("missing %s in %s", key, body)
		}
	}
	for _, key := range []string{`"ID"`, `"CreatedAt"`, `"UpdatedAt"`} {
		if strings.Contains(body, key) {
			t.Fatalf("exported field name leaked into JSON: %s in %s", key, body)
		}
	}
}

func TestTableResponseOmitsEmptyLocation(t *testing.T) {
	raw, err := json.Marshal(toTableResp(model.Table{ID: 1, Number: 1, Seats: 2}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "location") {
		t.Fatalf("empty location serialized: %s", raw)
	}
}
