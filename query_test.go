package bqpipe

import (
	"context"
	"errors"
	"testing"
)

func TestBuildSelect(t *testing.T) {
	cases := []struct {
		name string
		req  FetchRequest
		want string
	}{
		{
			"defaults",
			FetchRequest{Dataset: "analytics", Table: "events"},
			"SELECT * FROM analytics.events",
		},
		{
			"fields",
			FetchRequest{Dataset: "analytics", Table: "events", Fields: []string{"id", "name"}},
			"SELECT id, name FROM analytics.events",
		},
		{
			"where without keyword",
			FetchRequest{Dataset: "analytics", Table: "events", Where: "id > 10"},
			"SELECT * FROM analytics.events WHERE id > 10",
		},
		{
			"where with keyword",
			FetchRequest{Dataset: "analytics", Table: "events", Where: "WHERE id > 10"},
			"SELECT * FROM analytics.events WHERE id > 10",
		},
		{
			"where with lowercase keyword",
			FetchRequest{Dataset: "analytics", Table: "events", Where: "where id > 10"},
			"SELECT * FROM analytics.events where id > 10",
		},
		{
			"where keyword inside a condition",
			FetchRequest{Dataset: "analytics", Table: "events", Where: "wherever = 'x'"},
			"SELECT * FROM analytics.events WHERE wherever = 'x'",
		},
		{
			"limit",
			FetchRequest{Dataset: "analytics", Table: "events", Limit: 100},
			"SELECT * FROM analytics.events LIMIT 100",
		},
		{
			"negative limit",
			FetchRequest{Dataset: "analytics", Table: "events", Limit: -5},
			"SELECT * FROM analytics.events",
		},
		{
			"everything",
			FetchRequest{
				Dataset: " analytics ",
				Table:   "events",
				Fields:  []string{"id"},
				Where:   "id > 10",
				Limit:   3,
			},
			"SELECT id FROM analytics.events WHERE id > 10 LIMIT 3",
		},
	}

	for _, c := range cases {
		got, err := BuildSelect(c.req)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.name, err)
		}

		if got != c.want {
			t.Errorf("%s:\n  expected: %s\n  actual:   %s", c.name, c.want, got)
		}
	}
}

func TestBuildSelect_error(t *testing.T) {
	cases := []FetchRequest{
		{Table: "events"},
		{Dataset: "analytics"},
		{Dataset: " ", Table: "events"},
	}

	for _, req := range cases {
		_, err := BuildSelect(req)

		var invalid *InvalidRequestError
		if !errors.As(err, &invalid) {
			t.Errorf("%+v: expected InvalidRequestError, but got %v", req, err)
		}
	}
}

func TestFetchTable(t *testing.T) {
	w := newTestWarehouse(true)
	w.queryResult = NewFrame("id")

	f, err := FetchTable(context.Background(), w, FetchRequest{
		Dataset: "analytics",
		Table:   "events",
		Limit:   10,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if w.queryCalls != 1 {
		t.Fatalf("query should run once, but ran %d times", w.queryCalls)
	}

	if w.lastQuery != "SELECT * FROM analytics.events LIMIT 10" {
		t.Errorf("unexpected query: %s", w.lastQuery)
	}

	if f != w.queryResult {
		t.Error("FetchTable should return the warehouse result")
	}
}

func TestFetchTable_error(t *testing.T) {
	w := newTestWarehouse(true)

	if _, err := FetchTable(context.Background(), w, FetchRequest{Table: "events"}); err == nil {
		t.Error("expected error but no error occurred")
	}

	if w.queryCalls != 0 {
		t.Errorf("no query should run, but ran %d times", w.queryCalls)
	}
}
