// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danielhkuo/household-pick/auth"
	"github.com/danielhkuo/household-pick/cliparse"
	"github.com/danielhkuo/household-pick/db"
	"github.com/danielhkuo/household-pick/models"
	"github.com/danielhkuo/household-pick/store"
)

// SetupTestDB creates a fresh SQLite database with the full schema in a
// temp dir. The pool holds a single connection so concurrent tests
// serialize on it the way they would on a row lock.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	conn, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:          3318,
		DatabaseType:  cliparse.DatabaseSQLite,
		AdminKeySalt:  "test-admin-salt",
		ShareSlugSalt: "test-slug-salt",
		BaseURL:       "http://localhost:3318",
	}
}

// Comparison describes a comparison created by CreateTestComparison
type Comparison struct {
	ID          string
	AdminKey    string
	ShareSlug   string
	ItemIDs     []string
	CriterionID map[string]string // by criterion name
}

// Item is shorthand for a candidate in CreateTestComparison
type Item struct {
	Title string
	Price float64
}

// CreateTestComparison creates a comparison with the given items and
// criteria, then moves it to status ("draft", "active" or "confirmed").
// A confirmed comparison is confirmed on its first item.
func CreateTestComparison(t *testing.T, conn *sql.DB, cfg cliparse.Config, status, comparisonType string, items []Item, criteria []models.PresetCriterion) Comparison {
	t.Helper()
	ctx := context.Background()
	st := store.New(conn)

	comp, err := st.CreateComparison(ctx, "Test Comparison", "TestOwner", comparisonType, criteria)
	if err != nil {
		t.Fatalf("Failed to create test comparison: %v", err)
	}

	out := Comparison{
		ID:          comp.ID,
		AdminKey:    auth.GenerateAdminKey(comp.ID, cfg.AdminKeySalt),
		CriterionID: make(map[string]string),
	}

	for _, it := range items {
		item, err := st.AddCandidate(ctx, comp.ID, models.AddCandidateRequest{Title: it.Title, Price: it.Price})
		if err != nil {
			t.Fatalf("Failed to add test item: %v", err)
		}
		out.ItemIDs = append(out.ItemIDs, item.ID)
	}

	if status == models.StatusActive || status == models.StatusConfirmed {
		out.ShareSlug = auth.GenerateShareSlug(comp.ID, cfg.ShareSlugSalt)
		if _, err := st.Activate(ctx, comp.ID, out.ShareSlug); err != nil {
			t.Fatalf("Failed to activate test comparison: %v", err)
		}
	}

	list, err := st.ListCriteria(ctx, comp.ID)
	if err != nil {
		t.Fatalf("Failed to list test criteria: %v", err)
	}
	for _, c := range list {
		out.CriterionID[c.Name] = c.ID
	}

	if status == models.StatusConfirmed {
		_, err := conn.Exec(`
			UPDATE comparison SET status = $1, chosen_item_id = $2, matched_computed_winner = $3, confirmed_at = $4
			WHERE id = $5
		`, models.StatusConfirmed, out.ItemIDs[0], true, time.Now().UTC(), comp.ID)
		if err != nil {
			t.Fatalf("Failed to confirm test comparison: %v", err)
		}
	}

	return out
}

// AddTestRater joins a rater to an active comparison
func AddTestRater(t *testing.T, conn *sql.DB, comparisonID, displayName string) models.Rater {
	t.Helper()

	r, err := store.New(conn).JoinRater(context.Background(), comparisonID, displayName)
	if err != nil {
		t.Fatalf("Failed to create test rater: %v", err)
	}
	return r
}

// AddTestRating stores one rating directly through the store
func AddTestRating(t *testing.T, conn *sql.DB, comparisonID, itemID, criterionID, raterID string, value int) {
	t.Helper()

	_, err := store.New(conn).UpsertRating(context.Background(), comparisonID, models.Rating{
		ItemID:      itemID,
		CriterionID: criterionID,
		RaterID:     raterID,
		Value:       value,
	})
	if err != nil {
		t.Fatalf("Failed to create test rating: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
