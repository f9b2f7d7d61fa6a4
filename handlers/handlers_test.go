// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/household-pick/cliparse"
	"github.com/danielhkuo/household-pick/decision"
	"github.com/danielhkuo/household-pick/models"
	"github.com/danielhkuo/household-pick/presets"
	"github.com/danielhkuo/household-pick/store"
	"github.com/danielhkuo/household-pick/testutil"
)

type testEnv struct {
	db          *sql.DB
	cfg         cliparse.Config
	store       *store.Store
	comparisons *ComparisonHandler
	ratings     *RatingHandler
	results     *ResultsHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	reg, err := presets.Load("")
	require.NoError(t, err)

	st := store.New(conn)
	svc := decision.NewService(st, decision.Options{})

	return &testEnv{
		db:          conn,
		cfg:         cfg,
		store:       st,
		comparisons: NewComparisonHandler(st, svc, reg, cfg),
		ratings:     NewRatingHandler(st, svc),
		results:     NewResultsHandler(st, svc, reg),
	}
}

// call runs handler with the given path values set on the request
func call(handler http.HandlerFunc, req *http.Request, pathValues map[string]string) *httptest.ResponseRecorder {
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func ownerHeaders(adminKey string) map[string]string {
	return map[string]string{"X-Admin-Key": adminKey}
}

func raterHeaders(token string) map[string]string {
	return map[string]string{"X-Rater-Token": token}
}

var sofas = []testutil.Item{
	{Title: "Sofa A", Price: 1299},
	{Title: "Sofa B", Price: 999},
}

var sofaCriteria = []models.PresetCriterion{
	{Name: "Comfort", Weight: 3},
	{Name: "Style", Weight: 2},
}

// Full owner and household workflow over the handlers
func TestComparisonWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// Create
	w := call(env.comparisons.CreateComparison, testutil.MakeRequest("POST", "/comparisons", models.CreateComparisonRequest{
		Name:      "Living room sofa",
		OwnerName: "Alice",
	}, nil), nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var created models.CreateComparisonResponse
	testutil.AssertJSON(t, w, &created)
	require.NotEmpty(t, created.ComparisonID)
	require.NotEmpty(t, created.AdminKey)

	id := map[string]string{"id": created.ComparisonID}
	admin := ownerHeaders(created.AdminKey)

	// Items
	itemIDs := map[string]string{}
	for i, s := range sofas {
		w = call(env.comparisons.AddItem, testutil.MakeRequest("POST", "/comparisons/x/items", models.AddCandidateRequest{
			Title: s.Title,
			Price: s.Price,
		}, admin), id)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var item models.AddCandidateResponse
		testutil.AssertJSON(t, w, &item)
		assert.Equal(t, i+1, item.Position)
		itemIDs[s.Title] = item.ItemID
	}

	// Criteria
	criterionIDs := map[string]string{}
	for _, c := range sofaCriteria {
		w = call(env.comparisons.AddCriterion, testutil.MakeRequest("POST", "/comparisons/x/criteria", models.AddCriterionRequest{
			Name:   c.Name,
			Weight: c.Weight,
		}, admin), id)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var crit models.AddCriterionResponse
		testutil.AssertJSON(t, w, &crit)
		criterionIDs[crit.Name] = crit.CriterionID
	}

	// Activate
	w = call(env.comparisons.Activate, testutil.MakeRequest("POST", "/comparisons/x/activate", nil, admin), id)
	testutil.AssertStatus(t, w, http.StatusOK)
	var activated models.ActivateComparisonResponse
	testutil.AssertJSON(t, w, &activated)
	require.NotEmpty(t, activated.ShareSlug)
	assert.Equal(t, "http://localhost:3318/comparisons/"+activated.ShareSlug, activated.ShareURL)

	slug := map[string]string{"slug": activated.ShareSlug}

	// Join
	tokens := map[string]string{}
	for _, name := range []string{"Alice", "Bob"} {
		w = call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join", models.JoinComparisonRequest{
			DisplayName: name,
		}, nil), slug)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var joined models.JoinComparisonResponse
		testutil.AssertJSON(t, w, &joined)
		require.NotEmpty(t, joined.RaterToken)
		tokens[name] = joined.RaterToken
	}

	// Rate
	ratings := []struct {
		rater, item, criterion string
		value                  int
	}{
		{"Alice", "Sofa A", "Comfort", 4},
		{"Bob", "Sofa A", "Comfort", 4},
		{"Alice", "Sofa A", "Style", 5},
		{"Bob", "Sofa A", "Style", 5},
		{"Alice", "Sofa B", "Comfort", 5},
		{"Bob", "Sofa B", "Comfort", 4},
		{"Alice", "Sofa B", "Style", 4},
		{"Bob", "Sofa B", "Style", 3},
	}
	for _, r := range ratings {
		w = call(env.ratings.RecordRating, testutil.MakeRequest("PUT", "/comparisons/x/ratings", models.RecordRatingRequest{
			ItemID:      itemIDs[r.item],
			CriterionID: criterionIDs[r.criterion],
			Value:       r.value,
		}, raterHeaders(tokens[r.rater])), slug)
		testutil.AssertStatus(t, w, http.StatusOK)
	}

	// My ratings
	w = call(env.ratings.GetMyRatings, testutil.MakeRequest("GET", "/comparisons/x/my-ratings", nil, raterHeaders(tokens["Bob"])), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var mine models.MyRatingsResponse
	testutil.AssertJSON(t, w, &mine)
	assert.Len(t, mine.Ratings, 4)

	// Results
	w = call(env.results.GetResults, testutil.MakeRequest("GET", "/comparisons/x/results", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var result models.DecisionResult
	testutil.AssertJSON(t, w, &result)

	require.NotNil(t, result.WinnerItemID)
	assert.Equal(t, itemIDs["Sofa A"], *result.WinnerItemID)
	require.Len(t, result.Rankings, 2)
	top := result.Rankings[0]
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, "$1,299", top.PriceDisplay)
	require.NotNil(t, top.Score)
	assert.InDelta(t, 4.4, *top.Score, 1e-9)
	require.NotNil(t, top.DisplayScore)
	assert.InDelta(t, 8.8, *top.DisplayScore, 1e-9)
	assert.InDelta(t, 4.1, *result.Rankings[1].Score, 1e-9)
	require.NotNil(t, result.Agreement)
	assert.InDelta(t, 87.5, *result.Agreement, 1e-9)
	assert.Len(t, result.RaterIDs, 2)

	// Quick stats
	assert.Equal(t, "$999 - $1,299", result.PriceRangeDisplay)
	require.NotNil(t, result.AverageScore)
	assert.InDelta(t, 4.25, *result.AverageScore, 1e-9)
	require.NotNil(t, result.AverageDisplayScore)
	assert.InDelta(t, 8.5, *result.AverageDisplayScore, 1e-9)

	// Why A won
	require.Len(t, top.Criteria, 2)
	assert.Equal(t, criterionIDs["Comfort"], top.Criteria[0].CriterionID)
	assert.Equal(t, 3.0, top.Criteria[0].Weight)
	require.NotNil(t, top.Criteria[0].Mean)
	assert.InDelta(t, 4.0, *top.Criteria[0].Mean, 1e-9)
	require.NotNil(t, top.Criteria[1].Mean)
	assert.InDelta(t, 5.0, *top.Criteria[1].Mean, 1e-9)

	// Discussion
	w = call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments", models.AddCommentRequest{
		Body: "A is comfier, B is cheaper",
	}, raterHeaders(tokens["Bob"])), slug)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var comment models.Comment
	testutil.AssertJSON(t, w, &comment)
	assert.Equal(t, "Bob", comment.DisplayName)

	w = call(env.results.ListComments, testutil.MakeRequest("GET", "/comparisons/x/comments", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var thread models.CommentsResponse
	testutil.AssertJSON(t, w, &thread)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "A is comfier, B is cheaper", thread.Comments[0].Body)

	// No decision yet
	w = call(env.results.GetDecision, testutil.MakeRequest("GET", "/comparisons/x/decision", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	// Confirm the winner
	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm", models.ConfirmDecisionRequest{
		ItemID: itemIDs["Sofa A"],
	}, admin), id)
	testutil.AssertStatus(t, w, http.StatusOK)
	var confirmed models.ConfirmDecisionResponse
	testutil.AssertJSON(t, w, &confirmed)
	assert.Equal(t, itemIDs["Sofa A"], confirmed.ChosenItemID)
	assert.True(t, confirmed.MatchedComputedWinner)
	assert.Equal(t, result.RatingVersion, confirmed.Snapshot.Result.RatingVersion)

	// Frozen
	w = call(env.ratings.RecordRating, testutil.MakeRequest("PUT", "/comparisons/x/ratings", models.RecordRatingRequest{
		ItemID:      itemIDs["Sofa B"],
		CriterionID: criterionIDs["Style"],
		Value:       5,
	}, raterHeaders(tokens["Bob"])), slug)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm", models.ConfirmDecisionRequest{
		ItemID: itemIDs["Sofa B"], Override: true,
	}, admin), id)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments", models.AddCommentRequest{
		Body: "Can we still switch?",
	}, raterHeaders(tokens["Alice"])), slug)
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Decision is readable by the household
	w = call(env.results.GetDecision, testutil.MakeRequest("GET", "/comparisons/x/decision", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var snap models.DecisionSnapshot
	testutil.AssertJSON(t, w, &snap)
	assert.Equal(t, itemIDs["Sofa A"], snap.ChosenItemID)
	require.Len(t, snap.Result.Rankings, 2)
	assert.Equal(t, "$1,299", snap.Result.Rankings[0].PriceDisplay)

	// Comparison view shows the final state
	w = call(env.results.GetComparison, testutil.MakeRequest("GET", "/comparisons/x", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var detail models.ComparisonDetail
	testutil.AssertJSON(t, w, &detail)
	assert.Equal(t, models.StatusConfirmed, detail.Comparison.Status)
	assert.Len(t, detail.Items, 2)
	assert.Len(t, detail.Raters, 2)
	assert.Len(t, detail.Comments, 1)
}

func TestCreateComparison(t *testing.T) {
	env := newTestEnv(t)

	t.Run("with preset", func(t *testing.T) {
		w := call(env.comparisons.CreateComparison, testutil.MakeRequest("POST", "/comparisons", models.CreateComparisonRequest{
			Name: "New TV", OwnerName: "Alice", Preset: "Electronics",
		}, nil), nil)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var created models.CreateComparisonResponse
		testutil.AssertJSON(t, w, &created)

		criteria, err := env.store.ListCriteria(t.Context(), created.ComparisonID)
		require.NoError(t, err)
		require.Len(t, criteria, 4)
		assert.Equal(t, "Performance", criteria[0].Name)
		assert.Equal(t, "Design", criteria[3].Name)
	})

	testCases := []struct {
		name string
		body models.CreateComparisonRequest
	}{
		{"missing name", models.CreateComparisonRequest{OwnerName: "Alice"}},
		{"missing owner", models.CreateComparisonRequest{Name: "TV"}},
		{"bad type", models.CreateComparisonRequest{Name: "TV", OwnerName: "Alice", ComparisonType: "ranked"}},
		{"unknown preset", models.CreateComparisonRequest{Name: "TV", OwnerName: "Alice", Preset: "garden"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(env.comparisons.CreateComparison, testutil.MakeRequest("POST", "/comparisons", tc.body, nil), nil)
			testutil.AssertStatus(t, w, http.StatusBadRequest)
		})
	}
}

func TestOwnerEndpoints_RequireAdminKey(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", sofas, sofaCriteria)
	id := map[string]string{"id": fx.ID}

	handlers := map[string]http.HandlerFunc{
		"admin":    env.comparisons.GetComparisonAdmin,
		"items":    env.comparisons.AddItem,
		"criteria": env.comparisons.AddCriterion,
		"activate": env.comparisons.Activate,
		"confirm":  env.comparisons.ConfirmDecision,
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			w := call(h, testutil.MakeRequest("POST", "/comparisons/x/"+name, nil, ownerHeaders("wrong")), id)
			testutil.AssertStatus(t, w, http.StatusUnauthorized)

			w = call(h, testutil.MakeRequest("POST", "/comparisons/x/"+name, nil, nil), id)
			testutil.AssertStatus(t, w, http.StatusUnauthorized)
		})
	}

	w := call(env.comparisons.GetComparisonAdmin, testutil.MakeRequest("GET", "/comparisons/x/admin", nil, ownerHeaders(fx.AdminKey)), id)
	testutil.AssertStatus(t, w, http.StatusOK)
	var detail models.ComparisonDetail
	testutil.AssertJSON(t, w, &detail)
	assert.Equal(t, models.StatusDraft, detail.Comparison.Status)
	assert.Len(t, detail.Items, 2)
}

func TestAddItem_Errors(t *testing.T) {
	env := newTestEnv(t)

	t.Run("blank title", func(t *testing.T) {
		fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", nil, nil)
		w := call(env.comparisons.AddItem, testutil.MakeRequest("POST", "/comparisons/x/items",
			models.AddCandidateRequest{Title: "   "}, ownerHeaders(fx.AdminKey)), map[string]string{"id": fx.ID})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("negative price", func(t *testing.T) {
		fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", nil, nil)
		w := call(env.comparisons.AddItem, testutil.MakeRequest("POST", "/comparisons/x/items",
			models.AddCandidateRequest{Title: "Lamp", Price: -1}, ownerHeaders(fx.AdminKey)), map[string]string{"id": fx.ID})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("too many items", func(t *testing.T) {
		items := []testutil.Item{{Title: "1"}, {Title: "2"}, {Title: "3"}, {Title: "4"}, {Title: "5"}}
		fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", items, nil)
		w := call(env.comparisons.AddItem, testutil.MakeRequest("POST", "/comparisons/x/items",
			models.AddCandidateRequest{Title: "6"}, ownerHeaders(fx.AdminKey)), map[string]string{"id": fx.ID})
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})

	t.Run("after activation", func(t *testing.T) {
		fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
		w := call(env.comparisons.AddItem, testutil.MakeRequest("POST", "/comparisons/x/items",
			models.AddCandidateRequest{Title: "Late"}, ownerHeaders(fx.AdminKey)), map[string]string{"id": fx.ID})
		testutil.AssertStatus(t, w, http.StatusConflict)
	})
}

func TestActivate_Errors(t *testing.T) {
	env := newTestEnv(t)

	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", sofas[:1], sofaCriteria)
	w := call(env.comparisons.Activate, testutil.MakeRequest("POST", "/comparisons/x/activate", nil, ownerHeaders(fx.AdminKey)),
		map[string]string{"id": fx.ID})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	fx = testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, models.TypeWeighted, sofas, nil)
	w = call(env.comparisons.Activate, testutil.MakeRequest("POST", "/comparisons/x/activate", nil, ownerHeaders(fx.AdminKey)),
		map[string]string{"id": fx.ID})
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	fx = testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	w = call(env.comparisons.Activate, testutil.MakeRequest("POST", "/comparisons/x/activate", nil, ownerHeaders(fx.AdminKey)),
		map[string]string{"id": fx.ID})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestJoin_Errors(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	slug := map[string]string{"slug": fx.ShareSlug}

	w := call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join",
		models.JoinComparisonRequest{DisplayName: "Alice"}, nil), slug)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join",
		models.JoinComparisonRequest{DisplayName: "Alice"}, nil), slug)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join",
		models.JoinComparisonRequest{DisplayName: "A"}, nil), slug)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join",
		models.JoinComparisonRequest{DisplayName: "Bob"}, nil), map[string]string{"slug": "missing"})
	testutil.AssertStatus(t, w, http.StatusNotFound)

	confirmed := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusConfirmed, "", sofas, sofaCriteria)
	w = call(env.ratings.Join, testutil.MakeRequest("POST", "/comparisons/x/join",
		models.JoinComparisonRequest{DisplayName: "Bob"}, nil), map[string]string{"slug": confirmed.ShareSlug})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestRecordRating_Errors(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	other := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	slug := map[string]string{"slug": fx.ShareSlug}

	valid := models.RecordRatingRequest{ItemID: fx.ItemIDs[0], CriterionID: fx.CriterionID["Comfort"], Value: 3}

	testCases := []struct {
		name    string
		body    models.RecordRatingRequest
		headers map[string]string
		want    int
	}{
		{"missing token", valid, nil, http.StatusUnauthorized},
		{"unknown token", valid, raterHeaders("nope"), http.StatusUnauthorized},
		{"value too high", models.RecordRatingRequest{ItemID: valid.ItemID, CriterionID: valid.CriterionID, Value: 6}, raterHeaders(alice.Token), http.StatusBadRequest},
		{"value too low", models.RecordRatingRequest{ItemID: valid.ItemID, CriterionID: valid.CriterionID, Value: 0}, raterHeaders(alice.Token), http.StatusBadRequest},
		{"foreign item", models.RecordRatingRequest{ItemID: other.ItemIDs[0], CriterionID: valid.CriterionID, Value: 3}, raterHeaders(alice.Token), http.StatusBadRequest},
		{"foreign criterion", models.RecordRatingRequest{ItemID: valid.ItemID, CriterionID: other.CriterionID["Comfort"], Value: 3}, raterHeaders(alice.Token), http.StatusBadRequest},
		{"valid", valid, raterHeaders(alice.Token), http.StatusOK},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(env.ratings.RecordRating, testutil.MakeRequest("PUT", "/comparisons/x/ratings", tc.body, tc.headers), slug)
			testutil.AssertStatus(t, w, tc.want)
		})
	}

	// A token from one comparison does not work on another
	w := call(env.ratings.RecordRating, testutil.MakeRequest("PUT", "/comparisons/x/ratings", valid, raterHeaders(alice.Token)),
		map[string]string{"slug": other.ShareSlug})
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestConfirmDecision_Override(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[0], fx.CriterionID["Comfort"], alice.ID, 5)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[1], fx.CriterionID["Comfort"], alice.ID, 2)
	id := map[string]string{"id": fx.ID}
	admin := ownerHeaders(fx.AdminKey)

	// B is not the winner
	w := call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[1]}, admin), id)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: "missing", Override: true}, admin), id)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[1], Override: true}, admin), id)
	testutil.AssertStatus(t, w, http.StatusOK)
	var confirmed models.ConfirmDecisionResponse
	testutil.AssertJSON(t, w, &confirmed)
	assert.Equal(t, fx.ItemIDs[1], confirmed.ChosenItemID)
	assert.False(t, confirmed.MatchedComputedWinner)

	comp, err := env.store.GetComparison(t.Context(), fx.ID)
	require.NoError(t, err)
	require.NotNil(t, comp.MatchedComputedWinner)
	assert.False(t, *comp.MatchedComputedWinner)
}

func TestConfirmDecision_Draft(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusDraft, "", sofas, sofaCriteria)

	w := call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[0], Override: true}, ownerHeaders(fx.AdminKey)), map[string]string{"id": fx.ID})
	testutil.AssertStatus(t, w, http.StatusConflict)
}

// The owner can confirm the winner as judged by a subset of the household
func TestConfirmDecision_RaterSubset(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	bob := testutil.AddTestRater(t, env.db, fx.ID, "Bob")

	// Alice prefers A, Bob prefers B, B wins overall on price
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[0], fx.CriterionID["Comfort"], alice.ID, 5)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[1], fx.CriterionID["Comfort"], alice.ID, 2)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[0], fx.CriterionID["Comfort"], bob.ID, 1)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[1], fx.CriterionID["Comfort"], bob.ID, 4)
	id := map[string]string{"id": fx.ID}
	admin := ownerHeaders(fx.AdminKey)

	w := call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[0], Raters: []string{""}}, admin), id)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[0]}, admin), id)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.comparisons.ConfirmDecision, testutil.MakeRequest("POST", "/comparisons/x/confirm",
		models.ConfirmDecisionRequest{ItemID: fx.ItemIDs[0], Raters: []string{alice.ID}}, admin), id)
	testutil.AssertStatus(t, w, http.StatusOK)
	var confirmed models.ConfirmDecisionResponse
	testutil.AssertJSON(t, w, &confirmed)
	assert.Equal(t, fx.ItemIDs[0], confirmed.ChosenItemID)
	assert.True(t, confirmed.MatchedComputedWinner)
	assert.Equal(t, []string{alice.ID}, confirmed.Snapshot.Result.RaterIDs)
}

func TestGetResults_RaterFilter(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	bob := testutil.AddTestRater(t, env.db, fx.ID, "Bob")

	// Alice prefers A, Bob prefers B
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[0], fx.CriterionID["Comfort"], alice.ID, 5)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[1], fx.CriterionID["Comfort"], alice.ID, 2)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[0], fx.CriterionID["Comfort"], bob.ID, 1)
	testutil.AddTestRating(t, env.db, fx.ID, fx.ItemIDs[1], fx.CriterionID["Comfort"], bob.ID, 4)

	testCases := []struct {
		query  string
		winner string
		raters int
	}{
		{"", fx.ItemIDs[1], 2}, // 3.0 vs 3.0, B is cheaper
		{"?raters=" + alice.ID, fx.ItemIDs[0], 1},
		{"?raters=" + bob.ID, fx.ItemIDs[1], 1},
		{fmt.Sprintf("?raters=%s,%s", bob.ID, alice.ID), fx.ItemIDs[1], 2},
	}
	for _, tc := range testCases {
		t.Run("raters"+tc.query, func(t *testing.T) {
			w := call(env.results.GetResults, testutil.MakeRequest("GET", "/comparisons/x/results"+tc.query, nil, nil),
				map[string]string{"slug": fx.ShareSlug})
			testutil.AssertStatus(t, w, http.StatusOK)

			var result models.DecisionResult
			testutil.AssertJSON(t, w, &result)
			require.NotNil(t, result.WinnerItemID)
			assert.Equal(t, tc.winner, *result.WinnerItemID)
			assert.Len(t, result.RaterIDs, tc.raters)
		})
	}
}

func TestGetResults_InsufficientData(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)

	w := call(env.results.GetResults, testutil.MakeRequest("GET", "/comparisons/x/results", nil, nil),
		map[string]string{"slug": fx.ShareSlug})
	testutil.AssertStatus(t, w, http.StatusOK)

	var result models.DecisionResult
	testutil.AssertJSON(t, w, &result)
	assert.Nil(t, result.WinnerItemID)
	assert.Nil(t, result.Agreement)
	for _, ir := range result.Rankings {
		assert.True(t, ir.InsufficientData)
		assert.Zero(t, ir.Rank)
		assert.Nil(t, ir.Score)
		assert.Nil(t, ir.DisplayScore)
		assert.NotEmpty(t, ir.PriceDisplay)
	}
}

func TestAddProCon(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, models.TypeProCon, sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	path := map[string]string{"slug": fx.ShareSlug, "item": fx.ItemIDs[0]}

	w := call(env.ratings.AddProCon, testutil.MakeRequest("POST", "/comparisons/x/items/y/procons",
		models.AddProConRequest{Kind: models.KindPro, Body: "Deep seats"}, raterHeaders(alice.Token)), path)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var pc models.ProCon
	testutil.AssertJSON(t, w, &pc)
	assert.Equal(t, "Deep seats", pc.Body)
	assert.Equal(t, alice.ID, pc.RaterID)

	w = call(env.ratings.AddProCon, testutil.MakeRequest("POST", "/comparisons/x/items/y/procons",
		models.AddProConRequest{Kind: "maybe", Body: "x"}, raterHeaders(alice.Token)), path)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.ratings.AddProCon, testutil.MakeRequest("POST", "/comparisons/x/items/y/procons",
		models.AddProConRequest{Kind: models.KindCon, Body: "x"}, raterHeaders(alice.Token)),
		map[string]string{"slug": fx.ShareSlug, "item": "missing"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestComments(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	alice := testutil.AddTestRater(t, env.db, fx.ID, "Alice")
	slug := map[string]string{"slug": fx.ShareSlug}

	w := call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments",
		models.AddCommentRequest{Body: "Hello"}, nil), slug)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)

	w = call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments",
		models.AddCommentRequest{Body: ""}, raterHeaders(alice.Token)), slug)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments",
		models.AddCommentRequest{Body: strings.Repeat("x", 1001)}, raterHeaders(alice.Token)), slug)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = call(env.ratings.AddComment, testutil.MakeRequest("POST", "/comparisons/x/comments",
		models.AddCommentRequest{Body: "Measure the doorway first"}, raterHeaders(alice.Token)), slug)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = call(env.results.ListComments, testutil.MakeRequest("GET", "/comparisons/x/comments", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var thread models.CommentsResponse
	testutil.AssertJSON(t, w, &thread)
	require.Len(t, thread.Comments, 1)
	assert.Equal(t, "Alice", thread.Comments[0].DisplayName)
	assert.Equal(t, alice.ID, thread.Comments[0].RaterID)

	w = call(env.results.ListComments, testutil.MakeRequest("GET", "/comparisons/x/comments", nil, nil),
		map[string]string{"slug": "missing"})
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDecorateResult(t *testing.T) {
	score, lo, hi := 4.25, 450.0, 1299.0
	result := models.DecisionResult{AverageScore: &score, PriceMin: &lo, PriceMax: &hi}

	decorateResult(&result)
	require.NotNil(t, result.AverageDisplayScore)
	assert.InDelta(t, 8.5, *result.AverageDisplayScore, 1e-9)
	assert.Equal(t, "$450 - $1,299", result.PriceRangeDisplay)

	empty := models.DecisionResult{}
	decorateResult(&empty)
	assert.Nil(t, empty.AverageDisplayScore)
	assert.Empty(t, empty.PriceRangeDisplay)
}

func TestListPresets(t *testing.T) {
	env := newTestEnv(t)

	w := call(env.results.ListPresets, testutil.MakeRequest("GET", "/presets", nil, nil), nil)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.PresetsResponse
	testutil.AssertJSON(t, w, &resp)
	require.Len(t, resp.Presets, 3)
	assert.Equal(t, "furniture", resp.Presets[0].Name)
}

// Concurrent raters must all land and the final results must count them
func TestConcurrentRatings(t *testing.T) {
	env := newTestEnv(t)
	fx := testutil.CreateTestComparison(t, env.db, env.cfg, models.StatusActive, "", sofas, sofaCriteria)
	slug := map[string]string{"slug": fx.ShareSlug}

	const numRaters = 5
	raters := make([]models.Rater, numRaters)
	for i := range raters {
		raters[i] = testutil.AddTestRater(t, env.db, fx.ID, fmt.Sprintf("Rater %d", i))
	}

	var wg sync.WaitGroup
	codes := make(chan int, numRaters*len(fx.ItemIDs))
	for _, r := range raters {
		for _, itemID := range fx.ItemIDs {
			wg.Add(1)
			go func(token, itemID string) {
				defer wg.Done()
				w := call(env.ratings.RecordRating, testutil.MakeRequest("PUT", "/comparisons/x/ratings", models.RecordRatingRequest{
					ItemID:      itemID,
					CriterionID: fx.CriterionID["Comfort"],
					Value:       4,
				}, raterHeaders(token)), slug)
				codes <- w.Code
			}(r.Token, itemID)
		}
	}
	wg.Wait()
	close(codes)

	for code := range codes {
		assert.Equal(t, http.StatusOK, code)
	}

	w := call(env.results.GetResults, testutil.MakeRequest("GET", "/comparisons/x/results", nil, nil), slug)
	testutil.AssertStatus(t, w, http.StatusOK)
	var result models.DecisionResult
	testutil.AssertJSON(t, w, &result)
	assert.Len(t, result.RaterIDs, numRaters)
	assert.Equal(t, int64(numRaters*len(fx.ItemIDs)), result.RatingVersion)
	require.NotNil(t, result.Agreement)
	assert.InDelta(t, 100.0, *result.Agreement, 1e-9)
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want int
		msg  string
	}{
		{"validation", decision.Invalid("weight", "must be positive"), http.StatusBadRequest, "weight: must be positive"},
		{"wrong status", decision.Invalid("status", "comparison is draft, expected active"), http.StatusConflict, "comparison is draft, expected active"},
		{"not found", decision.NotFound("item", "x"), http.StatusNotFound, "Item not found"},
		{"frozen", decision.ErrFrozen, http.StatusConflict, "Decision already confirmed"},
		{"stale", fmt.Errorf("confirm: %w", decision.ErrStaleVersion), http.StatusConflict, ""},
		{"name taken", store.ErrNameTaken, http.StatusConflict, "Display name already taken"},
		{"other", sql.ErrConnDone, http.StatusInternalServerError, "Something failed"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, httptest.NewRequest("GET", "/", nil), tc.err, "Something failed")
			assert.Equal(t, tc.want, w.Code)

			if tc.msg != "" {
				var resp models.ErrorResponse
				testutil.AssertJSON(t, w, &resp)
				assert.Equal(t, tc.msg, resp.Message)
			}
		})
	}
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$1,299", formatPrice(1299))
	assert.Equal(t, "$999.5", formatPrice(999.5))
	assert.Equal(t, "$0", formatPrice(0))
	assert.Equal(t, "$12,345.67", formatPrice(12345.67))
}
