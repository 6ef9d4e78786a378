package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"resty.dev/v3"

	"catalog/selector/internal/catalog"
	"catalog/selector/internal/domain"
	"catalog/selector/internal/session"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, sessionID string, sel domain.Selection, result *domain.SubmissionResult) (string, error) {
	args := m.Called(ctx, sessionID, sel, result)
	return args.String(0), args.Error(1)
}

type testAPI struct {
	client *resty.Client
}

func newTestAPI(t *testing.T, publisher Publisher) *testAPI {
	t.Helper()
	cat := catalog.Default()
	manager := session.NewManager(cat, nil, time.Hour, time.Hour)

	ts := httptest.NewServer(New(cat, manager, publisher).Routes())
	t.Cleanup(ts.Close)

	client := resty.New().SetBaseURL(ts.URL + "/api/v1")
	t.Cleanup(func() { client.Close() })
	return &testAPI{client: client}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	req := a.client.R()
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	resp, err := req.Execute(method, path)
	require.NoError(t, err)
	return resp.StatusCode(), resp.Bytes()
}

func (a *testAPI) createSession(t *testing.T) string {
	t.Helper()
	status, body := a.do(t, http.MethodPost, "/sessions", nil)
	require.Equal(t, http.StatusCreated, status)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	require.NotEmpty(t, snap.ID)
	return snap.ID
}

func (a *testAPI) fillToyota(t *testing.T, id string) {
	t.Helper()
	steps := []struct {
		path string
		body any
	}{
		{"/sessions/" + id + "/main-category", idRequest{ID: 1}},
		{"/sessions/" + id + "/subcategory", idRequest{ID: 11}},
		{"/sessions/" + id + "/answers/101", answerRequest{SelectedOption: "Camry"}},
		{"/sessions/" + id + "/answers/102", answerRequest{SelectedOption: "Other", CustomValue: "Coupe"}},
	}
	for _, step := range steps {
		status, body := a.do(t, http.MethodPut, step.path, step.body)
		require.Equal(t, http.StatusOK, status, string(body))
	}
}

func TestHealthz(t *testing.T) {
	srv := New(catalog.Default(), session.NewManager(catalog.Default(), nil, time.Hour, time.Hour), nil)
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCatalogEndpoints(t *testing.T) {
	api := newTestAPI(t, nil)

	status, body := api.do(t, http.MethodGet, "/catalog", nil)
	require.Equal(t, http.StatusOK, status)
	var categories []domain.Category
	require.NoError(t, json.Unmarshal(body, &categories))
	assert.Len(t, categories, 2)

	status, body = api.do(t, http.MethodGet, "/catalog/1", nil)
	require.Equal(t, http.StatusOK, status)
	var subs []domain.Subcategory
	require.NoError(t, json.Unmarshal(body, &subs))
	require.Len(t, subs, 2)
	assert.Equal(t, "Toyota", subs[0].Name)

	status, body = api.do(t, http.MethodGet, "/catalog/1/11", nil)
	require.Equal(t, http.StatusOK, status)
	var props []domain.Property
	require.NoError(t, json.Unmarshal(body, &props))
	require.Len(t, props, 2)
	assert.Equal(t, 101, props[0].ID)
	assert.Equal(t, 102, props[1].ID)

	status, _ = api.do(t, http.MethodGet, "/catalog/2/11", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodGet, "/catalog/abc", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSubmitFlow(t *testing.T) {
	publisher := new(MockPublisher)
	api := newTestAPI(t, publisher)
	id := api.createSession(t)
	api.fillToyota(t, id)

	publisher.On("Publish", mock.Anything, id, mock.MatchedBy(func(sel domain.Selection) bool {
		return sel.SubcategoryID == 11 && len(sel.Answers) == 2
	}), mock.Anything).Return("sub-1", nil).Once()

	status, body := api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status, string(body))

	var resp struct {
		SubmissionID string          `json:"submissionId"`
		Result       json.RawMessage `json:"result"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "sub-1", resp.SubmissionID)

	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, resp.Result))
	assert.Equal(t, `{"Main Category":"Cars","Subcategory":"Toyota","Model":"Camry","Type":"Coupe"}`, compact.String())

	publisher.AssertExpectations(t)
}

func TestSubmit_ValidationErrors(t *testing.T) {
	publisher := new(MockPublisher)
	api := newTestAPI(t, publisher)
	id := api.createSession(t)

	status, body := api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)

	var resp validationResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "Please select a main category", resp.Errors["mainCategory"])
	assert.Equal(t, "Please select a subcategory", resp.Errors["subcategory"])

	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/main-category", idRequest{ID: 1})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/subcategory", idRequest{ID: 11})
	require.Equal(t, http.StatusOK, status)
	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/answers/101", answerRequest{SelectedOption: "Other"})
	require.Equal(t, http.StatusOK, status)

	status, body = api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	var propResp validationResponse
	require.NoError(t, json.Unmarshal(body, &propResp))
	assert.Equal(t, map[string]string{
		"properties.101": "Please enter a custom value",
		"properties.102": "Please select an option",
	}, propResp.Errors)

	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSubmit_PublishFailure(t *testing.T) {
	publisher := new(MockPublisher)
	publisher.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("stream unavailable"))

	api := newTestAPI(t, publisher)
	id := api.createSession(t)
	api.fillToyota(t, id)

	status, _ := api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestContractViolations(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)

	status, _ := api.do(t, http.MethodPut, "/sessions/"+id+"/main-category", idRequest{ID: 2})
	require.Equal(t, http.StatusOK, status)

	// Toyota belongs to Cars, not Electronics
	status, body := api.do(t, http.MethodPut, "/sessions/"+id+"/subcategory", idRequest{ID: 11})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "invalid selection")

	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/subcategory", idRequest{ID: 21})
	require.Equal(t, http.StatusOK, status)

	status, body = api.do(t, http.MethodPut, "/sessions/"+id+"/answers/101", answerRequest{SelectedOption: "Camry"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, string(body), "stale property reference")

	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/answers/104", answerRequest{SelectedOption: "Nokia"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/answers/104", answerRequest{})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = api.do(t, http.MethodPut, "/sessions/"+id+"/answers/104", map[string]any{"bogus": true})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestChangingMainCategoryClearsAnswers(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)
	api.fillToyota(t, id)

	status, body := api.do(t, http.MethodPut, "/sessions/"+id+"/main-category", idRequest{ID: 2})
	require.Equal(t, http.StatusOK, status)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 2, snap.Selection.MainCategoryID)
	assert.Zero(t, snap.Selection.SubcategoryID)
	assert.Empty(t, snap.Selection.Answers)
	assert.Empty(t, snap.ActiveChain)
	require.Len(t, snap.Subcategories, 1)
	assert.Equal(t, "Phones", snap.Subcategories[0].Name)
}

func TestClearAnswerAndSubcategory(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)
	api.fillToyota(t, id)

	status, body := api.do(t, http.MethodDelete, "/sessions/"+id+"/answers/102", nil)
	require.Equal(t, http.StatusOK, status)
	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Len(t, snap.Selection.Answers, 1)

	status, body = api.do(t, http.MethodDelete, "/sessions/"+id+"/subcategory", nil)
	require.Equal(t, http.StatusOK, status)
	var cleared session.Snapshot
	require.NoError(t, json.Unmarshal(body, &cleared))
	assert.Zero(t, cleared.Selection.SubcategoryID)
	assert.Empty(t, cleared.Selection.Answers)
	assert.Empty(t, cleared.ActiveChain)
}

func TestResetClearsResult(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)
	api.fillToyota(t, id)

	status, _ := api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(t, http.MethodPost, "/sessions/"+id+"/reset", nil)
	require.Equal(t, http.StatusOK, status)

	var snap session.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Zero(t, snap.Selection.MainCategoryID)
	assert.Nil(t, snap.Result)

	status, body = api.do(t, http.MethodGet, "/sessions/"+id+"/result", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "null", strings.TrimSpace(string(body)))
}

func TestResultFormats(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)
	api.fillToyota(t, id)

	status, _ := api.do(t, http.MethodPost, "/sessions/"+id+"/submit", nil)
	require.Equal(t, http.StatusOK, status)

	status, body := api.do(t, http.MethodGet, "/sessions/"+id+"/result?format=table", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "Main Category")
	assert.Contains(t, string(body), "Coupe")

	status, body = api.do(t, http.MethodGet, "/sessions/"+id+"/result?format=html", nil)
	require.Equal(t, http.StatusOK, status)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	require.NoError(t, err)

	var keys []string
	doc.Find("section.submitted-data tbody tr").Each(func(_ int, row *goquery.Selection) {
		keys = append(keys, strings.TrimSpace(row.Find("td").First().Text()))
	})
	assert.Equal(t, []string{"Main Category", "Subcategory", "Model", "Type"}, keys)

	status, _ = api.do(t, http.MethodGet, "/sessions/"+id+"/result?format=xml", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUnknownSession(t *testing.T) {
	api := newTestAPI(t, nil)

	status, _ := api.do(t, http.MethodGet, "/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = api.do(t, http.MethodPut, "/sessions/nope/main-category", idRequest{ID: 1})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDeleteSession(t *testing.T) {
	api := newTestAPI(t, nil)
	id := api.createSession(t)

	status, _ := api.do(t, http.MethodDelete, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = api.do(t, http.MethodGet, "/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, status)
}
