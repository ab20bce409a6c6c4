package model

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"statement_engine/pkg/core/assumption"
	"statement_engine/pkg/core/projection"
	"statement_engine/pkg/core/scenario"
	"statement_engine/pkg/core/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, withStore bool) *httptest.Server {
	t.Helper()
	logger, _ := test.NewNullLogger()
	engine := projection.NewProjectionEngine(projection.Settings{}, logger)

	var repo *store.ModelRepo
	if withStore {
		repo = store.NewModelRepo(nil, t.TempDir())
	}
	h := NewHandler(engine, scenario.NewRunner(engine, scenario.WithLogger(logger)), repo, 0, logger)

	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHandleBuild(t *testing.T) {
	srv := newTestServer(t, true)

	resp := post(t, srv, "/api/model/build", BuildRequest{
		Case:           assumption.SampleCase(),
		DiscountRate:   0.09,
		TerminalGrowth: 0.025,
		Save:           true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decode[BuildResponse](t, resp)
	assert.Equal(t, "base", body.Scenario)
	require.NotNil(t, body.Result)
	assert.True(t, body.Result.AllPeriodsBalanced)
	assert.Len(t, body.Result.FCFPerPeriod, 5)
	assert.Len(t, body.Ratios, 7)
	assert.Empty(t, body.AssuranceError)
	require.NotNil(t, body.Valuation)
	assert.Greater(t, body.Valuation.EnterpriseValue, 0.0)

	// Saved snapshot is served back
	require.NotEmpty(t, body.RunID)
	got, err := http.Get(srv.URL + "/api/models/" + body.RunID)
	require.NoError(t, err)
	defer got.Body.Close()
	require.Equal(t, http.StatusOK, got.StatusCode)
	snap := decode[store.Snapshot](t, got)
	assert.Equal(t, "Sample Co", snap.CaseName)
	assert.Equal(t, body.RunID, snap.RunID.String())

	list, err := http.Get(srv.URL + "/api/models?case_name=" + url.QueryEscape("Sample Co"))
	require.NoError(t, err)
	defer list.Body.Close()
	infos := decode[[]store.SnapshotInfo](t, list)
	require.Len(t, infos, 1)
	assert.True(t, infos[0].Balanced)
}

func TestHandleBuild_Overrides(t *testing.T) {
	srv := newTestServer(t, false)

	resp := post(t, srv, "/api/model/build", BuildRequest{
		Case:      assumption.SampleCase(),
		Overrides: "| driver | value |\n|---|---|\n| growth | 0% |\n",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decode[BuildResponse](t, resp)
	for _, p := range body.Result.Forecast() {
		assert.InDelta(t, 1100, p.IncomeStatement.Revenue, 1e-9, p.Label)
	}
	assert.Empty(t, body.RunID)
}

func TestHandleBuild_Errors(t *testing.T) {
	srv := newTestServer(t, false)

	broken := assumption.SampleCase()
	broken.Historical[1].Equity += 50

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"no case", BuildRequest{Scenario: "base"}, http.StatusBadRequest},
		{"invalid case", BuildRequest{Case: &assumption.Case{Name: "empty"}}, http.StatusBadRequest},
		{"unknown scenario", BuildRequest{Case: assumption.SampleCase(), Scenario: "bear"}, http.StatusNotFound},
		{"bad overrides", BuildRequest{Case: assumption.SampleCase(), Overrides: "| driver | value |\n|---|---|\n| beta | 1 |\n"}, http.StatusBadRequest},
		{"inconsistent history", BuildRequest{Case: broken}, http.StatusUnprocessableEntity},
		{"rate below growth", BuildRequest{Case: assumption.SampleCase(), DiscountRate: 0.02, TerminalGrowth: 0.03}, http.StatusBadRequest},
		{"save without store", BuildRequest{Case: assumption.SampleCase(), Save: true}, http.StatusNotImplemented},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, srv, "/api/model/build", tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode[map[string]string](t, resp)
			assert.NotEmpty(t, body["error"])
		})
	}

	resp, err := http.Post(srv.URL+"/api/model/build", "application/json", bytes.NewBufferString("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	wrong, err := http.Get(srv.URL + "/api/model/build")
	require.NoError(t, err)
	defer wrong.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, wrong.StatusCode)
}

func TestHandleValidate(t *testing.T) {
	srv := newTestServer(t, false)

	resp := post(t, srv, "/api/model/validate", assumption.SampleCase())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ok := decode[ValidateResponse](t, resp)
	assert.True(t, ok.HistoryOK)
	require.Len(t, ok.Scenarios, 1)
	assert.Equal(t, "base", ok.Scenarios[0].Name)
	assert.True(t, ok.Scenarios[0].Balanced)

	broken := assumption.SampleCase()
	broken.Historical[1].Equity += 50
	resp = post(t, srv, "/api/model/validate", broken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bad := decode[ValidateResponse](t, resp)
	assert.False(t, bad.HistoryOK)
	require.Len(t, bad.Issues, 1)
	assert.Contains(t, bad.Issues[0], "FY2024")
	assert.Empty(t, bad.Scenarios)
}

func TestHandleSweep(t *testing.T) {
	srv := newTestServer(t, false)

	resp := post(t, srv, "/api/model/sweep", SweepRequest{Case: assumption.SampleCase(), Deltas: []float64{0, 0.01}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	summaries := decode[[]scenario.Summary](t, resp)
	require.Len(t, summaries, 2)
	assert.Equal(t, "base +0.0pp", summaries[0].Scenario)
	assert.Equal(t, "base +1.0pp", summaries[1].Scenario)
	assert.Greater(t, summaries[1].FinalRevenue, summaries[0].FinalRevenue)

	// No deltas compares the case's own scenarios
	resp = post(t, srv, "/api/model/sweep", SweepRequest{Case: assumption.SampleCase()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]scenario.Summary](t, resp)
	require.Len(t, all, 1)
	assert.Equal(t, "base", all[0].Scenario)
}

func TestSnapshotEndpoints(t *testing.T) {
	srv := newTestServer(t, true)

	resp, err := http.Get(srv.URL + "/api/models/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	missing, err := http.Get(srv.URL + "/api/models/" + uuid.NewString())
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	noStore := newTestServer(t, false)
	disabled, err := http.Get(noStore.URL + "/api/models")
	require.NoError(t, err)
	defer disabled.Body.Close()
	assert.Equal(t, http.StatusNotImplemented, disabled.StatusCode)
}
