package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/fitcoach/internal/health"
	"github.com/2beens/fitcoach/internal/insights"
	"github.com/2beens/fitcoach/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weekPayload() []byte {
	days := make([]map[string]any, 7)
	for i := range days {
		days[i] = map[string]any{
			"calories": 2000,
			"water":    8,
			"steps":    6000,
			"sleep":    7,
		}
	}
	days[0]["actualWeight"] = 80
	days[0]["targetWeight"] = 75
	days[0]["age"] = 30
	days[0]["height"] = 180
	days[0]["gender"] = "Male"
	days[0]["activityLevel"] = "sedentary"

	payload, _ := json.Marshal(map[string]any{"data": days})
	return payload
}

func (s *IntegrationTestSuite) postWeek(ctx context.Context, path string) *http.Response {
	t := s.T()
	req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+path, bytes.NewReader(weekPayload()))
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (s *IntegrationTestSuite) TestSummary() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp := s.postWeek(ctx, "/summary")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summaryResp struct {
		Summary health.WeeklySummary `json:"summary"`
		Targets health.Targets       `json:"targets"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaryResp))
	assert.InDelta(t, 2000.0, summaryResp.Summary.AvgCalories, 1e-9)
	assert.InDelta(t, 2.0, summaryResp.Summary.AvgWaterLiters, 1e-9)
	assert.Equal(t, 10000, summaryResp.Targets.Steps)
	assert.InDelta(t, 1824.3584, summaryResp.Targets.Calories, 1e-6)
}

func (s *IntegrationTestSuite) TestInsightsAreStoredAndListed() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	resp := s.postWeek(ctx, "/insights")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var insightsResp struct {
		Response string `json:"response"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&insightsResp))
	resp.Body.Close()
	assert.Equal(t, testGeneratedText, insightsResp.Response)

	pageURL := fmt.Sprintf("%s/insights/reports/page/1/size/10", serverEndpoint)

	// no token
	req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	resp, err = s.httpClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequestWithContext(ctx, "GET", pageURL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AdminTokenHeader, testAdminToken)
	resp, err = s.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var page insights.ReportsPage
	require.NoError(t, json.Unmarshal(respBytes, &page))
	require.GreaterOrEqual(t, page.Total, 1)
	require.NotEmpty(t, page.Reports)

	latest := page.Reports[0]
	assert.Equal(t, testGeneratedText, latest.Response)
	assert.Equal(t, health.GenderMale, latest.Profile.Gender)
	assert.Equal(t, 30, latest.Profile.Age)

	req, err = http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/insights/reports/%d", serverEndpoint, latest.ID), nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set(middleware.AdminTokenHeader, testAdminToken)
	reportResp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	defer reportResp.Body.Close()
	require.Equal(t, http.StatusOK, reportResp.StatusCode)

	var report insights.Report
	require.NoError(t, json.NewDecoder(reportResp.Body).Decode(&report))
	assert.Equal(t, latest.ID, report.ID)
}

func (s *IntegrationTestSuite) TestDisabledFeaturesAreNotRouted() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	t := s.T()

	for _, path := range []string{"/ask", "/video"} {
		req, err := http.NewRequestWithContext(ctx, "POST", serverEndpoint+path, nil)
		require.NoError(t, err)
		req.Header.Set("User-Agent", "test-agent")
		resp, err := s.httpClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
