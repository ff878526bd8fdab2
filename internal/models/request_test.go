package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequestDefaults(t *testing.T) {
	req, err := ParseRequest([]byte(`{"recipient":"ops@example.com","baseURL":"https://zbx.example/"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(0), req.EventID)
	assert.Equal(t, 450, req.GraphWidth)
	assert.Equal(t, 120, req.GraphHeight)
	assert.Equal(t, "48h", req.Period)
	assert.Empty(t, req.Periods)
}

func TestParseRequestCoercesStringNumbers(t *testing.T) {
	// The webhook script forwards numbers as strings.
	body := `{
		"recipient": "ops@example.com",
		"baseURL": "https://zbx.example",
		"eventId": "101",
		"duration": "3600",
		"graphWidth": "900",
		"showLegend": "1",
		"debug": "true"
	}`
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, int64(101), req.EventID)
	assert.Equal(t, int64(3600), req.Duration)
	assert.Equal(t, 900, req.GraphWidth)
	assert.Equal(t, 1, req.ShowLegend)
	assert.True(t, req.Debug)
}

func TestParseRequestAppendsBaseURLSlash(t *testing.T) {
	req, err := ParseRequest([]byte(`{"recipient":"a@b.com","baseURL":"https://zbx.example"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://zbx.example/", req.BaseURL)
}

func TestParseRequestPeriodLists(t *testing.T) {
	body := `{
		"recipient": "a@b.com",
		"baseURL": "https://zbx.example/",
		"periods": "4h, 24h, 7d",
		"periods_headers": "Four hours,One day,One week"
	}`
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, []string{"4h", "24h", "7d"}, req.Periods)
	assert.Equal(t, []string{"Four hours", "One day", "One week"}, req.PeriodsHeaders)
}

func TestParseRequestInfoPassthrough(t *testing.T) {
	body := `{
		"recipient": "a@b.com",
		"baseURL": "https://zbx.example/",
		"infoLocation": "rack 7",
		"infoContact": "noc",
		"subject": "not an info field"
	}`
	req, err := ParseRequest([]byte(body))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"infoLocation": "rack 7", "infoContact": "noc"}, req.Info)
}

func TestParseRequestMissingMandatoryFields(t *testing.T) {
	_, err := ParseRequest([]byte(`{"baseURL":"https://zbx.example/"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")

	_, err = ParseRequest([]byte(`{"recipient":"a@b.com"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseURL")
}

func TestParseRequestInvalidJSON(t *testing.T) {
	_, err := ParseRequest([]byte(`{not json`))
	require.Error(t, err)
}

func TestDefaultDirectivesFromPeriodList(t *testing.T) {
	req := Request{
		Periods:        []string{"4h", "24h"},
		PeriodsHeaders: []string{"Four hours"},
	}
	d := DefaultDirectives(req)

	require.Len(t, d.Periods, 2)
	assert.Equal(t, PeriodSpec{Period: "4h", Header: "Four hours"}, d.Periods[0])
	assert.Equal(t, PeriodSpec{Period: "24h", Header: "24h"}, d.Periods[1])
}

func TestCapPeriods(t *testing.T) {
	d := DisplayDirectives{Periods: []PeriodSpec{
		{Period: "1h"}, {Period: "2h"}, {Period: "4h"},
	}}
	d.CapPeriods(2)
	require.Len(t, d.Periods, 2)
	assert.Equal(t, "1h", d.Periods[0].Period)

	d.CapPeriods(0) // zero means no cap
	assert.Len(t, d.Periods, 2)
}

func TestFirstPeriodFallback(t *testing.T) {
	var d DisplayDirectives
	assert.Equal(t, PeriodSpec{Period: "48h", Header: "48h"}, d.FirstPeriod())
}
