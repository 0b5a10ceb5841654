package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCampaignExpired(t *testing.T) {
	html, err := render("campaign_expired.html", map[string]string{
		"Title":         "Your campaign is past its end date",
		"Name":          "Red Drop NGO",
		"CampaignTitle": "City Blood Drive",
		"EndDate":       "1 May 2026",
	})
	require.NoError(t, err)
	assert.Contains(t, html, "City Blood Drive")
	assert.Contains(t, html, "Hi Red Drop NGO")
	assert.Contains(t, html, "<title>Your campaign is past its end date</title>")
}

func TestRenderEscapesInput(t *testing.T) {
	html, err := render("request_cancelled.html", map[string]string{
		"Title":      "Request cancelled",
		"Name":       "A",
		"BloodGroup": "O-",
		"Reason":     "<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := render("missing.html", nil)
	assert.Error(t, err)
}
