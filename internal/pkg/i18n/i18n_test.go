package i18n_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodlink/internal/pkg/i18n"
)

func TestLoadDefault(t *testing.T) {
	require.NoError(t, i18n.LoadDefault())

	assert.Equal(t, "Request cancelled", i18n.Translate("en", "REQUEST_CANCELLED_TITLE"))
	assert.Equal(t, "Permintaan dibatalkan", i18n.Translate("id", "REQUEST_CANCELLED_TITLE"))
	assert.Equal(t, "Urgent: O- blood needed", i18n.Translatef("en", "BLOOD_ALERT_TITLE", "O-"))
}

func TestTranslateFallback(t *testing.T) {
	fsys := fstest.MapFS{
		"en/messages.yaml": {Data: []byte("MESSAGES:\n  ONLY_EN: \"English\"\n  BOTH: \"en both\"\n")},
		"fr/messages.yaml": {Data: []byte("MESSAGES:\n  BOTH: \"fr both\"\n")},
		"README.md":        {Data: []byte("ignored")},
	}
	require.NoError(t, i18n.LoadTranslations(fsys))

	assert.Equal(t, "fr both", i18n.Translate("fr", "BOTH"))
	assert.Equal(t, "English", i18n.Translate("fr", "ONLY_EN"))
	assert.Equal(t, "NON_EXISTENT_KEY", i18n.Translate("fr", "NON_EXISTENT_KEY"))
}

func TestLoadTranslationsRejectsBadYAML(t *testing.T) {
	fsys := fstest.MapFS{
		"xx/messages.yaml": {Data: []byte("MESSAGES: [unclosed")},
	}
	assert.Error(t, i18n.LoadTranslations(fsys))
}
