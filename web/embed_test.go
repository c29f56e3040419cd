package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticContainsScripts(t *testing.T) {
	static := Static()
	for _, name := range []string{
		"js/bracket-manager.js",
		"js/tournament-form.js",
		"js/tournament-viewer.js",
		"js/views-bracket-viewer.js",
		"css/bracket-manager.css",
	} {
		data, err := fs.ReadFile(static, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestStaticFallbackMessages(t *testing.T) {
	form, err := fs.ReadFile(Static(), "js/tournament-form.js")
	require.NoError(t, err)
	assert.Contains(t, string(form), "brackets-manager.js could not be loaded. You can still save the tournament.")

	viewer, err := fs.ReadFile(Static(), "js/tournament-viewer.js")
	require.NoError(t, err)
	assert.Contains(t, string(viewer), "brackets-manager.js could not be loaded. Showing raw data.")

	views, err := fs.ReadFile(Static(), "js/views-bracket-viewer.js")
	require.NoError(t, err)
	assert.Contains(t, string(views), "Bracket data is incomplete for ")
}

func TestViewerFallsBackToSnapshot(t *testing.T) {
	viewer, err := fs.ReadFile(Static(), "js/tournament-viewer.js")
	require.NoError(t, err)
	assert.Contains(t, string(viewer), "settings.data_url")
	assert.Contains(t, string(viewer), "fetch(settings.data_url")
}
