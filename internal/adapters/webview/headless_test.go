package webview

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/engineargs"
)

func testLogger() pslog.Logger {
	return pslog.NewWithOptions(io.Discard, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
}

func TestHeadless_HistoryStack(t *testing.T) {
	e := NewHeadless(testLogger())
	h, err := e.Open(context.Background(), model.WindowSpec{ID: "webview_1", URL: "https://a.example", WebSecurity: true}, nil)
	require.NoError(t, err)
	rep := h.(model.URLReporter)

	assert.EqualError(t, h.GoBack(), errNoBackEntry.Error())
	assert.EqualError(t, h.GoForward(), errNoForwardEntry.Error())

	require.NoError(t, h.Navigate("https://b.example"))
	require.NoError(t, h.Navigate("https://c.example"))
	require.NoError(t, h.GoBack())
	assert.Equal(t, "https://b.example", rep.CurrentURL())
	require.NoError(t, h.GoForward())
	assert.Equal(t, "https://c.example", rep.CurrentURL())

	// back 之后的新导航丢弃 forward 栈
	require.NoError(t, h.GoBack())
	require.NoError(t, h.Navigate("https://d.example"))
	assert.Error(t, h.GoForward())
	require.NoError(t, h.Reload())
	assert.Equal(t, "https://d.example", rep.CurrentURL())
}

func TestHeadless_CloseFiresOnceAndReleases(t *testing.T) {
	e := NewHeadless(testLogger())
	closed := 0
	h, err := e.Open(context.Background(), model.WindowSpec{ID: "webview_1", URL: "https://a.example"}, func() { closed++ })
	require.NoError(t, err)
	assert.Equal(t, []string{"webview_1"}, e.Windows())

	require.True(t, e.CloseFromOS("webview_1"))
	assert.Equal(t, 1, closed)
	assert.Empty(t, e.Windows())

	assert.Error(t, h.Close())
	assert.Error(t, h.Navigate("https://b.example"))
	assert.Equal(t, 1, closed)
	assert.False(t, e.CloseFromOS("webview_1"))
}

func TestHeadless_RecordsSecurityDowngradeArg(t *testing.T) {
	e := NewHeadless(testLogger())
	_, err := e.Open(context.Background(), model.WindowSpec{
		ID:          "webview_1",
		URL:         "https://a.example",
		WebSecurity: false,
		BrowserArgs: []string{"--x"},
	}, nil)
	require.NoError(t, err)

	spec, ok := e.Spec("webview_1")
	require.True(t, ok)
	assert.Equal(t, []string{"--x", engineargs.DisableWebSecurityFlag}, spec.BrowserArgs)
}

func TestHeadless_RejectsDuplicateAndCanceled(t *testing.T) {
	e := NewHeadless(testLogger())
	_, err := e.Open(context.Background(), model.WindowSpec{ID: "webview_1", URL: "https://a.example"}, nil)
	require.NoError(t, err)
	_, err = e.Open(context.Background(), model.WindowSpec{ID: "webview_1", URL: "https://a.example"}, nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Open(ctx, model.WindowSpec{ID: "webview_2", URL: "https://a.example"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineArgs(t *testing.T) {
	base := []string{"--a", "--b"}
	assert.Equal(t, base, EngineArgs(model.WindowSpec{WebSecurity: true, BrowserArgs: base}))
	got := EngineArgs(model.WindowSpec{WebSecurity: false, BrowserArgs: base})
	assert.Equal(t, []string{"--a", "--b", engineargs.DisableWebSecurityFlag}, got)
	assert.Len(t, base, 2)
}
