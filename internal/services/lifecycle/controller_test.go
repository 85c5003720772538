package lifecycle

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pkt.systems/pslog"

	"serenity-browser/internal/adapters/webview"
	"serenity-browser/internal/domain/model"
	"serenity-browser/internal/services/engineargs"
	"serenity-browser/internal/services/focus"
	"serenity-browser/internal/services/registry"
)

type memJournal struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (j *memJournal) AppendEvent(_ context.Context, ev model.Event) (model.Event, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.err != nil {
		return model.Event{}, j.err
	}
	j.events = append(j.events, ev)
	return ev, nil
}

func (j *memJournal) kinds() []model.EventKind {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]model.EventKind, 0, len(j.events))
	for _, ev := range j.events {
		out = append(out, ev.Kind)
	}
	return out
}

// countingEngine 包一层 Headless，统计 Open 调用次数，并可注入创建失败。
type countingEngine struct {
	*webview.Headless
	mu      sync.Mutex
	opens   int
	openErr error
}

func (e *countingEngine) Open(ctx context.Context, spec model.WindowSpec, onClose func()) (model.WebviewHandle, error) {
	e.mu.Lock()
	e.opens++
	err := e.openErr
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return e.Headless.Open(ctx, spec, onClose)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fixture struct {
	ctrl    *Controller
	reg     *registry.Registry
	engine  *countingEngine
	journal *memJournal
	logs    *lockedBuffer
}

func newFixture(t *testing.T, blocker *focus.Blocker) *fixture {
	t.Helper()
	logs := &lockedBuffer{}
	log := pslog.NewWithOptions(logs, pslog.Options{Mode: pslog.ModeStructured, NoColor: true, MinLevel: pslog.DebugLevel})
	eng := &countingEngine{Headless: webview.NewHeadless(log)}
	reg := registry.New()
	j := &memJournal{}
	ctrl, err := New(Options{
		Registry: reg,
		Engine:   eng,
		Profile:  engineargs.Chromium,
		Logger:   log,
		Journal:  j,
		Blocker:  blocker,
	})
	require.NoError(t, err)
	return &fixture{ctrl: ctrl, reg: reg, engine: eng, journal: j, logs: logs}
}

func exampleRequest(url string) CreateRequest {
	return CreateRequest{
		URL:         url,
		Title:       "Example",
		Width:       800,
		Height:      600,
		Resizable:   true,
		Center:      true,
		Decorations: true,
		WebSecurity: true,
	}
}

func TestCreateNavigateScenario(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.ctrl.Create(ctx, exampleRequest("https://example.com"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^webview_\d+$`), res.ID)
	assert.Empty(t, res.Warnings)

	rec, ok := f.reg.Lookup(res.ID)
	require.True(t, ok)
	assert.Equal(t, "https://example.com", rec.URL)
	assert.Equal(t, "Example", rec.Title)

	err = f.ctrl.Navigate(ctx, res.ID, "not a url")
	assert.ErrorIs(t, err, model.ErrInvalidURL)

	require.NoError(t, f.ctrl.Navigate(ctx, res.ID, "https://example.org"))
	rec, _ = f.reg.Lookup(res.ID)
	assert.Equal(t, "https://example.org", rec.URL)

	assert.Equal(t, []model.EventKind{model.EventCreated, model.EventNavigated}, f.journal.kinds())
}

func TestSequentialCreatesStayLookupable(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	a, err := f.ctrl.Create(ctx, exampleRequest("https://a.example"))
	require.NoError(t, err)
	b, err := f.ctrl.Create(ctx, exampleRequest("https://b.example"))
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	recA, ok := f.reg.Lookup(a.ID)
	require.True(t, ok)
	assert.Equal(t, "https://a.example", recA.URL)
	recB, ok := f.reg.Lookup(b.ID)
	require.True(t, ok)
	assert.Equal(t, "https://b.example", recB.URL)
	assert.Len(t, f.ctrl.List(), 2)
}

func TestConcurrentCreatesAreUnique(t *testing.T) {
	f := newFixture(t, nil)
	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.ctrl.Create(context.Background(), exampleRequest("https://example.com"))
			if err == nil {
				ids <- res.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for v := range ids {
		assert.False(t, seen[v], "duplicate id %s", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, f.reg.Len())
}

func TestMalformedURLHasNoEngineSideEffect(t *testing.T) {
	f := newFixture(t, nil)
	for _, raw := range []string{"", "not a url", "example.com", "https://"} {
		_, err := f.ctrl.Create(context.Background(), exampleRequest(raw))
		assert.ErrorIs(t, err, model.ErrInvalidURL, raw)
	}
	assert.Equal(t, 0, f.engine.opens)
	assert.Equal(t, 0, f.reg.Len())
}

func TestUnknownIDIsNotFound(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	const missing = "webview_404"

	assert.ErrorIs(t, f.ctrl.Navigate(ctx, missing, "https://example.com"), model.ErrWebviewNotFound)
	assert.ErrorIs(t, f.ctrl.GoBack(ctx, missing), model.ErrWebviewNotFound)
	assert.ErrorIs(t, f.ctrl.GoForward(ctx, missing), model.ErrWebviewNotFound)
	assert.ErrorIs(t, f.ctrl.Reload(ctx, missing), model.ErrWebviewNotFound)
	assert.ErrorIs(t, f.ctrl.Close(ctx, missing), model.ErrWebviewNotFound)
	_, err := f.ctrl.Get(missing)
	assert.ErrorIs(t, err, model.ErrWebviewNotFound)

	// 未知 ID 优先于 URL 校验
	assert.ErrorIs(t, f.ctrl.Navigate(ctx, missing, "not a url"), model.ErrWebviewNotFound)
}

func TestHistoryOpsPassThroughToEngine(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res, err := f.ctrl.Create(ctx, exampleRequest("https://a.example"))
	require.NoError(t, err)

	err = f.ctrl.GoBack(ctx, res.ID)
	assert.ErrorIs(t, err, model.ErrEngineOperationFailed)
	assert.Contains(t, err.Error(), "no history entry")

	require.NoError(t, f.ctrl.Navigate(ctx, res.ID, "https://b.example"))
	require.NoError(t, f.ctrl.GoBack(ctx, res.ID))
	rec, _ := f.reg.Lookup(res.ID)
	assert.Equal(t, "https://a.example", rec.URL)

	require.NoError(t, f.ctrl.GoForward(ctx, res.ID))
	rec, _ = f.reg.Lookup(res.ID)
	assert.Equal(t, "https://b.example", rec.URL)

	require.NoError(t, f.ctrl.Reload(ctx, res.ID))
	assert.ErrorIs(t, f.ctrl.GoForward(ctx, res.ID), model.ErrEngineOperationFailed)
}

func TestCreationFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.engine.openErr = errors.New("display unavailable")

	_, err := f.ctrl.Create(context.Background(), exampleRequest("https://example.com"))
	assert.ErrorIs(t, err, model.ErrWebviewCreationFailed)
	assert.Contains(t, err.Error(), "display unavailable")
	assert.Equal(t, 0, f.reg.Len())
	assert.Empty(t, f.journal.kinds())
}

func TestWebSecurityDowngradeIsSurfaced(t *testing.T) {
	f := newFixture(t, nil)
	req := exampleRequest("https://example.com")
	req.WebSecurity = false
	req.ExtraArgs = []string{"--custom"}

	res, err := f.ctrl.Create(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "web security disabled")
	assert.Contains(t, f.logs.String(), "web security disabled by caller")
	assert.Contains(t, f.journal.kinds(), model.EventSecurityDowngrade)

	spec, ok := f.engine.Spec(res.ID)
	require.True(t, ok)
	n := len(spec.BrowserArgs)
	assert.Equal(t, []string{"--custom", engineargs.DisableWebSecurityFlag}, spec.BrowserArgs[n-2:])
}

func TestFullscreenSuppressesCenter(t *testing.T) {
	f := newFixture(t, nil)
	req := exampleRequest("https://example.com")
	req.Fullscreen = true

	res, err := f.ctrl.Create(context.Background(), req)
	require.NoError(t, err)
	spec, _ := f.engine.Spec(res.ID)
	assert.False(t, spec.Center)
	assert.True(t, spec.Fullscreen)
	assert.Equal(t, engineargs.BuildArgs(engineargs.Chromium, nil), spec.BrowserArgs)
}

func TestCloseRemovesEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	a, err := f.ctrl.Create(ctx, exampleRequest("https://a.example"))
	require.NoError(t, err)
	b, err := f.ctrl.Create(ctx, exampleRequest("https://b.example"))
	require.NoError(t, err)

	require.NoError(t, f.ctrl.Close(ctx, a.ID))
	_, ok := f.reg.Lookup(a.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, f.ctrl.Reload(ctx, a.ID), model.ErrWebviewNotFound)

	// 用户直接关窗同样回收登记项
	require.True(t, f.engine.CloseFromOS(b.ID))
	assert.Equal(t, 0, f.reg.Len())
	assert.ErrorIs(t, f.ctrl.Navigate(ctx, b.ID, "https://c.example"), model.ErrWebviewNotFound)

	kinds := f.journal.kinds()
	assert.Equal(t, model.EventClosed, kinds[len(kinds)-1])
}

func TestBlockedURL(t *testing.T) {
	f := newFixture(t, focus.NewBlocker([]focus.Site{{Domain: "reddit.com", Reason: "Social News"}}, true))
	ctx := context.Background()

	_, err := f.ctrl.Create(ctx, exampleRequest("https://www.reddit.com/"))
	assert.ErrorIs(t, err, model.ErrURLBlocked)
	assert.Equal(t, 0, f.engine.opens)

	res, err := f.ctrl.Create(ctx, exampleRequest("https://example.com"))
	require.NoError(t, err)
	assert.ErrorIs(t, f.ctrl.Navigate(ctx, res.ID, "https://old.reddit.com/"), model.ErrURLBlocked)
	rec, _ := f.reg.Lookup(res.ID)
	assert.Equal(t, "https://example.com", rec.URL)
}

func TestJournalFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.journal.err = errors.New("disk full")

	res, err := f.ctrl.Create(context.Background(), exampleRequest("https://example.com"))
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Navigate(context.Background(), res.ID, "https://example.org"))
	assert.Contains(t, f.logs.String(), "journal append failed")
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestDefaultArgsPrecedeRequestArgs(t *testing.T) {
	log := pslog.NewWithOptions(&lockedBuffer{}, pslog.Options{Mode: pslog.ModeStructured, NoColor: true})
	eng := webview.NewHeadless(log)
	defaults := []string{"--lang=en-US"}
	ctrl, err := New(Options{
		Registry:    registry.New(),
		Engine:      eng,
		Profile:     engineargs.Edge,
		Logger:      log,
		DefaultArgs: defaults,
	})
	require.NoError(t, err)
	defaults[0] = "--mutated"

	req := exampleRequest("https://example.com")
	req.ExtraArgs = []string{"--custom"}
	res, err := ctrl.Create(context.Background(), req)
	require.NoError(t, err)

	spec, ok := eng.Spec(res.ID)
	require.True(t, ok)
	want := engineargs.BuildArgs(engineargs.Edge, []string{"--lang=en-US", "--custom"})
	assert.Equal(t, want, spec.BrowserArgs)
}

func TestLoggedURLsAreRedacted(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	res, err := f.ctrl.Create(ctx, exampleRequest("https://example.com/login?token=s3cr3t"))
	require.NoError(t, err)
	require.NoError(t, f.ctrl.Navigate(ctx, res.ID, "https://bob:pw@example.org/cb?code=xyz"))

	logs := f.logs.String()
	assert.NotContains(t, logs, "s3cr3t")
	assert.NotContains(t, logs, "xyz")
	assert.NotContains(t, logs, "bob:pw")

	// 留痕保留完整 URL，便于本地回溯
	rec, _ := f.reg.Lookup(res.ID)
	assert.Equal(t, "https://bob:pw@example.org/cb?code=xyz", rec.URL)
}
