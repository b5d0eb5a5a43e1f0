package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wadjakorntonsri/qr-redirect/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/qr-redirect/pkg/core/domain"
	"github.com/wadjakorntonsri/qr-redirect/pkg/metrics"
)

func newStore(t *testing.T) (*RedirectService, *sqlite.RedirectRepository) {
	t.Helper()
	repo, err := sqlite.NewRedirectRepository(context.Background(), "file:"+filepath.Join(t.TempDir(), "redirects.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	ids, err := NewIDGenerator(1)
	require.NoError(t, err)
	return NewRedirectService(repo, ids, time.Minute), repo
}

func newAnalytics(t *testing.T) (*AnalyticsLogger, *sqlite.EventRepository) {
	t.Helper()
	repo, err := sqlite.NewEventRepository(context.Background(), "file:"+filepath.Join(t.TempDir(), "analytics.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return NewAnalyticsLogger(repo, loc), repo
}

// brokenEvents fails every append.
type brokenEvents struct{}

func (brokenEvents) Append(context.Context, *domain.Event) error {
	return errors.New("disk full")
}

func (brokenEvents) Count(context.Context) (int64, error) {
	return 0, nil
}

func (brokenEvents) CountByID(context.Context, string) (int64, error) {
	return 0, nil
}

func (brokenEvents) Dump(context.Context) ([]domain.Event, error) {
	return nil, nil
}

func (brokenEvents) Close() error {
	return nil
}

func TestCreateOrGetIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)

	id, err := store.CreateOrGet(ctx, "https://example.com/page", "booth1", 2)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	again, err := store.CreateOrGet(ctx, "https://example.com/page", "booth1", 2)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrGetDistinctTriples(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)

	base, err := store.CreateOrGet(ctx, "https://example.com/page", "booth1", 2)
	require.NoError(t, err)

	tests := []struct {
		name     string
		url      string
		location string
		style    int
	}{
		{"different url", "https://example.com/other", "booth1", 2},
		{"different location", "https://example.com/page", "booth2", 2},
		{"different style", "https://example.com/page", "booth1", 3},
		{"url case differs", "https://example.com/PAGE", "booth1", 2},
		{"trailing slash", "https://example.com/page/", "booth1", 2},
	}

	seen := map[string]bool{base: true}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := store.CreateOrGet(ctx, tt.url, tt.location, tt.style)
			require.NoError(t, err)
			assert.False(t, seen[id], "id %s reused", id)
			seen[id] = true
		})
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(tests)+1), count)
}

func TestCreateOrGetAppliesDefaults(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	implicit, err := store.CreateOrGet(ctx, "https://example.com", "", 0)
	require.NoError(t, err)
	explicit, err := store.CreateOrGet(ctx, "https://example.com", domain.DefaultLocation, domain.DefaultStyle)
	require.NoError(t, err)
	assert.Equal(t, implicit, explicit)

	link, err := store.GetByID(ctx, implicit)
	require.NoError(t, err)
	assert.Equal(t, "N/A", link.Location)
	assert.Equal(t, domain.Style(1), link.Style)
}

func TestCreateOrGetKeepsOutOfRangeStyle(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	id, err := store.CreateOrGet(ctx, "https://example.com", "N/A", 9999)
	require.NoError(t, err)

	link, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.Style(9999), link.Style)
}

func TestCreateOrGetRejectsInvalidURL(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)

	for _, raw := range []string{
		"",
		"example.com",
		"/relative/path",
		"ftp://example.com/file",
		"https://",
		"http:///path",
		"https://exa mple.com",
		"https://example.com/\n",
		"mailto:someone@example.com",
		"javascript:alert(1)",
		"https:example.com",
	} {
		id, err := store.CreateOrGet(ctx, raw, "N/A", 1)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
		assert.Empty(t, id, raw)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCreateOrGetConcurrent(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)

	const n = 50
	ids := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ids[i], errs[i] = store.CreateOrGet(ctx, "https://example.com/race", "gate", 4)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestCreateOrGetPersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)
	require.NoError(t, repo.Close())

	before := testutil.ToFloat64(metrics.StoreFailures.WithLabelValues("create"))
	id, err := store.CreateOrGet(ctx, "https://example.com", "N/A", 1)
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.NotErrorIs(t, err, domain.ErrAnalyticsPersistence)
	assert.Empty(t, id)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.StoreFailures.WithLabelValues("create")))
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)

	id, err := store.CreateOrGet(ctx, "https://example.com/page", "booth1", 2)
	require.NoError(t, err)

	link, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", link.URL)

	// Callers get their own copy of cached records.
	link.URL = "https://tampered.example"
	again, err := store.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", again.URL)

	_, err = store.GetByID(ctx, "zzz999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestImportSkipsExisting(t *testing.T) {
	ctx := context.Background()
	store, repo := newStore(t)

	existing, err := store.CreateOrGet(ctx, "https://example.com/a", "N/A", 1)
	require.NoError(t, err)

	// Only legacy1 and the record without an id are new: legacy2 matches an
	// existing triple once defaults apply, the third reuses a taken id and
	// legacy3 is not a URL.
	n, err := store.Import(ctx, []domain.Redirect{
		{ID: "legacy1", URL: "https://example.com/b", Location: "booth1", Style: 2},
		{ID: "legacy2", URL: "https://example.com/a"},
		{ID: existing, URL: "https://example.com/c"},
		{ID: "legacy3", URL: "not a url"},
		{ID: "", URL: "https://example.com/d", Style: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	link, err := store.GetByID(ctx, "legacy1")
	require.NoError(t, err)
	assert.Equal(t, "booth1", link.Location)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestResolveFound(t *testing.T) {
	ctx := context.Background()
	store, redirects := newStore(t)
	analytics, events := newAnalytics(t)
	resolver := NewResolverService(store, analytics)

	id, err := store.CreateOrGet(ctx, "https://example.com/page", "booth1", 2)
	require.NoError(t, err)

	outcome, err := resolver.Resolve(ctx, id, domain.ClientInfo{
		IP:         "203.0.113.9",
		Attributes: map[string]any{"browser": "Firefox", "isBot": false, "version": ""},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.Found("https://example.com/page"), outcome)

	dump, err := events.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, dump, 1)
	assert.Equal(t, id, dump[0].ID)
	assert.Equal(t, "https://example.com/page", dump[0].URL)
	assert.Equal(t, "203.0.113.9", dump[0].IP)
	assert.Equal(t, map[string]any{"browser": "Firefox"}, dump[0].Attributes)

	count, err := redirects.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestResolveNotFound(t *testing.T) {
	ctx := context.Background()
	store, redirects := newStore(t)
	analytics, events := newAnalytics(t)
	resolver := NewResolverService(store, analytics)

	outcome, err := resolver.Resolve(ctx, "zzz999", domain.ClientInfo{IP: "198.51.100.1"})
	require.NoError(t, err)
	assert.False(t, outcome.Found)

	dump, err := events.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, dump, 1)
	assert.Equal(t, "zzz999", dump[0].ID)
	assert.Equal(t, domain.InvalidIDURL, dump[0].URL)

	count, err := redirects.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestResolveRecordsEveryAttempt(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	analytics, events := newAnalytics(t)
	resolver := NewResolverService(store, analytics)

	id, err := store.CreateOrGet(ctx, "https://example.com", "N/A", 1)
	require.NoError(t, err)

	attempts := []string{id, "nope", id, id, "", "zzz999"}
	for i, attempt := range attempts {
		_, err := resolver.Resolve(ctx, attempt, domain.ClientInfo{})
		require.NoError(t, err)

		count, err := events.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(i+1), count)
	}

	stats, err := analytics.Stats(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalEvents)
}

func TestResolveConcurrent(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	analytics, events := newAnalytics(t)
	resolver := NewResolverService(store, analytics)

	id, err := store.CreateOrGet(ctx, "https://example.com", "N/A", 1)
	require.NoError(t, err)

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := resolver.Resolve(ctx, id, domain.ClientInfo{})
			assert.NoError(t, err)
			assert.True(t, outcome.Found)
		}()
	}
	wg.Wait()

	count, err := events.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(n), count)
}

func TestResolveSurvivesAnalyticsFailure(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(t)
	resolver := NewResolverService(store, NewAnalyticsLogger(brokenEvents{}, time.UTC))

	id, err := store.CreateOrGet(ctx, "https://example.com", "N/A", 1)
	require.NoError(t, err)

	before := testutil.ToFloat64(metrics.AnalyticsWriteFailures)
	outcome, err := resolver.Resolve(ctx, id, domain.ClientInfo{})
	require.NoError(t, err)
	assert.True(t, outcome.Found)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.AnalyticsWriteFailures))
}

func TestResolveStoreFailureStillRecords(t *testing.T) {
	ctx := context.Background()
	store, redirects := newStore(t)
	analytics, events := newAnalytics(t)
	resolver := NewResolverService(store, analytics)
	require.NoError(t, redirects.Close())

	outcome, err := resolver.Resolve(ctx, "abc123", domain.ClientInfo{})
	assert.ErrorIs(t, err, domain.ErrPersistence)
	assert.False(t, outcome.Found)

	count, err := events.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRecordWrapsAnalyticsError(t *testing.T) {
	analytics := NewAnalyticsLogger(brokenEvents{}, time.UTC)
	err := analytics.Record(context.Background(), &domain.Event{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrAnalyticsPersistence)
	assert.NotErrorIs(t, err, domain.ErrPersistence)
}

func TestRecordIgnoresCancelledContext(t *testing.T) {
	analytics, events := newAnalytics(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, analytics.Record(ctx, &domain.Event{ID: "abc", URL: "https://example.com", Time: time.Now()}))
	count, err := events.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNewEventUsesReportingTimezone(t *testing.T) {
	analytics, _ := newAnalytics(t)
	analytics.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	event := analytics.NewEvent("abc123", domain.Found("https://example.com"), domain.ClientInfo{IP: "::1"})
	assert.Equal(t, "America/New_York", event.Time.Location().String())
	assert.Equal(t, 8, event.Time.Hour())
	assert.Equal(t, "https://example.com", event.URL)
	assert.Equal(t, "::1", event.IP)

	missing := analytics.NewEvent("zzz999", domain.NotFound, domain.ClientInfo{})
	assert.Equal(t, domain.InvalidIDURL, missing.URL)
}

func TestCompactAttributes(t *testing.T) {
	var nilPtr *string
	name := "x"

	got := CompactAttributes(map[string]any{
		"browser":  "Chrome",
		"version":  "",
		"isMobile": true,
		"isBot":    false,
		"count":    0,
		"ratio":    0.5,
		"nothing":  nil,
		"ptr":      nilPtr,
		"name":     &name,
		"tags":     []string{},
		"geo":      map[string]string{"country": "US"},
	})

	assert.Equal(t, map[string]any{
		"browser":  "Chrome",
		"isMobile": true,
		"ratio":    0.5,
		"name":     &name,
		"geo":      map[string]string{"country": "US"},
	}, got)

	assert.Nil(t, CompactAttributes(nil))
	assert.Nil(t, CompactAttributes(map[string]any{"isBot": false}))
}

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://example.com",
		"http://example.com/page?x=1#top",
		"https://sub.example.co.uk:8443/a/b",
		"http://localhost:3000/",
		"https://[2001:db8::1]/",
	}
	for _, raw := range valid {
		assert.NoError(t, ValidateURL(raw), raw)
	}
}

func TestIDGenerator(t *testing.T) {
	ids, err := NewIDGenerator(3)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ids.Next()
		require.NotEmpty(t, id)
		assert.Regexp(t, `^[1-9A-HJ-NP-Za-km-z]+$`, id)
		assert.LessOrEqual(t, len(id), 11)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	_, err = NewIDGenerator(5000)
	assert.Error(t, err)
}
