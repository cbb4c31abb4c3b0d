package collector_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/utdisclosures/internal/collector"
	"github.com/jonesrussell/utdisclosures/internal/logger"
	"github.com/jonesrussell/utdisclosures/internal/outage"
	"github.com/jonesrussell/utdisclosures/internal/retry"
	"github.com/jonesrussell/utdisclosures/internal/site"
)

// recordingSleep captures requested delays without actually sleeping.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *recordingSleep) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}

type testHarness struct {
	collector *collector.Collector
	gate      *outage.Gate
	outputDir string
	sleeper   *recordingSleep
}

// newHarness builds a collector against the given server with all real
// sleeps replaced by recorders.
func newHarness(t *testing.T, serverURL string, cfg collector.Config) *testHarness {
	t.Helper()

	if cfg.OutputDir == "" {
		cfg.OutputDir = t.TempDir()
	}

	client, err := site.New(site.Config{
		BaseURL: serverURL,
		Timeout: 5 * time.Second,
	}, logger.NewNoOp())
	require.NoError(t, err)
	t.Cleanup(client.Close)

	sleeper := &recordingSleep{}

	gate := outage.New(outage.Config{
		FailureThreshold: 3,
		Cooldown:         2 * time.Minute,
		Window:           5 * time.Minute,
		Sleep:            sleeper.sleep,
	})

	col, err := collector.New(collector.Params{
		Site: client,
		Retry: retry.Config{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
			Sleep:        sleeper.sleep,
		},
		Gate:   gate,
		Logger: logger.NewNoOp(),
		Config: cfg,
		Sleep:  sleeper.sleep,
	})
	require.NoError(t, err)

	return &testHarness{
		collector: col,
		gate:      gate,
		outputDir: cfg.OutputDir,
		sleeper:   sleeper,
	}
}

func TestCollectDisclosures_TransientThenSuccess(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		calls int
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()

		if n <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte("CORP,AMOUNT\nACME,100.00\n"))
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "1409777", "2022"))

	data, err := os.ReadFile(filepath.Join(h.outputDir, "ut_disclosures_1409777_2022.csv"))
	require.NoError(t, err)
	require.Equal(t, "CORP,AMOUNT\nACME,100.00\n", string(data))

	summary := h.collector.Summary()
	require.Equal(t, 1, summary.Written)
	require.Empty(t, summary.Skips)

	// Two backoff sleeps for the two failed attempts.
	require.Equal(t, 2, h.sleeper.count())
}

func TestCollectDisclosures_PermanentFailureIsSkipped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "999", "2022"))

	_, err := os.Stat(filepath.Join(h.outputDir, "ut_disclosures_999_2022.csv"))
	require.True(t, os.IsNotExist(err))

	summary := h.collector.Summary()
	require.Zero(t, summary.Written)
	require.Len(t, summary.Skips, 1)
	require.Equal(t, "disclosures/999/2022", summary.Skips[0].ID)

	// Permanent failures burn no retries.
	require.Zero(t, h.sleeper.count())
}

func TestCollectDisclosures_BudgetExhaustedIsSkipped(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "1409777", "2022"))

	summary := h.collector.Summary()
	require.Len(t, summary.Skips, 1)
	require.Contains(t, summary.Skips[0].Reason, "http status 500")
}

func TestCollectDisclosures_EmptyYearWritesEmptyFile(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("There are no recorded transactions for this entity in this year."))
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "1409777", "1999"))

	data, err := os.ReadFile(filepath.Join(h.outputDir, "ut_disclosures_1409777_1999.csv"))
	require.NoError(t, err)
	require.Empty(t, data)

	require.Equal(t, 1, h.collector.Summary().Written)
}

func TestCollectDisclosures_CancellationIsFatal(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.collector.CollectDisclosures(ctx, "1409777", "2022")
	require.Error(t, err)
	require.Empty(t, h.collector.Summary().Skips)
}

// listingHandler serves a two-page entity listing whose second page
// wraps around to the first entity.
func listingHandler(t *testing.T) http.HandlerFunc {
	t.Helper()

	pages := map[string]string{
		"1": listingPage([][3]string{
			{"101", "Corporation", "ACME CORP"},
			{"102", "Political Action Committee", "GOOD GOVERNMENT PAC"},
		}),
		"2": listingPage([][3]string{
			{"103", "Political Party", "EXAMPLE PARTY"},
			{"101", "Corporation", "ACME CORP"},
		}),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		page, ok := pages[r.PostFormValue("PageNumber")]
		if !ok {
			page = pages["1"]
		}
		_, _ = w.Write([]byte(page))
	}
}

func listingPage(rows [][3]string) string {
	body := "<html><body><table><tbody>"
	for _, row := range rows {
		body += fmt.Sprintf(
			`<tr><td><a href="/Search/PublicSearch/FolderDetails/%s">%s</a></td><td>%s</td></tr>`,
			row[0], row[2], row[1])
	}
	return body + "</tbody></table></body></html>"
}

func TestCollectEntities_StopsOnWraparound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/AdvancedSearch/GetEntityReportList", listingHandler(t))

	server := httptest.NewServer(mux)
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectEntities(context.Background()))

	data, err := os.ReadFile(filepath.Join(h.outputDir, "ut_entities.csv"))
	require.NoError(t, err)
	require.Equal(t,
		"entity_id,entity_type,name\n"+
			"101,Corporation,ACME CORP\n"+
			"102,Political Action Committee,GOOD GOVERNMENT PAC\n"+
			"103,Political Party,EXAMPLE PARTY\n",
		string(data))

	// A rerun against the unchanged source is byte-identical.
	require.NoError(t, h.collector.CollectEntities(context.Background()))

	rerun, err := os.ReadFile(filepath.Join(h.outputDir, "ut_entities.csv"))
	require.NoError(t, err)
	require.Equal(t, string(data), string(rerun))
}

func TestEntityRows_AbortsAfterConsecutivePageFailures(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	_, err := h.collector.EntityRows(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "consecutive pages")

	// The failed pages are still individually recorded.
	require.Len(t, h.collector.Summary().Skips, 3)
}

func TestCollectRegistration_SkipExisting(t *testing.T) {
	t.Parallel()

	var calls int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	dir := t.TempDir()
	existing := filepath.Join(dir, "ut_registration_101.json")
	require.NoError(t, os.WriteFile(existing, []byte(`{"id":"101"}`), 0o644))

	h := newHarness(t, server.URL, collector.Config{OutputDir: dir, SkipExisting: true})

	require.NoError(t, h.collector.CollectRegistration(context.Background(), "101"))
	require.Zero(t, calls)

	// Contents are untouched.
	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, `{"id":"101"}`, string(data))
}

func TestCollectAllRegistrations_ReusesExistingListing(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		fetched []string
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/AdvancedSearch/GetEntityReportList", func(w http.ResponseWriter, _ *http.Request) {
		t.Error("listing fetched despite existing ut_entities.csv")
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/Search/PublicSearch/FolderDetails/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		fetched = append(fetched, filepath.Base(r.URL.Path))
		mu.Unlock()
		_, _ = w.Write([]byte(folderPage))
	})
	mux.HandleFunc("/Registration/EntityDetails/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailsPage))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	listing := "entity_id,entity_type,name\n101,Corporation,ACME CORP\n102,Corporation,OTHER CORP\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ut_entities.csv"), []byte(listing), 0o644))

	h := newHarness(t, server.URL, collector.Config{OutputDir: dir})

	require.NoError(t, h.collector.CollectAllRegistrations(context.Background()))
	require.Equal(t, []string{"101", "102"}, fetched)

	for _, id := range []string{"101", "102"} {
		_, err := os.Stat(filepath.Join(dir, "ut_registration_"+id+".json"))
		require.NoError(t, err)
	}

	require.Equal(t, 2, h.collector.Summary().Written)
}

const folderPage = `<html><body>
<iframe id="registrationDialogIFrame" src="/Registration/EntityDetails/101"></iframe>
</body></html>`

const detailsPage = `<html><body>
<h1>Financial Disclosures Registration for Corporation</h1>
<fieldset>
  <legend>Corporate Information</legend>
  <div class="dis-cell"><label>Name of Corporation</label>ACME CORP</div>
</fieldset>
</body></html>`

func TestCollectAllRegistrations_OneBadEntityIsSkipped(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/PublicSearch/FolderDetails/", func(w http.ResponseWriter, r *http.Request) {
		if filepath.Base(r.URL.Path) == "42" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(folderPage))
	})
	mux.HandleFunc("/Registration/EntityDetails/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailsPage))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	listing := "entity_id,entity_type,name\n" +
		"101,Corporation,A\n42,Corporation,B\n103,Corporation,C\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ut_entities.csv"), []byte(listing), 0o644))

	h := newHarness(t, server.URL, collector.Config{OutputDir: dir})

	require.NoError(t, h.collector.CollectAllRegistrations(context.Background()))

	// The bad entity burns its budget, is skipped exactly once, and
	// every other entity's file is still written.
	summary := h.collector.Summary()
	require.Equal(t, 2, summary.Written)
	require.Len(t, summary.Skips, 1)
	require.Equal(t, "registration/42", summary.Skips[0].ID)

	_, err := os.Stat(filepath.Join(dir, "ut_registration_42.json"))
	require.True(t, os.IsNotExist(err))

	for _, id := range []string{"101", "103"} {
		_, statErr := os.Stat(filepath.Join(dir, "ut_registration_"+id+".json"))
		require.NoError(t, statErr)
	}
}

func TestCollectAllRegistrations_OutageGateOpensAndRunCompletes(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/PublicSearch/FolderDetails/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	listing := "entity_id,entity_type,name\n" +
		"101,Corporation,A\n102,Corporation,B\n103,Corporation,C\n104,Corporation,D\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ut_entities.csv"), []byte(listing), 0o644))

	h := newHarness(t, server.URL, collector.Config{OutputDir: dir})

	require.NoError(t, h.collector.CollectAllRegistrations(context.Background()))

	// Every entity failed out its budget and was skipped; the run still
	// finished cleanly and the gate opened along the way.
	summary := h.collector.Summary()
	require.Zero(t, summary.Written)
	require.Len(t, summary.Skips, 4)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1) // only the pre-seeded listing

	require.NotEqual(t, outage.StateClosed, h.gate.State())
}

func TestCollectAllRegistrations_ParallelWorkers(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		fetched int
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/Search/PublicSearch/FolderDetails/", func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		fetched++
		mu.Unlock()
		_, _ = w.Write([]byte(folderPage))
	})
	mux.HandleFunc("/Registration/EntityDetails/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(detailsPage))
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	dir := t.TempDir()
	listing := "entity_id,entity_type,name\n" +
		"101,Corporation,A\n102,Corporation,B\n103,Corporation,C\n104,Corporation,D\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ut_entities.csv"), []byte(listing), 0o644))

	h := newHarness(t, server.URL, collector.Config{OutputDir: dir, Workers: 3})

	require.NoError(t, h.collector.CollectAllRegistrations(context.Background()))
	require.Equal(t, 4, fetched)
	require.Equal(t, 4, h.collector.Summary().Written)
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()

	_, err := collector.New(collector.Params{})
	require.ErrorIs(t, err, collector.ErrSiteRequired)
}

func TestSummary_SnapshotIsIndependent(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	h := newHarness(t, server.URL, collector.Config{})

	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "1", "2022"))

	first := h.collector.Summary()
	require.NoError(t, h.collector.CollectDisclosures(context.Background(), "2", "2022"))

	require.Len(t, first.Skips, 1)
	require.Len(t, h.collector.Summary().Skips, 2)
	require.NotEmpty(t, h.collector.RunID())
}
