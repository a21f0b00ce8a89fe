package convert

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nulltoken/heimdall2/detect"
	"github.com/nulltoken/heimdall2/errors"
	"github.com/nulltoken/heimdall2/notify"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures []string
	ingested []notify.Ingestion
}

func (r *recordingNotifier) Failure(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, message)
}

func (r *recordingNotifier) Ingested(event notify.Ingestion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ingested = append(r.ingested, event)
}

var _ notify.Notifier = (*recordingNotifier)(nil)

// newDispatcherWithFormats registers a fake converter per format and
// returns the dispatcher plus the fakes for call assertions.
func newDispatcherWithFormats(t *testing.T, formats ...detect.Format) (*Dispatcher, *recordingNotifier, map[detect.Format]*fakeConverter) {
	t.Helper()
	registry := NewRegistry("1.0.0")
	fakes := make(map[detect.Format]*fakeConverter, len(formats))
	for _, format := range formats {
		fake := newFakeConverter(string(format))
		require.NoError(t, registry.Register(fake))
		fakes[format] = fake
	}
	notifier := &recordingNotifier{}
	return NewDispatcher(registry, notifier), notifier, fakes
}

func TestDispatchRoutesJSONToGuessedConverter(t *testing.T) {
	d, notifier, fakes := newDispatcherWithFormats(t, detect.FormatSnyk)

	execs, err := d.Dispatch(context.Background(),
		"report.json",
		`{"vulnerabilities":[],"projectName":"x","policy":"y","summary":"z"}`,
	)
	require.NoError(t, err)

	require.Len(t, execs, 1)
	assert.Equal(t, "snyk-profile", execs[0].Profiles[0].Name)
	assert.Equal(t, 1, fakes[detect.FormatSnyk].callCount())
	assert.Empty(t, notifier.failures)
}

func TestDispatchConverterReceivesRawText(t *testing.T) {
	d, _, fakes := newDispatcherWithFormats(t, detect.FormatSarif)

	text := `{"$schema":"s","version":"2.1.0","runs":[]}`
	_, err := d.Dispatch(context.Background(), "scan.sarif", text)
	require.NoError(t, err)

	assert.Equal(t, text, fakes[detect.FormatSarif].lastText)
}

func TestDispatchMissingConverter(t *testing.T) {
	registry := NewRegistry("1.0.0")
	notifier := &recordingNotifier{}
	d := NewDispatcher(registry, notifier)

	execs, err := d.Dispatch(context.Background(),
		"scan.sarif",
		`{"$schema":"s","version":"2.1.0","runs":[]}`,
	)
	assert.Nil(t, execs)
	require.Error(t, err)
	assert.True(t, errors.IsConverterNotFoundError(err))
	assert.Contains(t, err.Error(), "sarif")

	// Missing converters are errors, not no-match notifications.
	assert.Empty(t, notifier.failures)
}

func TestDispatchConverterFailurePropagates(t *testing.T) {
	d, notifier, fakes := newDispatcherWithFormats(t, detect.FormatSnyk)
	boom := errors.New("malformed vulnerabilities block")
	fakes[detect.FormatSnyk].err = boom

	execs, err := d.Dispatch(context.Background(),
		"report.json",
		`{"vulnerabilities":[],"projectName":"x","policy":"y","summary":"z"}`,
	)
	assert.Nil(t, execs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, notifier.failures)
}

func TestDispatchNonObjectJSONStaysInFingerprintPhase(t *testing.T) {
	// Valid JSON that is not an object still commits to fingerprint
	// routing: every format scores zero and the first table entry wins.
	// The heuristic phase is reserved for text that fails to parse.
	d, notifier, fakes := newDispatcherWithFormats(t, detect.FormatASFF)

	execs, err := d.Dispatch(context.Background(), "list.json", `[1,2,3]`)
	require.NoError(t, err)
	require.Len(t, execs, 1)
	assert.Equal(t, 1, fakes[detect.FormatASFF].callCount())
	assert.Empty(t, notifier.failures)
}

func TestDispatchHeuristicRoutes(t *testing.T) {
	allHeuristic := []detect.Format{
		detect.FormatNessus, detect.FormatXCCDF, detect.FormatBurp,
		detect.FormatScoutSuite, detect.FormatDBProtect, detect.FormatNetsparker,
	}

	tests := []struct {
		name     string
		filename string
		text     string
		want     detect.Format
	}{
		{
			name:     "nessus by extension alone",
			filename: "scan.nessus",
			text:     "<NessusClientData_v2>",
			want:     detect.FormatNessus,
		},
		{
			name:     "nessus extension is case-insensitive",
			filename: "SCAN.NESSUS",
			text:     "anything at all",
			want:     detect.FormatNessus,
		},
		{
			name:     "xccdf by schema location in text",
			filename: "results.xml",
			text:     `<Benchmark xmlns="http://checklists.nist.gov/xccdf/1.2">`,
			want:     detect.FormatXCCDF,
		},
		{
			name:     "xccdf by filename substring",
			filename: "xccdf-results.xml",
			text:     "<Benchmark>",
			want:     detect.FormatXCCDF,
		},
		{
			name:     "burp by marker",
			filename: "scan.xml",
			text:     `<issues burpVersion="2023.10">`,
			want:     detect.FormatBurp,
		},
		{
			name:     "scoutsuite by marker",
			filename: "results.js",
			text:     "scoutsuite_results =\n{",
			want:     detect.FormatScoutSuite,
		},
		{
			name:     "dbprotect requires all four markers",
			filename: "export.csv",
			text:     "Policy\tJob Name\tCheck ID\tResult Status\n",
			want:     detect.FormatDBProtect,
		},
		{
			name:     "netsparker marker past offset zero",
			filename: "scan.xml",
			text:     `<report type="netsparker-enterprise">`,
			want:     detect.FormatNetsparker,
		},
		{
			name:     "priority: nessus extension beats burp marker",
			filename: "scan.nessus",
			text:     `<issues burpVersion="2023.10">`,
			want:     detect.FormatNessus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, notifier, fakes := newDispatcherWithFormats(t, allHeuristic...)

			execs, err := d.Dispatch(context.Background(), tt.filename, tt.text)
			require.NoError(t, err)
			require.Len(t, execs, 1)
			assert.Equal(t, 1, fakes[tt.want].callCount())
			assert.Empty(t, notifier.failures)

			for format, fake := range fakes {
				if format != tt.want {
					assert.Zero(t, fake.callCount(), "unexpected call to %s", format)
				}
			}
		})
	}
}

func TestDispatchNoRouteNotifiesOnce(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		text     string
	}{
		{"plain garbage", "upload.txt", "completely unroutable content"},
		{"empty text", "upload.json", ""},
		{"three of four dbprotect markers", "export.csv", "Policy\tJob Name\tCheck ID\n"},
		{"netsparker marker at offset zero", "scan.xml", "netsparker-enterprise report body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, notifier, _ := newDispatcherWithFormats(t,
				detect.FormatNessus, detect.FormatXCCDF, detect.FormatBurp,
				detect.FormatScoutSuite, detect.FormatDBProtect, detect.FormatNetsparker,
			)

			execs, err := d.Dispatch(context.Background(), tt.filename, tt.text)
			assert.NoError(t, err)
			assert.Empty(t, execs)
			require.Len(t, notifier.failures, 1)
			assert.Equal(t, NoMatchMessage, notifier.failures[0])
		})
	}
}

func TestDispatchNilNotifier(t *testing.T) {
	d := NewDispatcher(NewRegistry("1.0.0"), nil)

	// Total non-match with no notifier attached must not panic.
	execs, err := d.Dispatch(context.Background(), "upload.txt", "unroutable")
	assert.NoError(t, err)
	assert.Empty(t, execs)
}

func TestDetect(t *testing.T) {
	t.Run("fingerprint phase with scores", func(t *testing.T) {
		d, _, _ := newDispatcherWithFormats(t, detect.FormatSarif)

		result := d.Detect("scan.sarif", `{"$schema":"s","version":"2.1.0","runs":[]}`)
		assert.Equal(t, detect.FormatSarif, result.Format)
		assert.Equal(t, PhaseFingerprint, result.Phase)
		assert.True(t, result.Registered)
		assert.NotEmpty(t, result.Scores)
	})

	t.Run("fingerprint phase without converter", func(t *testing.T) {
		d := NewDispatcher(NewRegistry("1.0.0"), nil)

		result := d.Detect("scan.sarif", `{"$schema":"s","version":"2.1.0","runs":[]}`)
		assert.Equal(t, detect.FormatSarif, result.Format)
		assert.False(t, result.Registered)
	})

	t.Run("heuristic phase", func(t *testing.T) {
		d, _, _ := newDispatcherWithFormats(t, detect.FormatNessus)

		result := d.Detect("scan.nessus", "<NessusClientData_v2>")
		assert.Equal(t, detect.FormatNessus, result.Format)
		assert.Equal(t, PhaseHeuristic, result.Phase)
		assert.True(t, result.Registered)
		assert.Empty(t, result.Scores)
	})

	t.Run("no route", func(t *testing.T) {
		d := NewDispatcher(NewRegistry("1.0.0"), nil)

		result := d.Detect("upload.txt", "unroutable")
		assert.Equal(t, PhaseNone, result.Phase)
		assert.Empty(t, string(result.Format))
	})
}

func TestHeuristicRouteOrder(t *testing.T) {
	// The route table order is the priority contract.
	wantOrder := []detect.Format{
		detect.FormatNessus, detect.FormatXCCDF, detect.FormatBurp,
		detect.FormatScoutSuite, detect.FormatDBProtect, detect.FormatNetsparker,
	}
	require.Len(t, heuristicRoutes, len(wantOrder))
	for i, route := range heuristicRoutes {
		assert.Equal(t, wantOrder[i], route.format, "route %d", i)
	}
}

func TestNetsparkerOffsetQuirk(t *testing.T) {
	route := heuristicRoutes[len(heuristicRoutes)-1]
	require.Equal(t, detect.FormatNetsparker, route.format)

	assert.True(t, route.matches("scan.xml", " netsparker-enterprise"))
	assert.True(t, route.matches("scan.xml", "<x>netsparker-enterprise</x>"))

	// A marker at offset zero reports no match.
	assert.False(t, route.matches("scan.xml", "netsparker-enterprise"))
	assert.False(t, route.matches("scan.xml", "netsparker-enterprise and more"))
	assert.False(t, route.matches("scan.xml", "no marker here"))
}
