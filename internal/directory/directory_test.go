package directory

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

type recordingAudit struct {
	mu     sync.Mutex
	events []audit.AuditEvent
}

func (r *recordingAudit) LogEvent(_ context.Context, event *audit.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *recordingAudit) QueryEvents(context.Context, map[string]interface{}, int, int) ([]audit.AuditEvent, error) {
	return nil, audit.ErrIndexDisabled
}

func rosterFixture(t *testing.T) []byte {
	t.Helper()
	body, err := os.ReadFile("testdata/roster.json")
	require.NoError(t, err)
	return body
}

type upstream struct {
	*httptest.Server
	calls      atomic.Int32
	authHeader atomic.Value
}

func newUpstream(t *testing.T, status int, body []byte) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.authHeader.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(u.Close)
	return u
}

func runLoader(t *testing.T, url string) (*State, *recordingAudit) {
	t.Helper()
	rec := &recordingAudit{}
	state := NewState()
	loader := NewLoader(LoaderConfig{URL: url, Username: "coalition", Password: "skills-test"}, nil, rec)
	loader.Run(context.Background(), state)
	return state, rec
}

func assertFailedState(t *testing.T, state *State) {
	t.Helper()
	snap := state.Snapshot()
	assert.Equal(t, StatusFailed, snap.Status)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Patients)
	assert.Nil(t, snap.Selected)
	_, ok := state.Selected()
	assert.False(t, ok)
}

func TestNewState_IsLoading(t *testing.T) {
	state := NewState()
	assert.True(t, state.Loading())
	assert.Equal(t, StatusLoading, state.Status())

	snap := state.Snapshot()
	assert.Empty(t, snap.Patients)
	assert.Nil(t, snap.Selected)
}

func TestRun_Success(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, rosterFixture(t))
	state, rec := runLoader(t, srv.URL)

	snap := state.Snapshot()
	require.Len(t, snap.Patients, 2)
	assert.Equal(t, StatusLoaded, snap.Status)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, snap.Patients[0], *snap.Selected)
	assert.Equal(t, "Jane Doe", snap.Selected.Name)
	assert.Equal(t, "John Roe", snap.Patients[1].Name)

	require.Len(t, rec.events, 1)
	assert.Equal(t, audit.EventLoad, rec.events[0].EventType)
	assert.Equal(t, "success", rec.events[0].Status)
}

func TestRun_SendsBasicAuth(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, rosterFixture(t))
	runLoader(t, srv.URL)

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("coalition:skills-test"))
	assert.Equal(t, want, srv.authHeader.Load())
}

func TestRun_FailurePaths(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"unauthorized"}`},
		{"server error", http.StatusInternalServerError, `oops`},
		{"empty roster", http.StatusOK, `[]`},
		{"object payload", http.StatusOK, `{"patients":[]}`},
		{"malformed json", http.StatusOK, `[{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newUpstream(t, tt.status, []byte(tt.body))
			state, rec := runLoader(t, srv.URL)

			assertFailedState(t, state)
			assert.NotEmpty(t, state.Snapshot().Failure)
			require.Len(t, rec.events, 1)
			assert.Equal(t, "failure", rec.events[0].Status)
		})
	}
}

func TestRun_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	state, _ := runLoader(t, url)
	assertFailedState(t, state)
}

func TestRun_OnlyOnce(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, rosterFixture(t))
	state := NewState()
	loader := NewLoader(LoaderConfig{URL: srv.URL}, nil, nil)

	loader.Run(context.Background(), state)
	loader.Run(context.Background(), state)

	assert.Equal(t, int32(1), srv.calls.Load())
	assert.Len(t, state.Snapshot().Patients, 2)
}

func TestLoad_ReturnsError(t *testing.T) {
	srv := newUpstream(t, http.StatusUnauthorized, nil)
	loader := NewLoader(LoaderConfig{URL: srv.URL}, nil, nil)

	roster, err := loader.Load(context.Background())
	assert.Nil(t, roster)
	assert.ErrorIs(t, err, ErrUpstreamStatus)

	srv = newUpstream(t, http.StatusOK, []byte(`[]`))
	loader = NewLoader(LoaderConfig{URL: srv.URL}, nil, nil)
	_, err = loader.Load(context.Background())
	assert.ErrorIs(t, err, patient.ErrEmptyRoster)
}

func TestLoad_CancelledContext(t *testing.T) {
	srv := newUpstream(t, http.StatusOK, rosterFixture(t))
	loader := NewLoader(LoaderConfig{URL: srv.URL}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loader.Load(ctx)
	assert.Error(t, err)
}

func TestState_TerminalStatusIsFinal(t *testing.T) {
	state := NewState()
	assert.True(t, state.fail(ErrUpstreamStatus))
	assert.False(t, state.complete([]patient.Patient{{ID: "a", Name: "Jane Doe"}}))
	assertFailedState(t, state)
}

func TestState_CompleteWithEmptyRosterFails(t *testing.T) {
	state := NewState()
	state.complete(nil)
	assertFailedState(t, state)
}

func loadedState(t *testing.T) *State {
	t.Helper()
	roster, err := patient.Decode(rosterFixture(t))
	require.NoError(t, err)
	state := NewState()
	require.True(t, state.complete(roster))
	return state
}

func TestSelect_Idempotent(t *testing.T) {
	state := loadedState(t)
	john := state.Snapshot().Patients[1]

	state.Select(john)
	once := state.Snapshot()
	state.Select(john)
	twice := state.Snapshot()

	assert.Equal(t, john, *once.Selected)
	assert.Equal(t, once, twice)
}

func TestSelect_ReflectsNewRecordOnly(t *testing.T) {
	state := loadedState(t)
	roster := state.Snapshot().Patients

	state.Select(roster[1])
	selected, ok := state.Selected()
	require.True(t, ok)
	assert.Equal(t, roster[1], selected)
	assert.NotEqual(t, roster[0].DiagnosisHistory, selected.DiagnosisHistory)
}

func TestSelect_RecordOutsideRoster(t *testing.T) {
	state := loadedState(t)
	stranger := patient.Patient{Name: "Walk In"}

	state.Select(stranger)
	selected, ok := state.Selected()
	require.True(t, ok)
	assert.Equal(t, "Walk In", selected.Name)

	// Selecting a roster entry afterwards drops the stray record.
	first := state.Snapshot().Patients[0]
	state.Select(first)
	selected, _ = state.Selected()
	assert.Equal(t, first, selected)
}

func TestSelectByID(t *testing.T) {
	state := loadedState(t)
	roster := state.Snapshot().Patients

	got, err := state.SelectByID(roster[1].ID)
	require.NoError(t, err)
	assert.Equal(t, roster[1], got)

	_, err = state.SelectByID("missing")
	assert.ErrorIs(t, err, ErrPatientNotFound)
	selected, _ := state.Selected()
	assert.Equal(t, roster[1].ID, selected.ID)
}

func TestSelectByID_NotLoaded(t *testing.T) {
	state := NewState()
	_, err := state.SelectByID("anything")
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestSnapshot_IsACopy(t *testing.T) {
	state := loadedState(t)
	snap := state.Snapshot()
	snap.Patients[0].Name = "changed"
	snap.Selected.LabResults[0] = "changed"

	fresh := state.Snapshot()
	assert.Equal(t, "Jane Doe", fresh.Patients[0].Name)
	assert.Equal(t, "Blood Tests", fresh.Selected.LabResults[0])
}

func TestState_ConcurrentSelection(t *testing.T) {
	state := loadedState(t)
	roster := state.Snapshot().Patients

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = state.SelectByID(roster[i%len(roster)].ID)
			_ = state.Snapshot()
		}(i)
	}
	wg.Wait()

	selected, ok := state.Selected()
	require.True(t, ok)
	assert.Contains(t, []string{roster[0].ID, roster[1].ID}, selected.ID)
}
