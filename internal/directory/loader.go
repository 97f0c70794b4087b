package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mesikahq/patient-dashboard/internal/audit"
	"github.com/mesikahq/patient-dashboard/internal/patient"
)

var ErrUpstreamStatus = errors.New("roster request returned a non-success status")

// LoaderConfig is the upstream roster endpoint and its fixed credentials.
type LoaderConfig struct {
	URL      string
	Username string
	Password string
	// Timeout bounds the roster request. Zero applies no timeout.
	Timeout time.Duration
}

// Loader performs the single roster request of the process lifetime.
type Loader struct {
	httpClient *resty.Client
	url        string
	logger     *zap.Logger
	audit      audit.Service
	once       sync.Once
}

// NewLoader creates a loader. audit may be nil.
func NewLoader(cfg LoaderConfig, logger *zap.Logger, auditService audit.Service) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0).
		SetLogger(logger.Sugar()).
		SetBasicAuth(cfg.Username, cfg.Password).
		SetHeader("Accept", "application/json")

	return &Loader{
		httpClient: client,
		url:        cfg.URL,
		logger:     logger,
		audit:      auditService,
	}
}

// Load fetches and decodes the roster. It does not touch any State.
func (l *Loader) Load(ctx context.Context) ([]patient.Patient, error) {
	resp, err := l.httpClient.R().
		SetContext(ctx).
		Get(l.url)
	if err != nil {
		return nil, fmt.Errorf("failed to call roster API: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode())
	}

	return patient.Decode(resp.Body())
}

// Run loads the roster once and applies the outcome to state. Failures are
// logged and recorded on the state; they never reach the caller. Calls after
// the first are ignored.
func (l *Loader) Run(ctx context.Context, state *State) {
	l.once.Do(func() {
		start := time.Now()
		roster, err := l.Load(ctx)
		if err != nil {
			l.logger.Error("Error fetching patients",
				zap.String("url", l.url),
				zap.Duration("latency", time.Since(start)),
				zap.Error(err),
			)
			state.fail(err)
			l.record(ctx, "failure", map[string]interface{}{"reason": err.Error()})
			return
		}

		state.complete(roster)
		l.logger.Info("Patient roster loaded",
			zap.Int("patient_count", len(roster)),
			zap.String("selected_id", roster[0].ID),
			zap.Duration("latency", time.Since(start)),
		)
		l.record(ctx, "success", map[string]interface{}{"patient_count": len(roster)})
	})
}

func (l *Loader) record(ctx context.Context, status string, details map[string]interface{}) {
	if l.audit == nil {
		return
	}

	raw, err := json.Marshal(details)
	if err != nil {
		raw = nil
	}

	if err := l.audit.LogEvent(context.WithoutCancel(ctx), &audit.AuditEvent{
		EventType:   audit.EventLoad,
		Action:      "LOAD",
		Resource:    "patient_roster",
		Status:      status,
		Details:     raw,
		Sensitivity: "PHI",
	}); err != nil {
		l.logger.Warn("Failed to record audit event", zap.Error(err))
	}
}
