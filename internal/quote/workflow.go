// Package quote drives a visitor's quote request from editing through
// submission and operator notification.
package quote

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/pkg/logging"
)

// DefaultNotifyTimeout bounds the single notification attempt.
const DefaultNotifyTimeout = 5 * time.Second

// ErrNotifierMissing is reported when a workflow has no notifier configured.
var ErrNotifierMissing = errors.New("quote: notifier not configured")

// Workflow is one visitor's quote state machine. All methods are safe for
// concurrent use; at most one Submit is in flight at a time.
type Workflow struct {
	estimator     *pricing.Estimator
	notifier      Notifier
	presenter     Presenter
	logger        *logging.Logger
	clock         func() time.Time
	notifyTimeout time.Duration

	mu               sync.Mutex
	state            State
	selection        pricing.Selection
	pinned           *pricing.Estimate
	lead             *Lead
	notificationSent bool
}

// NewWorkflow creates a workflow in the Editing state with an empty selection.
func NewWorkflow(estimator *pricing.Estimator, notifier Notifier, logger *logging.Logger) *Workflow {
	if estimator == nil {
		estimator = pricing.NewEstimator(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Workflow{
		estimator:     estimator,
		notifier:      notifier,
		logger:        logger,
		clock:         time.Now,
		notifyTimeout: DefaultNotifyTimeout,
		state:         StateEditing,
		selection:     emptySelection(),
	}
}

// WithPresenter sets where submission toasts are shown.
func (w *Workflow) WithPresenter(p Presenter) *Workflow {
	w.presenter = p
	return w
}

// WithClock overrides the submission timestamp source.
func (w *Workflow) WithClock(clock func() time.Time) *Workflow {
	if clock != nil {
		w.clock = clock
	}
	return w
}

// WithNotifyTimeout overrides the notification deadline.
func (w *Workflow) WithNotifyTimeout(d time.Duration) *Workflow {
	if d > 0 {
		w.notifyTimeout = d
	}
	return w
}

func emptySelection() pricing.Selection {
	return pricing.Selection{NumPages: 1}
}

// State returns the current workflow state.
func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Selection returns a copy of the current selection.
func (w *Workflow) Selection() pricing.Selection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selection
}

// SelectType sets the website type. The stored custom description is kept
// even when the new type does not use it.
func (w *Workflow) SelectType(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.WebsiteTypeID = id
}

// SetDescription replaces the custom description text, keeping at most
// pricing.MaxCustomDescriptionLen runes.
func (w *Workflow) SetDescription(text string) {
	if utf8.RuneCountInString(text) > pricing.MaxCustomDescriptionLen {
		text = string([]rune(text)[:pricing.MaxCustomDescriptionLen])
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.CustomDescription = text
}

// IncrementPages adds a page unless the maximum is reached. It reports
// whether the count changed.
func (w *Workflow) IncrementPages() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selection.NumPages >= w.estimator.MaxPages() {
		return false
	}
	w.selection.NumPages++
	return true
}

// DecrementPages removes a page unless only one is left. It reports whether
// the count changed.
func (w *Workflow) DecrementPages() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selection.NumPages <= 1 {
		return false
	}
	w.selection.NumPages--
	return true
}

// SetPages sets the page count, clamped to the catalog bounds, and returns
// the stored value.
func (w *Workflow) SetPages(n int) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selection.NumPages = pricing.ClampPages(n, w.estimator.MaxPages())
	return w.selection.NumPages
}

// IsValid reports whether the current selection may be submitted.
func (w *Workflow) IsValid() bool {
	return w.estimator.IsValid(w.Selection())
}

// Progress is 50 for a chosen website type plus 50 for a valid selection.
func (w *Workflow) Progress() int {
	return progress(w.estimator, w.Selection())
}

func progress(e *pricing.Estimator, sel pricing.Selection) int {
	p := 0
	if sel.WebsiteTypeID != "" {
		p += 50
	}
	if e.IsValid(sel) {
		p += 50
	}
	return p
}

// Submit validates the selection, pins its estimate and makes exactly one
// notification attempt. Invalid selections and calls made outside the
// Editing state are ignored and return a result with Accepted false. The
// workflow reaches Submitted whether or not the notification succeeds.
func (w *Workflow) Submit(ctx context.Context, meta map[string]string) SubmissionResult {
	w.mu.Lock()
	if w.state != StateEditing {
		state := w.state
		w.mu.Unlock()
		w.logger.Debug("quote submit ignored", "state", state)
		return SubmissionResult{}
	}

	w.state = StateValidating
	sel := w.selection
	if !w.estimator.IsValid(sel) {
		w.state = StateEditing
		w.mu.Unlock()
		w.logger.Debug("quote submit rejected", "outcome", StateInvalid, "website_type", sel.WebsiteTypeID, "num_pages", sel.NumPages)
		return SubmissionResult{}
	}

	w.state = StateEstimating
	est := w.estimator.Estimate(sel)
	lead := Lead{
		WebsiteType:    sel.WebsiteTypeID,
		Label:          w.estimator.Label(sel.WebsiteTypeID),
		NumPages:       sel.NumPages,
		Price:          est.Price,
		DeliveryDays:   est.DeliveryDays,
		SubmittedAt:    w.clock().UTC(),
		ClientMetadata: maps.Clone(meta),
	}
	if sel.WebsiteTypeID == pricing.CustomTypeID {
		lead.CustomDescription = sel.CustomDescription
	}
	w.pinned = &est
	w.lead = &lead
	w.state = StateNotifying
	w.mu.Unlock()

	err := w.notify(ctx, lead)
	sent := err == nil
	if err != nil {
		w.logger.Warn("quote notification failed", "error", err, "website_type", lead.WebsiteType, "price", lead.Price)
	} else {
		w.logger.Info("quote submitted", "website_type", lead.WebsiteType, "num_pages", lead.NumPages, "price", lead.Price, "delivery_days", lead.DeliveryDays)
	}

	w.mu.Lock()
	w.notificationSent = sent
	w.state = StateSubmitted
	w.mu.Unlock()

	if w.presenter != nil {
		if sent {
			w.presenter.Present(ctx, Toast{Level: ToastSuccess, Message: submittedMessage})
		} else {
			w.presenter.Present(ctx, Toast{Level: ToastWarning, Message: notifyFailedMessage})
		}
	}

	return SubmissionResult{
		Accepted:         true,
		NotificationSent: sent,
		Estimate:         est,
		Lead:             &lead,
	}
}

// notify runs the notifier once under the notify timeout. The attempt is
// detached from the caller's cancellation so a dropped client does not
// abort it; a notifier that ignores its context is abandoned at the deadline.
func (w *Workflow) notify(ctx context.Context, lead Lead) error {
	if w.notifier == nil {
		return ErrNotifierMissing
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.notifyTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("quote: notifier panic: %v", r)
			}
		}()
		done <- w.notifier.NotifyLead(ctx, lead)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("quote: notify: %w", ctx.Err())
	}
}

// Reset clears the selection and pinned estimate and returns to Editing.
// It is refused while a notification is in flight.
func (w *Workflow) Reset() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateNotifying {
		return false
	}
	w.selection = emptySelection()
	w.pinned = nil
	w.lead = nil
	w.notificationSent = false
	w.state = StateEditing
	return true
}

// View is the read projection consumed by the presentation layer.
type View struct {
	State            State             `json:"state"`
	Selection        pricing.Selection `json:"selection"`
	MaxPages         int               `json:"max_pages"`
	ShowCustomInput  bool              `json:"show_custom_input"`
	Valid            bool              `json:"valid"`
	Progress         int               `json:"progress"`
	Label            string            `json:"label"`
	Price            int64             `json:"price"`
	DeliveryDays     int               `json:"delivery_days"`
	Estimate         *pricing.Estimate `json:"estimate,omitempty"`
	NotificationSent bool              `json:"notification_sent"`
	SubmittedAt      *time.Time        `json:"submitted_at,omitempty"`
}

// View projects the current workflow state. Price and DeliveryDays follow
// the live selection; Estimate is the value pinned at submission.
func (w *Workflow) View() View {
	w.mu.Lock()
	sel := w.selection
	v := View{
		State:            w.state,
		Selection:        sel,
		NotificationSent: w.notificationSent,
	}
	if w.pinned != nil {
		pinned := *w.pinned
		v.Estimate = &pinned
	}
	if w.lead != nil {
		at := w.lead.SubmittedAt
		v.SubmittedAt = &at
	}
	w.mu.Unlock()

	v.MaxPages = w.estimator.MaxPages()
	v.ShowCustomInput = sel.WebsiteTypeID == pricing.CustomTypeID
	v.Valid = w.estimator.IsValid(sel)
	v.Progress = progress(w.estimator, sel)
	v.Label = w.estimator.Label(sel.WebsiteTypeID)
	v.Price = w.estimator.CalculatePrice(sel)
	v.DeliveryDays = w.estimator.CalculateDeliveryDays(sel)
	return v
}

// Snapshot is the serializable workflow state.
type Snapshot struct {
	State            State             `json:"state"`
	Selection        pricing.Selection `json:"selection"`
	Estimate         *pricing.Estimate `json:"estimate,omitempty"`
	Lead             *Lead             `json:"lead,omitempty"`
	NotificationSent bool              `json:"notification_sent"`
}

// Snapshot captures the workflow for storage.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		State:            w.state,
		Selection:        w.selection,
		NotificationSent: w.notificationSent,
	}
	if w.pinned != nil {
		pinned := *w.pinned
		s.Estimate = &pinned
	}
	if w.lead != nil {
		lead := *w.lead
		lead.ClientMetadata = maps.Clone(w.lead.ClientMetadata)
		s.Lead = &lead
	}
	return s
}

// Restore loads a snapshot. Only a Submitted snapshot keeps its pinned
// estimate; anything caught mid-submission comes back as Editing.
func (w *Workflow) Restore(s Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.selection = s.Selection
	w.selection.NumPages = pricing.ClampPages(s.Selection.NumPages, w.estimator.MaxPages())
	w.pinned = nil
	w.lead = nil
	w.notificationSent = false
	w.state = StateEditing

	if s.State == StateSubmitted && s.Estimate != nil {
		pinned := *s.Estimate
		w.pinned = &pinned
		if s.Lead != nil {
			lead := *s.Lead
			w.lead = &lead
		}
		w.notificationSent = s.NotificationSent
		w.state = StateSubmitted
	}
}
