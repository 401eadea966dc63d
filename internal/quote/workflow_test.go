package quote

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/sitequote/internal/pricing"
	"github.com/wolfman30/sitequote/pkg/logging"
)

type recordingNotifier struct {
	mu    sync.Mutex
	leads []Lead
	err   error
}

func (n *recordingNotifier) NotifyLead(ctx context.Context, lead Lead) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.leads = append(n.leads, lead)
	return n.err
}

func (n *recordingNotifier) calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.leads)
}

type toastRecorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *toastRecorder) Present(ctx context.Context, toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, toast)
}

var fixedNow = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

func newTestWorkflow(n Notifier) *Workflow {
	return NewWorkflow(pricing.NewEstimator(nil), n, logging.Default()).
		WithClock(func() time.Time { return fixedNow })
}

func TestNewWorkflowStartsEmpty(t *testing.T) {
	w := newTestWorkflow(nil)

	assert.Equal(t, StateEditing, w.State())
	assert.Equal(t, pricing.Selection{NumPages: 1}, w.Selection())
	assert.False(t, w.IsValid())
	assert.Equal(t, 0, w.Progress())
}

func TestPagesNeverLeaveBounds(t *testing.T) {
	w := newTestWorkflow(nil)

	for i := 0; i < 25; i++ {
		w.IncrementPages()
	}
	assert.Equal(t, 10, w.Selection().NumPages)
	assert.False(t, w.IncrementPages(), "increment at max must be a no-op")

	for i := 0; i < 25; i++ {
		w.DecrementPages()
	}
	assert.Equal(t, 1, w.Selection().NumPages)
	assert.False(t, w.DecrementPages(), "decrement at 1 must be a no-op")

	assert.Equal(t, 10, w.SetPages(99))
	assert.Equal(t, 1, w.SetPages(-4))
	assert.Equal(t, 4, w.SetPages(4))
}

func TestProgress(t *testing.T) {
	w := newTestWorkflow(nil)

	w.SelectType("custom")
	w.SetDescription("short")
	assert.Equal(t, 50, w.Progress())

	w.SetDescription("a shop for handmade ceramics")
	assert.Equal(t, 100, w.Progress())

	w.SelectType("")
	assert.Equal(t, 0, w.Progress())
}

func TestSelectTypeKeepsDescription(t *testing.T) {
	w := newTestWorkflow(nil)
	w.SelectType("custom")
	w.SetDescription("membership site with forum")
	w.SelectType("blog")

	assert.Equal(t, "membership site with forum", w.Selection().CustomDescription)
	assert.True(t, w.IsValid())
}

func TestSetDescriptionCapsLength(t *testing.T) {
	w := newTestWorkflow(nil)
	w.SelectType("custom")

	w.SetDescription(strings.Repeat("é", pricing.MaxCustomDescriptionLen+500))
	got := w.Selection().CustomDescription
	assert.Equal(t, pricing.MaxCustomDescriptionLen, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, w.IsValid())

	exact := strings.Repeat("x", pricing.MaxCustomDescriptionLen)
	w.SetDescription(exact)
	assert.Equal(t, exact, w.Selection().CustomDescription)
}

func TestSubmitInvalidSelectionIsSilentNoop(t *testing.T) {
	n := &recordingNotifier{}
	toasts := &toastRecorder{}
	w := newTestWorkflow(n).WithPresenter(toasts)

	res := w.Submit(context.Background(), nil)
	assert.False(t, res.Accepted)
	assert.Equal(t, StateEditing, w.State())

	w.SelectType("custom")
	w.SetDescription("123456789")
	res = w.Submit(context.Background(), nil)
	assert.False(t, res.Accepted)
	assert.Equal(t, StateEditing, w.State())

	assert.Zero(t, n.calls())
	assert.Empty(t, toasts.toasts)
	assert.Nil(t, w.View().Estimate)
}

func TestSubmitSuccess(t *testing.T) {
	n := &recordingNotifier{}
	toasts := &toastRecorder{}
	w := newTestWorkflow(n).WithPresenter(toasts)

	w.SelectType("ecommerce")
	w.SetPages(5)
	meta := map[string]string{"user_agent": "test"}
	res := w.Submit(context.Background(), meta)

	require.True(t, res.Accepted)
	assert.True(t, res.NotificationSent)
	assert.Equal(t, pricing.Estimate{Price: 510, DeliveryDays: 16}, res.Estimate)
	assert.Equal(t, StateSubmitted, w.State())

	require.Equal(t, 1, n.calls())
	lead := n.leads[0]
	assert.Equal(t, "ecommerce", lead.WebsiteType)
	assert.Equal(t, "E-commerce", lead.Label)
	assert.Equal(t, 5, lead.NumPages)
	assert.Equal(t, int64(510), lead.Price)
	assert.Equal(t, 16, lead.DeliveryDays)
	assert.Equal(t, fixedNow, lead.SubmittedAt)
	assert.Equal(t, "test", lead.ClientMetadata["user_agent"])

	meta["user_agent"] = "mutated"
	assert.Equal(t, "test", lead.ClientMetadata["user_agent"])

	view := w.View()
	require.NotNil(t, view.Estimate)
	assert.Equal(t, int64(510), view.Estimate.Price)
	assert.True(t, view.NotificationSent)
	require.NotNil(t, view.SubmittedAt)
	assert.Equal(t, fixedNow, *view.SubmittedAt)

	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, ToastSuccess, toasts.toasts[0].Level)
}

func TestSubmitCustomDescriptionOnlyForCustomType(t *testing.T) {
	n := &recordingNotifier{}
	w := newTestWorkflow(n)
	w.SetDescription("left over from before")
	w.SelectType("landing")
	require.True(t, w.Submit(context.Background(), nil).Accepted)
	assert.Empty(t, n.leads[0].CustomDescription)

	require.True(t, w.Reset())
	w.SelectType("custom")
	w.SetDescription("booking portal for a dog groomer")
	require.True(t, w.Submit(context.Background(), nil).Accepted)
	assert.Equal(t, "booking portal for a dog groomer", n.leads[1].CustomDescription)
}

func TestSubmitNotificationFailureStillSubmits(t *testing.T) {
	n := &recordingNotifier{err: errors.New("smtp down")}
	toasts := &toastRecorder{}
	w := newTestWorkflow(n).WithPresenter(toasts)
	w.SelectType("landing")

	res := w.Submit(context.Background(), nil)
	assert.True(t, res.Accepted)
	assert.False(t, res.NotificationSent)
	assert.Equal(t, pricing.Estimate{Price: 50, DeliveryDays: 5}, res.Estimate)
	assert.Equal(t, StateSubmitted, w.State())
	assert.False(t, w.View().NotificationSent)

	require.Len(t, toasts.toasts, 1)
	assert.Equal(t, ToastWarning, toasts.toasts[0].Level)
}

func TestSubmitNotifierPanicIsRecovered(t *testing.T) {
	w := newTestWorkflow(NotifierFunc(func(ctx context.Context, lead Lead) error {
		panic("boom")
	}))
	w.SelectType("blog")

	res := w.Submit(context.Background(), nil)
	assert.True(t, res.Accepted)
	assert.False(t, res.NotificationSent)
	assert.Equal(t, StateSubmitted, w.State())
}

func TestSubmitWithoutNotifier(t *testing.T) {
	w := newTestWorkflow(nil)
	w.SelectType("blog")

	res := w.Submit(context.Background(), nil)
	assert.True(t, res.Accepted)
	assert.False(t, res.NotificationSent)
	assert.Equal(t, StateSubmitted, w.State())
}

func TestSubmitHungNotifierTimesOut(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	w := newTestWorkflow(NotifierFunc(func(ctx context.Context, lead Lead) error {
		<-release
		return nil
	})).WithNotifyTimeout(20 * time.Millisecond)
	w.SelectType("portfolio")

	start := time.Now()
	res := w.Submit(context.Background(), nil)
	assert.True(t, res.Accepted)
	assert.False(t, res.NotificationSent)
	assert.Equal(t, StateSubmitted, w.State())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestSubmitDetachesFromCallerCancellation(t *testing.T) {
	var sawDeadline bool
	var ctxErr error
	w := newTestWorkflow(NotifierFunc(func(ctx context.Context, lead Lead) error {
		_, sawDeadline = ctx.Deadline()
		ctxErr = ctx.Err()
		return nil
	}))
	w.SelectType("landing")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := w.Submit(ctx, nil)
	assert.True(t, res.NotificationSent)
	assert.True(t, sawDeadline)
	assert.NoError(t, ctxErr)
}

func TestSubmitInFlightGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	n := &recordingNotifier{}
	w := newTestWorkflow(NotifierFunc(func(ctx context.Context, lead Lead) error {
		close(started)
		<-release
		return n.NotifyLead(ctx, lead)
	}))
	w.SelectType("landing")

	var first SubmissionResult
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = w.Submit(context.Background(), nil)
	}()

	<-started
	assert.Equal(t, StateNotifying, w.State())
	second := w.Submit(context.Background(), nil)
	assert.False(t, second.Accepted)
	assert.False(t, w.Reset(), "reset must be refused while notifying")

	close(release)
	wg.Wait()

	assert.True(t, first.Accepted)
	assert.Equal(t, 1, n.calls())
	assert.Equal(t, StateSubmitted, w.State())

	third := w.Submit(context.Background(), nil)
	assert.False(t, third.Accepted, "submitted workflow only leaves via reset")
	assert.Equal(t, 1, n.calls())
}

func TestPinnedEstimateSurvivesLaterEdits(t *testing.T) {
	w := newTestWorkflow(&recordingNotifier{})
	w.SelectType("landing")
	require.True(t, w.Submit(context.Background(), nil).Accepted)

	w.IncrementPages()
	w.SelectType("ecommerce")

	view := w.View()
	require.NotNil(t, view.Estimate)
	assert.Equal(t, pricing.Estimate{Price: 50, DeliveryDays: 5}, *view.Estimate)
	assert.Equal(t, int64(225), view.Price)
	assert.Equal(t, StateSubmitted, view.State)
}

func TestResetAfterSubmit(t *testing.T) {
	w := newTestWorkflow(&recordingNotifier{})
	w.SelectType("custom")
	w.SetDescription("an online course platform")
	w.SetPages(3)
	require.True(t, w.Submit(context.Background(), nil).Accepted)

	require.True(t, w.Reset())

	assert.Equal(t, StateEditing, w.State())
	assert.Equal(t, pricing.Selection{NumPages: 1}, w.Selection())
	view := w.View()
	assert.Nil(t, view.Estimate)
	assert.Nil(t, view.SubmittedAt)
	assert.False(t, view.NotificationSent)
	assert.Equal(t, 0, view.Progress)
}

func TestViewProjection(t *testing.T) {
	w := newTestWorkflow(nil)
	w.SelectType("custom")
	w.SetDescription("tiny")

	view := w.View()
	assert.Equal(t, StateEditing, view.State)
	assert.True(t, view.ShowCustomInput)
	assert.False(t, view.Valid)
	assert.Equal(t, 50, view.Progress)
	assert.Equal(t, "Custom", view.Label)
	assert.Equal(t, int64(150), view.Price)
	assert.Equal(t, 21, view.DeliveryDays)
	assert.Equal(t, 10, view.MaxPages)
}

func TestSnapshotRestore(t *testing.T) {
	w := newTestWorkflow(&recordingNotifier{})
	w.SelectType("blog")
	w.SetPages(4)
	require.True(t, w.Submit(context.Background(), map[string]string{"referrer": "/pricing"}).Accepted)

	snap := w.Snapshot()
	assert.Equal(t, StateSubmitted, snap.State)
	require.NotNil(t, snap.Lead)

	restored := newTestWorkflow(nil)
	restored.Restore(snap)
	assert.Equal(t, StateSubmitted, restored.State())
	assert.Equal(t, w.View(), restored.View())

	snap.State = StateNotifying
	restored.Restore(snap)
	assert.Equal(t, StateEditing, restored.State())
	assert.Nil(t, restored.View().Estimate)
	assert.Equal(t, 4, restored.Selection().NumPages)

	restored.Restore(Snapshot{State: "bogus", Selection: pricing.Selection{WebsiteTypeID: "blog", NumPages: 40}})
	assert.Equal(t, StateEditing, restored.State())
	assert.Equal(t, 10, restored.Selection().NumPages)
}

func TestStateValid(t *testing.T) {
	assert.True(t, StateSubmitted.Valid())
	assert.False(t, State("paused").Valid())
	assert.Equal(t, "notifying", StateNotifying.String())
}
