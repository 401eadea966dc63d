package quote

import "context"

// ToastLevel classifies a transient message.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastWarning ToastLevel = "warning"
)

// Toast is a short-lived message for the visitor.
type Toast struct {
	Level   ToastLevel `json:"level"`
	Message string     `json:"message"`
}

// Presenter shows transient messages to whoever drives the workflow.
type Presenter interface {
	Present(ctx context.Context, toast Toast)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, toast Toast)

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, toast Toast) {
	f(ctx, toast)
}

const (
	submittedMessage    = "Thanks! Your quote request is in. We'll be in touch shortly."
	notifyFailedMessage = "Your quote request was saved, but we couldn't alert the team right away. We'll still follow up."
)
