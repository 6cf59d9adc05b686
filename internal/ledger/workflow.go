package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DeleteState is the state of the deletion workflow.
type DeleteState int

const (
	DeleteIdle DeleteState = iota
	DeleteConfirming
	DeleteRequesting
	DeleteSucceeded
	DeleteFailed
)

func (s DeleteState) String() string {
	switch s {
	case DeleteIdle:
		return "idle"
	case DeleteConfirming:
		return "confirming"
	case DeleteRequesting:
		return "requesting"
	case DeleteSucceeded:
		return "succeeded"
	case DeleteFailed:
		return "failed"
	}
	return fmt.Sprintf("DeleteState(%d)", int(s))
}

// Deleter issues the deletion RPC.
type Deleter interface {
	// DeleteTransaction deletes id. It returns *RequestError on transport
	// failure and *ServerRejection when the server refuses.
	DeleteTransaction(ctx context.Context, id, token string) error
}

// TokenSource supplies the anti-forgery token sent with each deletion.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Workflow drives one deletion at a time:
// Idle → Confirming → Requesting → Succeeded | Failed.
// Start, Confirm and Complete must be called from the page's event loop;
// DeleteRequest.Do may run elsewhere.
type Workflow struct {
	registry *Registry
	clock    *Clock
	deleter  Deleter
	tokens   TokenSource
	notifier Notifier
	log      zerolog.Logger

	state  DeleteState
	target string
	err    error
}

// NewWorkflow wires a workflow to the page's registry and clock.
func NewWorkflow(registry *Registry, clock *Clock, deleter Deleter, tokens TokenSource, notifier Notifier, log zerolog.Logger) *Workflow {
	if notifier == nil {
		notifier = NotifierFuncs{}
	}
	return &Workflow{
		registry: registry,
		clock:    clock,
		deleter:  deleter,
		tokens:   tokens,
		notifier: notifier,
		log:      log,
	}
}

// State returns the current workflow state.
func (w *Workflow) State() DeleteState {
	return w.state
}

// Target returns the id of the deletion in progress, if any.
func (w *Workflow) Target() string {
	return w.target
}

// Err returns the failure of the last deletion, if it failed.
func (w *Workflow) Err() error {
	return w.err
}

// Start moves to Confirming for id. Rows that are no longer eligible are refused
// with ErrExpired and an expired notice; the workflow stays Idle.
func (w *Workflow) Start(id string) error {
	if w.state == DeleteConfirming || w.state == DeleteRequesting {
		return ErrBusy
	}
	w.reset()

	if _, ok := w.registry.Get(id); !ok {
		return fmt.Errorf("Start: %w: %s", ErrNotFound, id)
	}
	if err := w.checkEligible(id); err != nil {
		return err
	}

	w.state = DeleteConfirming
	w.target = id
	return nil
}

// Confirm answers the pending confirmation. A negative answer returns to Idle
// with no side effects and ErrCancelled. A positive answer re-checks the window, moves to
// Requesting and returns the single request to execute.
func (w *Workflow) Confirm(ok bool) (*DeleteRequest, error) {
	if w.state != DeleteConfirming {
		return nil, ErrNoPending
	}
	id := w.target
	if !ok {
		w.reset()
		return nil, ErrCancelled
	}
	if err := w.checkEligible(id); err != nil {
		w.reset()
		return nil, err
	}

	w.state = DeleteRequesting
	w.log.Info().Str("transaction_id", id).Msg("Requesting deletion")
	return &DeleteRequest{ID: id, deleter: w.deleter, tokens: w.tokens}, nil
}

// Complete applies the outcome of the request started by Confirm.
// On success the record leaves the registry and the clock; on failure nothing changes.
func (w *Workflow) Complete(res DeleteResult) error {
	if w.state != DeleteRequesting || res.ID != w.target {
		return ErrNoPending
	}

	if res.Err != nil {
		w.state = DeleteFailed
		w.err = res.Err
		w.log.Error().Err(res.Err).Str("transaction_id", res.ID).Msg("Deletion failed")
		w.notifier.Notify(Notice{Kind: NoticeError, Message: FailureMessage(res.Err)})
		return nil
	}

	w.registry.Remove(res.ID)
	w.clock.Untrack(res.ID)
	w.state = DeleteSucceeded
	w.log.Info().Str("transaction_id", res.ID).Msg("Transaction deleted")
	w.notifier.Notify(Notice{Kind: NoticeSuccess, Message: MsgDeleted})
	return nil
}

// Delete runs a whole deletion synchronously, asking the notifier for confirmation.
// It returns ErrCancelled when the user declines and the request error on failure.
func (w *Workflow) Delete(ctx context.Context, id string) error {
	if err := w.Start(id); err != nil {
		return err
	}
	req, err := w.Confirm(w.notifier.Confirm(MsgConfirmDelete))
	if err != nil {
		return err
	}
	res := req.Do(ctx)
	if err := w.Complete(res); err != nil {
		return err
	}
	return res.Err
}

func (w *Workflow) checkEligible(id string) error {
	st, ok := w.clock.State(id)
	if ok && st.Eligible {
		return nil
	}
	w.notifier.Notify(Notice{Kind: NoticeError, Message: MsgDeleteExpired})
	if st.Err != nil {
		return fmt.Errorf("%w: %w", ErrExpired, st.Err)
	}
	return ErrExpired
}

func (w *Workflow) reset() {
	w.state = DeleteIdle
	w.target = ""
	w.err = nil
}

// DeleteRequest is one deletion RPC. It can be executed once.
type DeleteRequest struct {
	ID string

	deleter Deleter
	tokens  TokenSource
	used    atomic.Bool
}

// DeleteResult is the outcome of a DeleteRequest.
type DeleteResult struct {
	ID  string
	Err error
}

// Do fetches a fresh anti-forgery token and issues the RPC. Calling Do a second
// time returns ErrNoPending without touching the network.
func (r *DeleteRequest) Do(ctx context.Context) DeleteResult {
	if !r.used.CompareAndSwap(false, true) {
		return DeleteResult{ID: r.ID, Err: ErrNoPending}
	}
	var token string
	if r.tokens != nil {
		t, err := r.tokens.Token(ctx)
		if err != nil {
			return DeleteResult{ID: r.ID, Err: &RequestError{Err: fmt.Errorf("fetch token: %w", err)}}
		}
		token = t
	}
	if err := r.deleter.DeleteTransaction(ctx, r.ID, token); err != nil {
		var rej *ServerRejection
		var reqErr *RequestError
		if !errors.As(err, &rej) && !errors.As(err, &reqErr) {
			err = &RequestError{Err: err}
		}
		return DeleteResult{ID: r.ID, Err: err}
	}
	return DeleteResult{ID: r.ID}
}

// FailureMessage is the notice text for a failed deletion: the server's reason
// when it gave one, a generic retry hint otherwise.
func FailureMessage(err error) string {
	var rej *ServerRejection
	if errors.As(err, &rej) && rej.Reason != "" {
		return "Error: " + rej.Reason
	}
	return MsgDeleteFailed
}
