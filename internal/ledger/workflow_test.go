package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type workflowFixture struct {
	clock    *fakeClock
	registry *Registry
	ticker   *Clock
	deleter  *fakeDeleter
	notifier *recordingNotifier
	workflow *Workflow
}

func newWorkflowFixture(t *testing.T, rows ...row) *workflowFixture {
	t.Helper()
	f := &workflowFixture{
		clock:    &fakeClock{now: testNow},
		deleter:  &fakeDeleter{},
		notifier: &recordingNotifier{answer: true},
	}
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record(t))
	}
	f.registry = NewRegistry(records)
	f.ticker = NewClock(f.clock.Now, time.UTC, DefaultWindow, nopLogger())
	for _, rec := range records {
		f.ticker.Track(rec)
	}
	f.workflow = NewWorkflow(f.registry, f.ticker, f.deleter, staticTokens{token: "csrf-123"}, f.notifier, nopLogger())
	return f
}

var (
	freshRow   = row{ID: "fresh", Name: "Coffee", Paid: "3.50", Created: createdAgo(time.Minute)}
	expiredRow = row{ID: "old", Name: "Rent", Paid: "700", Created: createdAgo(1801 * time.Second)}
	brokenRow  = row{ID: "broken", Name: "Gift", Received: "50", Created: "yesterday"}
)

func TestWorkflow_Success(t *testing.T) {
	f := newWorkflowFixture(t, freshRow, expiredRow)

	require.NoError(t, f.workflow.Start("fresh"))
	assert.Equal(t, DeleteConfirming, f.workflow.State())
	assert.Equal(t, "fresh", f.workflow.Target())

	req, err := f.workflow.Confirm(true)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, DeleteRequesting, f.workflow.State())

	res := req.Do(context.Background())
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"fresh"}, f.deleter.calls)
	assert.Equal(t, "csrf-123", f.deleter.token)

	require.NoError(t, f.workflow.Complete(res))
	assert.Equal(t, DeleteSucceeded, f.workflow.State())

	_, ok := f.registry.Get("fresh")
	assert.False(t, ok)
	assert.Equal(t, 1, f.ticker.Len())
	assert.Equal(t, Notice{Kind: NoticeSuccess, Message: MsgDeleted}, f.notifier.last())
}

func TestWorkflow_ExpiredNeverRequests(t *testing.T) {
	f := newWorkflowFixture(t, freshRow, expiredRow)
	before := f.registry.All()

	err := f.workflow.Start("old")
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, DeleteIdle, f.workflow.State())
	assert.Empty(t, f.deleter.calls)
	assert.Equal(t, before, f.registry.All())
	assert.Equal(t, Notice{Kind: NoticeError, Message: MsgDeleteExpired}, f.notifier.last())

	_, err = f.workflow.Confirm(true)
	assert.ErrorIs(t, err, ErrNoPending)
	assert.Empty(t, f.deleter.calls)
}

func TestWorkflow_BrokenTimestampFailsClosed(t *testing.T) {
	f := newWorkflowFixture(t, brokenRow)

	err := f.workflow.Start("broken")
	assert.ErrorIs(t, err, ErrExpired)

	var tsErr *TimestampError
	assert.ErrorAs(t, err, &tsErr)
	assert.Empty(t, f.deleter.calls)
}

func TestWorkflow_ExpiresWhileConfirming(t *testing.T) {
	f := newWorkflowFixture(t, row{ID: "edge", Created: createdAgo(29*time.Minute + 50*time.Second)})

	require.NoError(t, f.workflow.Start("edge"))
	f.clock.Advance(20 * time.Second)

	req, err := f.workflow.Confirm(true)
	assert.Nil(t, req)
	assert.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, DeleteIdle, f.workflow.State())
	assert.Empty(t, f.deleter.calls)
}

func TestWorkflow_Decline(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)

	require.NoError(t, f.workflow.Start("fresh"))
	req, err := f.workflow.Confirm(false)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Nil(t, req)
	assert.Equal(t, DeleteIdle, f.workflow.State())
	assert.Equal(t, 1, f.registry.Len())
	assert.Empty(t, f.notifier.notices)

	_, err = f.workflow.Confirm(true)
	assert.ErrorIs(t, err, ErrNoPending)
	assert.Empty(t, f.deleter.calls)
}

func TestWorkflow_FailureLeavesRegistryUnchanged(t *testing.T) {
	tests := []struct {
		name        string
		deleteErr   error
		wantMessage string
	}{
		{
			name:        "server rejection",
			deleteErr:   &ServerRejection{Reason: "Transaction not found", Status: 404},
			wantMessage: "Error: Transaction not found",
		},
		{
			name:        "rejection without reason",
			deleteErr:   &ServerRejection{Status: 500},
			wantMessage: MsgDeleteFailed,
		},
		{
			name:        "transport failure",
			deleteErr:   errConnRefused,
			wantMessage: MsgDeleteFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newWorkflowFixture(t, freshRow, expiredRow)
			f.deleter.err = tt.deleteErr
			before := f.registry.All()

			require.NoError(t, f.workflow.Start("fresh"))
			req, err := f.workflow.Confirm(true)
			require.NoError(t, err)

			res := req.Do(context.Background())
			require.Error(t, res.Err)
			require.NoError(t, f.workflow.Complete(res))

			assert.Equal(t, DeleteFailed, f.workflow.State())
			assert.Equal(t, before, f.registry.All())
			assert.Equal(t, 2, f.ticker.Len())
			assert.Equal(t, Notice{Kind: NoticeError, Message: tt.wantMessage}, f.notifier.last())
		})
	}
}

func TestWorkflow_TransportErrorsAreRequestErrors(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)
	f.deleter.err = errConnRefused

	require.NoError(t, f.workflow.Start("fresh"))
	req, err := f.workflow.Confirm(true)
	require.NoError(t, err)

	res := req.Do(context.Background())
	var reqErr *RequestError
	require.ErrorAs(t, res.Err, &reqErr)
	assert.ErrorIs(t, res.Err, errConnRefused)
}

func TestWorkflow_TokenFailure(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)
	f.workflow.tokens = staticTokens{err: errors.New("no token")}

	err := f.workflow.Delete(context.Background(), "fresh")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Empty(t, f.deleter.calls)
	assert.Equal(t, 1, f.registry.Len())
}

func TestWorkflow_OneRequestPerAction(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)

	require.NoError(t, f.workflow.Start("fresh"))
	req, err := f.workflow.Confirm(true)
	require.NoError(t, err)

	first := req.Do(context.Background())
	second := req.Do(context.Background())
	assert.NoError(t, first.Err)
	assert.ErrorIs(t, second.Err, ErrNoPending)
	assert.Len(t, f.deleter.calls, 1)
}

func TestWorkflow_Busy(t *testing.T) {
	f := newWorkflowFixture(t, freshRow, row{ID: "other", Created: createdAgo(time.Minute)})

	require.NoError(t, f.workflow.Start("fresh"))
	assert.ErrorIs(t, f.workflow.Start("other"), ErrBusy)

	_, err := f.workflow.Confirm(true)
	require.NoError(t, err)
	assert.ErrorIs(t, f.workflow.Start("other"), ErrBusy)
}

func TestWorkflow_StaleComplete(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)

	assert.ErrorIs(t, f.workflow.Complete(DeleteResult{ID: "fresh"}), ErrNoPending)

	require.NoError(t, f.workflow.Start("fresh"))
	_, err := f.workflow.Confirm(true)
	require.NoError(t, err)
	assert.ErrorIs(t, f.workflow.Complete(DeleteResult{ID: "someone-else"}), ErrNoPending)
	assert.Equal(t, 1, f.registry.Len())
}

func TestWorkflow_UnknownID(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)
	assert.ErrorIs(t, f.workflow.Start("nope"), ErrNotFound)
	assert.Equal(t, DeleteIdle, f.workflow.State())
}

func TestWorkflow_Delete(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)

	require.NoError(t, f.workflow.Delete(context.Background(), "fresh"))
	assert.Equal(t, []string{MsgConfirmDelete}, f.notifier.questions)
	assert.Equal(t, 0, f.registry.Len())

	f = newWorkflowFixture(t, freshRow)
	f.notifier.answer = false
	assert.ErrorIs(t, f.workflow.Delete(context.Background(), "fresh"), ErrCancelled)
	assert.Empty(t, f.deleter.calls)
	assert.Equal(t, 1, f.registry.Len())
}

func TestWorkflow_RetryAfterFailure(t *testing.T) {
	f := newWorkflowFixture(t, freshRow)
	f.deleter.err = errConnRefused

	assert.Error(t, f.workflow.Delete(context.Background(), "fresh"))
	assert.Equal(t, DeleteFailed, f.workflow.State())

	f.deleter.err = nil
	require.NoError(t, f.workflow.Delete(context.Background(), "fresh"))
	assert.Len(t, f.deleter.calls, 2)
	assert.Nil(t, f.workflow.Err())
}

func TestDeleteState_String(t *testing.T) {
	assert.Equal(t, "requesting", DeleteRequesting.String())
	assert.Equal(t, "DeleteState(9)", DeleteState(9).String())
}
