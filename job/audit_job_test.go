package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"AppMovin/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingAuditor struct {
	calls  atomic.Int32
	report storage.AuditReport
	err    error
}

func (a *countingAuditor) Audit(ctx context.Context) (storage.AuditReport, error) {
	a.calls.Add(1)
	return a.report, a.err
}

func TestRunAudit(t *testing.T) {
	a := &countingAuditor{report: storage.AuditReport{Indexed: 2, Missing: []string{"x"}}}
	report, err := RunAudit(context.Background(), a)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, report.Missing)

	a.err = errors.New("boom")
	_, err = RunAudit(context.Background(), a)
	assert.EqualError(t, err, "boom")
}

func TestStartAuditJob_SinglePassWithoutInterval(t *testing.T) {
	a := &countingAuditor{}
	StartAuditJob(context.Background(), a, 0)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestStartAuditJob_TicksUntilCancelled(t *testing.T) {
	a := &countingAuditor{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		StartAuditJob(ctx, a, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return a.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("audit job did not stop after cancel")
	}
}
