package diagnostics

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/lendauth/domain"
	"github.com/you/lendauth/internal/logging"
)

type recordingSink struct {
	mu     sync.Mutex
	events []*domain.DiagnosticEvent
}

func (s *recordingSink) Emit(_ context.Context, e *domain.DiagnosticEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

type blockingSink struct{ release chan struct{} }

func (s blockingSink) Emit(context.Context, *domain.DiagnosticEvent) { <-s.release }

type panickingSink struct{}

func (panickingSink) Emit(context.Context, *domain.DiagnosticEvent) { panic("sink exploded") }

func TestDispatcher_DeliversAndDrainsOnClose(t *testing.T) {
	sink := &recordingSink{}
	d := NewDispatcher(16, sink)

	for i := 0; i < 5; i++ {
		d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionOTPSend, domain.SeverityWarning))
	}
	d.Close()

	assert.Equal(t, 5, sink.count())
	assert.Zero(t, d.Dropped())

	// recording after close is a no-op
	d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionOTPSend, domain.SeverityWarning))
	assert.Equal(t, 5, sink.count())
}

func TestDispatcher_NeverBlocksWhenFull(t *testing.T) {
	sink := blockingSink{release: make(chan struct{})}
	d := NewDispatcher(1, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionSessionValidate, domain.SeverityWarning))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	assert.Greater(t, d.Dropped(), uint64(0))
	close(sink.release)
	d.Close()
}

func TestDispatcher_SurvivesPanickingSink(t *testing.T) {
	d := NewDispatcher(4, panickingSink{})
	d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionSignOut, domain.SeverityWarning))
	d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionSignOut, domain.SeverityWarning))
	assert.NotPanics(t, d.Close)
}

func TestDispatcher_NilSafe(t *testing.T) {
	var d *Dispatcher
	assert.NotPanics(t, func() {
		d.Record(context.Background(), domain.NewDiagnosticEvent(domain.ActionSignOut, domain.SeverityInfo))
		d.Close()
	})
	assert.Zero(t, d.Dropped())
}

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(logging.New(&buf, "debug", false))

	event := domain.Warning(domain.ActionOTPVerify, domain.ErrCodeAlreadyUsed).
		WithUser(42).
		WithMethod(domain.MethodEmail).
		WithMetadata("otp_id", 9)
	sink.Emit(context.Background(), event)

	out := buf.String()
	require.NotEmpty(t, out)
	for _, want := range []string{"level=WARN", "action=otp.verify", "user_id=42", "method=email", "otp_id=9", "component=diagnostics"} {
		assert.Contains(t, out, want)
	}
}

func TestFanoutSink(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	FanoutSink{a, b}.Emit(context.Background(), domain.NewDiagnosticEvent(domain.ActionIdentityRead, domain.SeverityWarning))
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}
