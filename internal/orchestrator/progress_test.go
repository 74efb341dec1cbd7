package orchestrator

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressReporter_EmitAndSubscribe(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	want := ProgressEvent{Mode: "Hex", Step: 1, StepID: "polish", Kind: KindLLM, Status: ProgressWorking}
	pr.Emit(want)

	select {
	case got := <-pr.Subscribe():
		assert.Equal(t, want, got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for progress event")
	}
}

func TestProgressReporter_FullBufferDrops(t *testing.T) {
	pr := NewProgressReporter()
	defer pr.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < progressBuffer+36; i++ {
			pr.Emit(ProgressEvent{Mode: "m", Step: i, Status: ProgressWorking})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked when the buffer was full")
	}
	assert.EqualValues(t, 36, pr.Dropped())
}

func TestProgressReporter_CloseIsIdempotent(t *testing.T) {
	pr := NewProgressReporter()
	pr.Emit(ProgressEvent{Mode: "m"})
	pr.Close()
	pr.Close()

	// Emitting after Close is ignored rather than panicking.
	assert.NotPanics(t, func() { pr.Emit(ProgressEvent{Mode: "late"}) })

	var got []ProgressEvent
	for ev := range pr.Subscribe() {
		got = append(got, ev)
	}
	require.Len(t, got, 1)
	assert.Equal(t, "m", got[0].Mode)
}

func TestProgressReporter_ConcurrentEmitAndClose(t *testing.T) {
	pr := NewProgressReporter()
	go func() {
		for range pr.Subscribe() {
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				pr.Emit(ProgressEvent{Step: j})
			}
		}()
	}
	pr.Close()
	wg.Wait()
}

func TestProgressReporter_NilIsNoop(t *testing.T) {
	var pr *ProgressReporter
	assert.NotPanics(t, func() { pr.Emit(ProgressEvent{}) })
}

func TestFormatProgress(t *testing.T) {
	ev := ProgressEvent{Mode: "Hex", Step: 0, StepID: "tidy", Kind: KindTrim}

	ev.Status = ProgressWorking
	assert.Equal(t, "  … [Hex] step 1 trim tidy", FormatProgress(ev))
	ev.Status = ProgressComplete
	assert.Equal(t, "  ✓ [Hex] step 1 trim tidy", FormatProgress(ev))
	ev.Status = ProgressFailed
	ev.Message = "boom"
	assert.Equal(t, "  ✗ [Hex] step 1 trim tidy: boom", FormatProgress(ev))
	ev.Status = ProgressSkipped
	assert.Equal(t, "  - [Hex] step 1 trim tidy (disabled)", FormatProgress(ev))

	ev.StepID = ""
	assert.Equal(t, "  - [Hex] step 1 trim (disabled)", FormatProgress(ev))
}
