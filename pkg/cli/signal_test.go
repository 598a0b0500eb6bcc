package cli

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testOptions(grace time.Duration) (SignalOptions, chan os.Signal, *atomic.Int32) {
	sigs := make(chan os.Signal, 2)
	var code atomic.Int32
	code.Store(-1)
	return SignalOptions{
		GracePeriod: grace,
		signals:     sigs,
		exit:        func(c int) { code.Store(int32(c)) },
	}, sigs, &code
}

func TestSignalContext_CancelOnInterrupt(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	opts, sigs, _ := testOptions(5 * time.Second)
	opts.Logger = zap.New(core)

	ctx, cancel := SignalContext(context.Background(), opts)
	defer cancel()

	sigs <- os.Interrupt

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled after signal")
	}

	deadline := time.Now().Add(2 * time.Second)
	for logs.FilterMessage("interrupt received, stopping").Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("interrupt was not logged")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSignalContext_ParentCancel(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	opts, _, _ := testOptions(5 * time.Second)

	ctx, cancel := SignalContext(parent, opts)
	defer cancel()

	cancelParent()

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context was not cancelled with its parent")
	}
}

func TestSignalContext_SecondSignalExits(t *testing.T) {
	opts, sigs, code := testOptions(5 * time.Second)

	ctx, cancel := SignalContext(context.Background(), opts)
	defer cancel()

	sigs <- os.Interrupt
	<-ctx.Done()
	sigs <- os.Interrupt

	deadline := time.After(2 * time.Second)
	for code.Load() != InterruptExitCode {
		select {
		case <-deadline:
			t.Fatalf("exit not called with %d, got %d", InterruptExitCode, code.Load())
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func TestSignalContext_GracePeriodExpires(t *testing.T) {
	opts, sigs, code := testOptions(50 * time.Millisecond)

	_, cancel := SignalContext(context.Background(), opts)
	defer cancel()

	sigs <- os.Interrupt
	time.Sleep(200 * time.Millisecond)

	if code.Load() != -1 {
		t.Errorf("exit should not be called when the grace period expires, got %d", code.Load())
	}
}

func TestSignalContext_NoSignal(t *testing.T) {
	opts, _, _ := testOptions(5 * time.Second)
	ctx, cancel := SignalContext(context.Background(), opts)
	defer cancel()

	select {
	case <-ctx.Done():
		t.Fatal("context should not be cancelled without signal or cancel")
	default:
	}
}
