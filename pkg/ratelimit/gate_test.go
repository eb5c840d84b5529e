package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestGate_BurstAllows(t *testing.T) {
	gate := NewGate(1, 3, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if !gate.Allow() {
			t.Errorf("request %d within burst should be allowed", i)
		}
	}
	if gate.Allow() {
		t.Error("request beyond burst should be denied")
	}
}

func TestGate_Unlimited(t *testing.T) {
	gate := NewGate(0, 0, zerolog.Nop())

	for i := 0; i < 100; i++ {
		if !gate.Allow() {
			t.Fatalf("unlimited gate denied request %d", i)
		}
	}
}

func TestGate_Wait_ContextCancelled(t *testing.T) {
	gate := NewGate(0.1, 1, zerolog.Nop())

	// Drain the burst so Wait has to block.
	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := gate.Wait(ctx); err == nil {
		t.Error("Wait should fail when the context expires before a token frees up")
	}
}

func TestGate_Wait_Refills(t *testing.T) {
	gate := NewGate(100, 1, zerolog.Nop())

	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	// The bucket refills at 100/s, so the second wait is short.
	start := time.Now()
	if err := gate.Wait(context.Background()); err != nil {
		t.Fatalf("second Wait failed: %v", err)
	}
	if waited := time.Since(start); waited > 500*time.Millisecond {
		t.Errorf("Wait took %v, expected a quick refill", waited)
	}
}
