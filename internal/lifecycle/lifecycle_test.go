package lifecycle

import (
	"testing"
	"time"
)

func TestIsShuttingDown_DefaultFalse(t *testing.T) {
	SetShuttingDown(false)
	if IsShuttingDown() {
		t.Error("IsShuttingDown() = true, want false by default")
	}
}

func TestSetShuttingDown_True(t *testing.T) {
	SetShuttingDown(true)
	defer SetShuttingDown(false)
	if !IsShuttingDown() {
		t.Error("IsShuttingDown() = false after SetShuttingDown(true), want true")
	}
}

func TestIsReady_DefaultTrue(t *testing.T) {
	MarkStarting(0)
	if !IsReady() {
		t.Error("IsReady() = false with no ready delay, want true")
	}
}

func TestMarkStarting_DelaysReadiness(t *testing.T) {
	MarkStarting(time.Hour)
	defer MarkStarting(0)
	if IsReady() {
		t.Error("IsReady() = true during ready delay, want false")
	}
}

func TestMarkStarting_ElapsedDelay(t *testing.T) {
	MarkStarting(time.Millisecond)
	defer MarkStarting(0)
	time.Sleep(5 * time.Millisecond)
	if !IsReady() {
		t.Error("IsReady() = false after delay elapsed, want true")
	}
}
