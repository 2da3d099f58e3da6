package store

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrorsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotFound,
		ErrAlreadyProcessed,
		ErrInsufficientBalance,
		ErrDuplicateTransaction,
		ErrConcurrentModification,
		ErrEmailTaken,
		ErrOtpAlreadyUsed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && errors.Is(a, b) {
				t.Errorf("sentinel %q matches %q", a, b)
			}
		}
	}
}

func TestSentinelErrorsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("approve deposit dep-1: %w", ErrAlreadyProcessed)
	if !errors.Is(wrapped, ErrAlreadyProcessed) {
		t.Fatal("expected wrapped error to match ErrAlreadyProcessed")
	}
}
