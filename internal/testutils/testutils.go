// Package testutils provides testing utilities and helper functions
package testutils

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestContext bundles a test with timeout contexts and a cleanup stack.
type TestContext struct {
	t       *testing.T
	timeout time.Duration
	cleanup []func()
	mu      sync.Mutex
}

// NewTestContext creates a new test context with the given overall timeout.
// A zero timeout defaults to 5 seconds.
func NewTestContext(t *testing.T, timeout time.Duration) *TestContext {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	tc := &TestContext{
		t:       t,
		timeout: timeout,
	}
	t.Cleanup(tc.runCleanup)
	return tc
}

// T returns the testing.T instance
func (tc *TestContext) T() *testing.T {
	return tc.t
}

// Context returns a context cancelled when the test timeout elapses.
func (tc *TestContext) Context() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), tc.timeout)
	tc.AddCleanup(cancel)
	return ctx
}

// AddCleanup adds a cleanup function
func (tc *TestContext) AddCleanup(fn func()) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.cleanup = append(tc.cleanup, fn)
}

// runCleanup executes cleanup functions in reverse order.
func (tc *TestContext) runCleanup() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	for i := len(tc.cleanup) - 1; i >= 0; i-- {
		tc.cleanup[i]()
	}
	tc.cleanup = nil
}

// AssertEventually waits for a condition to become true.
func (tc *TestContext) AssertEventually(condition func() bool, timeout, tick time.Duration, msgAndArgs ...any) {
	assert.Eventually(tc.t, condition, timeout, tick, msgAndArgs...)
}
