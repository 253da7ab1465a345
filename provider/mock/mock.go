// Package mock provides a scripted generation provider for tests.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/gofhir/extractor/service"
)

// Respond produces the candidates the mock returns for one call.
type Respond func(schema service.Schema, contextText string) []service.Candidate

// Provider is a scripted service.Provider. The zero value returns no
// candidates; configure Script, Delay, and Err as needed. Safe for
// concurrent use.
type Provider struct {
	// Script produces candidates per call. Nil returns none.
	Script Respond

	// Delay is imposed before every response, honoring ctx.
	Delay time.Duration

	// Err, when non-nil, is returned by every call.
	Err error

	// ErrAfter fails calls once the call count exceeds it, when > 0
	// and Err is set. ErrAfter == 0 with Err set fails every call.
	ErrAfter int

	mu    sync.Mutex
	calls int
}

// Calls returns how many times Generate was invoked.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Generate implements service.Provider.
func (p *Provider) Generate(ctx context.Context, schema service.Schema, contextText string) ([]service.Candidate, error) {
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()

	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if p.Err != nil && (p.ErrAfter == 0 || n > p.ErrAfter) {
		return nil, p.Err
	}

	if p.Script == nil {
		return nil, nil
	}
	return p.Script(schema, contextText), nil
}

// Verify interface compliance
var _ service.Provider = (*Provider)(nil)
