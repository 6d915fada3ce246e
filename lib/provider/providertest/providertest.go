// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package providertest provides a scriptable in-memory
// provider.ResourceProvider for navigator tests.
//
// Operations are poll-driven: each call to Done advances the operation
// one step, and an operation finishes after Steps polls. Nothing runs
// on background goroutines, so a test that drives the navigator with a
// zero poll interval is fully deterministic.
//
// Every provider call is appended to a log that tests inspect with
// [Provider.Calls] and [Provider.CallsWithPrefix].
package providertest

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/bureau-foundation/scenenav/lib/bytesize"
	"github.com/bureau-foundation/scenenav/lib/provider"
)

// Provider is an in-memory ResourceProvider. Configure the exported
// fields before handing it to a navigator; use the methods afterwards.
type Provider struct {
	// Routes maps keys to the locations they resolve to.
	Routes map[string][]provider.Location

	// BundleSizes maps bundle names to their remote size. Bundles not
	// listed are considered already local.
	BundleSizes map[string]int64

	// Steps is the number of polls an operation takes to finish.
	// Zero means operations finish on the first poll.
	Steps int

	// InitializeErr, when set, is returned by Initialize.
	InitializeErr error

	// LoadErrs maps unit IDs to the error their load finishes with.
	LoadErrs map[string]error

	// DownloadErr, when set, is the Err of the finished download.
	DownloadErr error

	// AsyncDownloadErrs are delivered to error subscribers on the
	// first poll of a download.
	AsyncDownloadErrs []error

	// OnDownloadPoll, when set, runs on every poll of a download with
	// the 1-based poll number.
	OnDownloadPoll func(poll int)

	mu          sync.Mutex
	calls       []string
	resident    map[string]*residentState
	downloaded  map[string]bool
	subscribers map[int]func(error)
	nextID      int
	releases    int
	initialized bool
}

type residentState struct {
	primary bool
	active  bool
	order   int
}

// New returns a Provider with the given routes. The primary unit, when
// non-empty, starts resident and active.
func New(routes map[string][]provider.Location, primary string) *Provider {
	p := &Provider{
		Routes:      routes,
		BundleSizes: map[string]int64{},
		LoadErrs:    map[string]error{},
		resident:    map[string]*residentState{},
		downloaded:  map[string]bool{},
		subscribers: map[int]func(error){},
	}
	if primary != "" {
		p.resident[primary] = &residentState{primary: true, active: true}
	}
	return p
}

// Scene returns a single-unit route for a scene ID with no download.
func Scene(ids ...string) []provider.Location {
	locations := make([]provider.Location, 0, len(ids))
	for _, id := range ids {
		locations = append(locations, provider.Location{ID: id, Type: "scene"})
	}
	return locations
}

// MakeResident marks a unit as resident, as if left over from an
// earlier session.
func (p *Provider) MakeResident(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.resident[id] = &residentState{active: true, order: p.nextID}
}

// Resident returns the resident unit IDs, sorted.
func (p *Provider) Resident() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.resident))
	for id := range p.resident {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsActive reports whether a resident unit has been activated.
func (p *Provider) IsActive(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	state, ok := p.resident[id]
	return ok && state.active
}

// Calls returns a copy of the call log.
func (p *Provider) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.calls)
}

// CallsWithPrefix returns logged calls starting with prefix, e.g.
// "load " or "unload ".
func (p *Provider) CallsWithPrefix(prefix string) []string {
	var matched []string
	for _, call := range p.Calls() {
		if strings.HasPrefix(call, prefix) {
			matched = append(matched, call)
		}
	}
	return matched
}

// ResetCalls clears the call log.
func (p *Provider) ResetCalls() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = nil
}

// Releases returns how many times download operations were released.
func (p *Provider) Releases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.releases
}

// Subscribers returns the number of live error subscriptions.
func (p *Provider) Subscribers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.subscribers)
}

// EmitError delivers err to every error subscriber.
func (p *Provider) EmitError(err error) {
	p.mu.Lock()
	handlers := make([]func(error), 0, len(p.subscribers))
	for _, handler := range p.subscribers {
		handlers = append(handlers, handler)
	}
	p.mu.Unlock()
	for _, handler := range handlers {
		handler(err)
	}
}

func (p *Provider) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

// Initialize implements provider.ResourceProvider.
func (p *Provider) Initialize(ctx context.Context) (provider.KeySet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("initialize")
	if p.InitializeErr != nil {
		return nil, p.InitializeErr
	}
	p.initialized = true
	keys := make(provider.KeySet, 0, len(p.Routes))
	for key := range p.Routes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// ResolveLocations implements provider.ResourceProvider.
func (p *Provider) ResolveLocations(ctx context.Context, key string) ([]provider.Location, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("resolve %s", key)
	return slices.Clone(p.Routes[key]), nil
}

// GetDownloadSize implements provider.ResourceProvider.
func (p *Provider) GetDownloadSize(ctx context.Context, locations []provider.Location) (bytesize.ByteSize, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return bytesize.New(p.pendingBytesLocked(locations))
}

func (p *Provider) pendingBytesLocked(locations []provider.Location) int64 {
	var total int64
	seen := map[string]bool{}
	for _, location := range locations {
		if location.Bundle == "" || seen[location.Bundle] || p.downloaded[location.Bundle] {
			continue
		}
		seen[location.Bundle] = true
		total += p.BundleSizes[location.Bundle]
	}
	return total
}

// DownloadAll implements provider.ResourceProvider.
func (p *Provider) DownloadAll(ctx context.Context, locations []provider.Location) (provider.DownloadOperation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("download %d", len(locations))
	var bundles []string
	for _, location := range locations {
		if location.Bundle != "" && !p.downloaded[location.Bundle] && !slices.Contains(bundles, location.Bundle) {
			bundles = append(bundles, location.Bundle)
		}
	}
	return &downloadOperation{
		owner:   p,
		bundles: bundles,
		total:   p.pendingBytesLocked(locations),
	}, nil
}

// LoadUnit implements provider.ResourceProvider.
func (p *Provider) LoadUnit(ctx context.Context, location provider.Location) (provider.LoadOperation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("load %s", location.ID)
	return &steppedOperation{
		steps: p.Steps,
		finish: func() error {
			p.mu.Lock()
			defer p.mu.Unlock()
			if err := p.LoadErrs[location.ID]; err != nil {
				return err
			}
			p.nextID++
			p.resident[location.ID] = &residentState{order: p.nextID}
			return nil
		},
		unit: provider.Unit{ID: location.ID},
	}, nil
}

// UnloadUnit implements provider.ResourceProvider.
func (p *Provider) UnloadUnit(ctx context.Context, unitID string) (provider.Operation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("unload %s", unitID)
	if _, ok := p.resident[unitID]; !ok {
		return nil, &provider.OperationError{Op: "unload", Target: unitID, Err: fmt.Errorf("not resident")}
	}
	return &steppedOperation{
		steps: p.Steps,
		finish: func() error {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.resident, unitID)
			return nil
		},
	}, nil
}

// ActivateUnit implements provider.ResourceProvider.
func (p *Provider) ActivateUnit(ctx context.Context, unit provider.Unit) (provider.Operation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("activate %s", unit.ID)
	return &steppedOperation{
		steps: p.Steps,
		finish: func() error {
			p.mu.Lock()
			defer p.mu.Unlock()
			state, ok := p.resident[unit.ID]
			if !ok {
				return &provider.OperationError{Op: "activate", Target: unit.ID, Err: fmt.Errorf("not loaded")}
			}
			state.active = true
			return nil
		},
	}, nil
}

// ResidentUnits implements provider.ResourceProvider.
func (p *Provider) ResidentUnits(ctx context.Context) ([]provider.ResidentUnit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	units := make([]provider.ResidentUnit, 0, len(p.resident))
	for id, state := range p.resident {
		units = append(units, provider.ResidentUnit{ID: id, Primary: state.primary})
	}
	sort.Slice(units, func(i, j int) bool {
		return p.resident[units[i].ID].order < p.resident[units[j].ID].order
	})
	return units, nil
}

// SubscribeErrors implements provider.ResourceProvider.
func (p *Provider) SubscribeErrors(handler func(error)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := p.nextID
	p.subscribers[id] = handler
	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			delete(p.subscribers, id)
		})
	}
}

// steppedOperation finishes after steps polls of Done.
type steppedOperation struct {
	steps  int
	polls  int
	finish func() error
	done   bool
	err    error
	unit   provider.Unit
}

func (op *steppedOperation) Done() bool {
	if op.done {
		return true
	}
	op.polls++
	if op.polls > op.steps {
		op.done = true
		op.err = op.finish()
	}
	return op.done
}

func (op *steppedOperation) Err() error { return op.err }

func (op *steppedOperation) Progress() float64 {
	if op.done {
		return 1
	}
	if op.steps == 0 {
		return 0
	}
	return float64(op.polls) / float64(op.steps+1)
}

func (op *steppedOperation) Unit() provider.Unit { return op.unit }

type downloadOperation struct {
	owner   *Provider
	bundles []string
	total   int64
	polls   int
	done    bool
	err     error
}

func (op *downloadOperation) Done() bool {
	if op.done {
		return true
	}
	op.polls++
	owner := op.owner
	if owner.OnDownloadPoll != nil {
		owner.OnDownloadPoll(op.polls)
	}
	if op.polls == 1 {
		for _, err := range owner.AsyncDownloadErrs {
			owner.EmitError(err)
		}
	}
	if op.polls > owner.Steps {
		op.done = true
		op.err = owner.DownloadErr
		if op.err == nil {
			owner.mu.Lock()
			for _, bundle := range op.bundles {
				owner.downloaded[bundle] = true
			}
			owner.mu.Unlock()
		}
	}
	return op.done
}

func (op *downloadOperation) Err() error { return op.err }

func (op *downloadOperation) Progress() float64 {
	if op.done {
		return 1
	}
	return float64(op.polls) / float64(op.owner.Steps+1)
}

func (op *downloadOperation) Bytes() (int64, int64, bool) {
	if op.total == 0 {
		return 0, 0, false
	}
	return int64(op.Progress() * float64(op.total)), op.total, true
}

func (op *downloadOperation) Release() {
	op.owner.mu.Lock()
	defer op.owner.mu.Unlock()
	op.owner.releases++
	op.owner.record("release")
}
