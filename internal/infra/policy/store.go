// Package policy maintains the two refresh rate policy layers for a
// display: the one set by the display manager and the one set by an
// override surface (settings, test harness). The effective policy is
// their merge, with the more restrictive bound winning.
package policy

import (
	"fmt"
	"sync"

	"github.com/lumen-display/lumen/internal/domain"
	"github.com/lumen-display/lumen/internal/infra/modes"
)

// Store holds both policy layers and publishes the effective merge.
type Store struct {
	mu       sync.RWMutex
	catalog  *modes.Catalog
	display  domain.Policy
	override *domain.Policy

	listeners []func(domain.Policy)
}

// NewStore creates a policy store seeded with the display manager's
// initial policy.
func NewStore(catalog *modes.Catalog, initial domain.Policy) (*Store, error) {
	s := &Store{catalog: catalog}
	if err := s.validate(initial); err != nil {
		return nil, err
	}
	s.display = initial
	return s, nil
}

// Subscribe registers a callback invoked after every effective policy
// change. Callbacks run outside the store lock.
func (s *Store) Subscribe(fn func(domain.Policy)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Effective returns the merged policy currently in force.
func (s *Store) Effective() domain.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.MergePolicies(s.display, s.override)
}

// DisplayManagerPolicy returns the display manager layer.
func (s *Store) DisplayManagerPolicy() domain.Policy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

// OverridePolicy returns the override layer and whether one is set.
func (s *Store) OverridePolicy() (domain.Policy, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.override == nil {
		return domain.Policy{}, false
	}
	return *s.override, true
}

// SetDisplayManagerPolicy replaces the display manager layer. Returns
// whether the effective policy changed. Invalid input leaves the store
// untouched.
func (s *Store) SetDisplayManagerPolicy(p domain.Policy) (bool, error) {
	s.mu.Lock()
	if err := s.validate(p); err != nil {
		s.mu.Unlock()
		return false, err
	}
	before := domain.MergePolicies(s.display, s.override)
	s.display = p
	after := domain.MergePolicies(s.display, s.override)
	changed := !after.Equal(before)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(after)
		}
	}
	return changed, nil
}

// SetOverridePolicy replaces the override layer; nil clears it. Returns
// whether the effective policy changed.
func (s *Store) SetOverridePolicy(p *domain.Policy) (bool, error) {
	s.mu.Lock()
	if p != nil {
		if err := s.validate(*p); err != nil {
			s.mu.Unlock()
			return false, err
		}
	}
	before := domain.MergePolicies(s.display, s.override)
	if p == nil {
		s.override = nil
	} else {
		cp := *p
		s.override = &cp
	}
	after := domain.MergePolicies(s.display, s.override)
	changed := !after.Equal(before)
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		for _, fn := range listeners {
			fn(after)
		}
	}
	return changed, nil
}

func (s *Store) snapshotListeners() []func(domain.Policy) {
	out := make([]func(domain.Policy), len(s.listeners))
	copy(out, s.listeners)
	return out
}

// validate rejects policies the catalog cannot satisfy.
func (s *Store) validate(p domain.Policy) error {
	def, err := s.catalog.Lookup(p.DefaultMode)
	if err != nil {
		return err
	}
	if p.Primary.Min.GreaterThanWithMargin(p.Primary.Max) {
		return fmt.Errorf("%w: primary %s", domain.ErrBadRange, p.Primary)
	}
	if p.AppRequest.Min.GreaterThanWithMargin(p.AppRequest.Max) {
		return fmt.Errorf("%w: app request %s", domain.ErrBadRange, p.AppRequest)
	}
	if !p.AppRequest.Contains(p.Primary) {
		return fmt.Errorf("%w: app request %s vs primary %s",
			domain.ErrInconsistentRanges, p.AppRequest, p.Primary)
	}

	// The primary range must leave at least one selectable mode. When
	// group switching is off only the default mode's group counts.
	for _, m := range s.catalog.All() {
		if !p.AllowGroupSwitching && m.Group != def.Group {
			continue
		}
		if p.Primary.Includes(m.Fps) {
			return nil
		}
	}
	return fmt.Errorf("%w: no mode satisfies primary %s", domain.ErrBadRange, p.Primary)
}
