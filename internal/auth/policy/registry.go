// Package policy maintains the set of authorization policies derived from
// role claims. Each distinct claim value observed across all roles becomes
// one policy requiring that exact (type, value) claim pair.
package policy

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/skyvault-io/skyvault/internal/auth/domain"
	"github.com/skyvault-io/skyvault/internal/auth/store"
)

// Registry owns the registered policy set. It is constructed once at startup
// and injected wherever policies are enforced; there is no ambient global
// state. Reads are lock-free in practice (RLock) and Reload swaps in a fresh
// snapshot, so role or claim changes no longer need a process restart.
type Registry struct {
	mu       sync.RWMutex
	policies map[string]domain.Claim // policy name -> required claim pair
}

func NewRegistry() *Registry {
	return &Registry{policies: make(map[string]domain.Claim)}
}

// LoadFromRoles enumerates every role's claim pairs and registers one policy
// per distinct claim value. When two roles carry the same value (even under
// different claim types) only the first observation registers; the policy
// set and the registered-name set are the same map, so they cannot drift
// apart.
func (r *Registry) LoadFromRoles(ctx context.Context, st store.Store) error {
	roles, err := st.Roles().ListAll(ctx)
	if err != nil {
		return fmt.Errorf("policy: list roles: %w", err)
	}

	fresh := make(map[string]domain.Claim)
	for _, role := range roles {
		claims, err := st.Claims().GetClaimsForRole(ctx, role.ID)
		if err != nil {
			return fmt.Errorf("policy: claims for role %q: %w", role.Name, err)
		}
		for _, c := range claims {
			if _, registered := fresh[c.Value]; registered {
				continue
			}
			fresh[c.Value] = c
		}
	}

	r.mu.Lock()
	r.policies = fresh
	r.mu.Unlock()
	return nil
}

// Reload rebuilds the policy set from the current role claims. Exposed to
// operators through the admin API so claim changes take effect without a
// restart.
func (r *Registry) Reload(ctx context.Context, st store.Store) error {
	return r.LoadFromRoles(ctx, st)
}

// Lookup returns the claim pair a named policy requires.
func (r *Registry) Lookup(name string) (domain.Claim, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.policies[name]
	return c, ok
}

// IsRegistered reports whether a policy with the given name exists.
func (r *Registry) IsRegistered(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns the sorted policy names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.policies))
	for name := range r.policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered policies.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.policies)
}
