// Package registry owns the single persisted camera identity.
package registry

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chaz8081/camremote/internal/ble/protocol"
	"github.com/chaz8081/camremote/internal/prefs"
)

// Persistence-format size ceilings.
const (
	MaxNameLen    = 29
	MaxAddressLen = 19
)

// Store keys under the "camera" namespace.
const (
	Namespace  = "camera"
	keyName    = "name"
	keyAddress = "address"
	keyWake    = "wake"
)

// ErrInvalidIdentity is returned when a name cannot carry a wake payload.
var ErrInvalidIdentity = errors.New("registry: invalid camera identity")

// Store is the key-value persistence the registry writes through.
type Store interface {
	Begin(namespace string) (prefs.Namespace, error)
}

// Profile is the paired camera's identity. The zero value is invalid.
type Profile struct {
	Name        string
	Address     string
	WakePayload [protocol.WakePayloadLen]byte
	Valid       bool
}

// Registry caches the profile and persists it. Safe for concurrent use.
type Registry struct {
	store Store

	mu      sync.Mutex
	profile Profile
}

// New creates a registry over store. Call Load to read the persisted profile.
func New(store Store) *Registry {
	return &Registry{store: store}
}

// Profile returns a snapshot of the cached profile.
func (r *Registry) Profile() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profile
}

// Load reads the persisted profile. An empty, corrupt or unreachable store
// yields an invalid profile; errors are logged, never returned.
func (r *Registry) Load() Profile {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profile = r.read()
	if r.profile.Valid {
		slog.Info("[PREFS] loaded camera", "name", r.profile.Name, "address", r.profile.Address)
	} else {
		slog.Info("[PREFS] no valid camera saved")
	}
	return r.profile
}

func (r *Registry) read() Profile {
	ns, err := r.store.Begin(Namespace)
	if err != nil {
		slog.Warn("[PREFS] store unavailable", "error", err)
		return Profile{}
	}
	defer func() {
		if err := ns.End(); err != nil {
			slog.Warn("[PREFS] end read session", "error", err)
		}
	}()

	name, _ := ns.GetString(keyName)
	address, _ := ns.GetString(keyAddress)
	wake, ok := ns.GetBytes(keyWake)
	if !ok || len(wake) != protocol.WakePayloadLen || name == "" || len(name) > MaxNameLen {
		return Profile{}
	}

	// The payload must still match the name it was derived from.
	want, err := protocol.WakePayloadFromName(name)
	if err != nil || !bytes.Equal(want[:], wake) {
		slog.Warn("[PREFS] wake payload inconsistent with name, ignoring", "name", name)
		return Profile{}
	}

	return Profile{
		Name:        name,
		Address:     truncate(address, MaxAddressLen),
		WakePayload: want,
		Valid:       true,
	}
}

// Save derives the wake payload from name and persists the profile in a
// single commit. Names shorter than six bytes or longer than MaxNameLen fail
// with ErrInvalidIdentity and leave the registry untouched. Addresses longer
// than MaxAddressLen are truncated.
func (r *Registry) Save(name, address string) (Profile, error) {
	if len(name) > MaxNameLen {
		return Profile{}, fmt.Errorf("%w: name %q exceeds %d bytes", ErrInvalidIdentity, name, MaxNameLen)
	}
	wake, err := protocol.WakePayloadFromName(name)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	p := Profile{
		Name:        name,
		Address:     truncate(address, MaxAddressLen),
		WakePayload: wake,
		Valid:       true,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ns, err := r.store.Begin(Namespace)
	if err != nil {
		return Profile{}, fmt.Errorf("registry: open store: %w", err)
	}
	ns.PutString(keyName, p.Name)
	ns.PutString(keyAddress, p.Address)
	ns.PutBytes(keyWake, p.WakePayload[:])
	if err := ns.End(); err != nil {
		return Profile{}, fmt.Errorf("registry: commit: %w", err)
	}

	r.profile = p
	slog.Info("[PREFS] camera saved", "name", p.Name, "address", p.Address,
		"wake", protocol.HexString(p.WakePayload[:]))
	return p, nil
}

// Clear erases the persisted profile and invalidates the cache. The cache
// is invalidated even when the store cannot be written.
func (r *Registry) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.profile = Profile{}

	ns, err := r.store.Begin(Namespace)
	if err != nil {
		return fmt.Errorf("registry: open store: %w", err)
	}
	ns.Clear()
	if err := ns.End(); err != nil {
		return fmt.Errorf("registry: commit clear: %w", err)
	}
	slog.Info("[PREFS] camera cleared")
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
