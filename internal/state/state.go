// Package state persists the agent registry as a single JSON document. The
// orchestrator is the sole writer; this package assumes callers serialize
// their own access (see the orchestrator's process-wide mutex).
package state

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wta-dev/wta/internal/wtaerrors"
)

const registryFilename = "state.json"
const filePerms = 0o600

// Registry is the on-disk agent registry for one repository.
type Registry struct {
	NextID int      `json:"next_id"`
	Agents []*Agent `json:"agents"`

	stateDir string // not serialized, injected on load
}

// LoadOrCreate reads <dir>/state.json, returning a fresh registry with
// NextID 1 if the file does not yet exist. A parse failure is surfaced as
// StateCorruptedError rather than a generic JSON error, so operators can
// recognize it and recover manually.
func LoadOrCreate(dir string) (*Registry, error) {
	path := filepath.Join(dir, registryFilename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Registry{NextID: 1, stateDir: dir}, nil
		}
		return nil, err
	}

	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, &wtaerrors.StateCorruptedError{Path: path, Err: err}
	}
	reg.stateDir = dir
	return &reg, nil
}

// Next returns the next available id and retains it (post-increment).
func (r *Registry) Next() string {
	id := r.NextID
	r.NextID++
	return strconv.Itoa(id)
}

// AddAgent appends agent to the registry and persists it.
func (r *Registry) AddAgent(agent *Agent) error {
	r.Agents = append(r.Agents, agent)
	return r.Save()
}

// Get returns the agent with the given id via a linear scan; the registry
// is expected to stay small enough that O(n) is the correct tradeoff
// against a secondary index.
func (r *Registry) Get(id string) (*Agent, bool) {
	for _, a := range r.Agents {
		if a.ID == id {
			return a, true
		}
	}
	return nil, false
}

// GetMut is an alias for Get: Agent is always handled by pointer, so the
// caller already holds a mutable reference.
func (r *Registry) GetMut(id string) (*Agent, bool) {
	return r.Get(id)
}

// Remove deletes the agent with the given id and persists the change.
func (r *Registry) Remove(id string) error {
	kept := r.Agents[:0]
	for _, a := range r.Agents {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	r.Agents = kept
	return r.Save()
}

// Save writes the registry as pretty-printed JSON. The process-wide lock
// held by the orchestrator is what makes this safe without a temp-file
// rename dance: there is never more than one writer at a time.
func (r *Registry) Save() error {
	path := filepath.Join(r.stateDir, registryFilename)
	if err := os.MkdirAll(r.stateDir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, filePerms)
}
