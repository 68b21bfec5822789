package identity

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/notchd/internal/model"
)

// Resolver is a read-through cache from display handles to identities.
// Derivation only happens in Rebuild; lookups never derive.
// A Resolver is confined to the executor that owns the surfaces.
type Resolver struct {
	deriver Deriver
	logger  *slog.Logger

	topology   model.Topology
	byHandle   map[string]model.DisplayIdentity
	byIdentity map[model.DisplayIdentity]model.Display
	order      []model.DisplayIdentity

	// twins holds base identities that two connected displays have shared.
	// Members of such a group stay qualified by handle for the rest of the
	// process, whatever the order or membership of later topologies.
	twins map[model.DisplayIdentity]bool

	migrated bool
}

// NewResolver creates an empty resolver. A nil deriver uses HardwareDeriver.
func NewResolver(deriver Deriver, logger *slog.Logger) *Resolver {
	if deriver == nil {
		deriver = HardwareDeriver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		deriver:    deriver,
		logger:     logger,
		byHandle:   make(map[string]model.DisplayIdentity),
		byIdentity: make(map[model.DisplayIdentity]model.Display),
		twins:      make(map[model.DisplayIdentity]bool),
	}
}

// Rebuild replaces the cache from a new topology snapshot. Displays without a
// stable identity are logged and left out.
func (r *Resolver) Rebuild(topo model.Topology) {
	type derived struct {
		display model.Display
		base    model.DisplayIdentity
	}

	all := make([]derived, 0, len(topo.Displays))
	count := make(map[model.DisplayIdentity]int, len(topo.Displays))
	for _, d := range topo.Displays {
		id, err := r.deriver.Derive(d)
		if err != nil || id == "" {
			r.logger.Warn("cannot resolve display identity", "display", d.Name, "handle", d.Handle, "error", err)
			continue
		}
		all = append(all, derived{display: d, base: id})
		count[id]++
	}
	for id, n := range count {
		if n > 1 && !r.twins[id] {
			r.twins[id] = true
			r.logger.Debug("identical displays, qualifying by handle", "identity", id, "count", n)
		}
	}

	byHandle := make(map[string]model.DisplayIdentity, len(all))
	byIdentity := make(map[model.DisplayIdentity]model.Display, len(all))
	order := make([]model.DisplayIdentity, 0, len(all))
	for _, e := range all {
		id := e.base
		if r.twins[id] {
			id = qualify(id, e.display.Handle)
		}
		if _, dup := byIdentity[id]; dup {
			r.logger.Warn("duplicate display handle, skipping", "display", e.display.Name, "handle", e.display.Handle)
			continue
		}
		byHandle[e.display.Handle] = id
		byIdentity[id] = e.display
		order = append(order, id)
	}

	r.topology = topo
	r.byHandle = byHandle
	r.byIdentity = byIdentity
	r.order = order
}

// qualify derives a per-connector identity for panels that carry no serial.
func qualify(base model.DisplayIdentity, handle string) model.DisplayIdentity {
	return model.DisplayIdentity(strings.ToUpper(uuid.NewSHA1(namespace, []byte(string(base)+"\x00"+handle)).String()))
}

// Resolve returns the identity of the display with the given handle.
func (r *Resolver) Resolve(handle string) (model.DisplayIdentity, bool) {
	id, ok := r.byHandle[handle]
	return id, ok
}

// Display returns the current display for an identity.
func (r *Resolver) Display(id model.DisplayIdentity) (model.Display, bool) {
	d, ok := r.byIdentity[id]
	return d, ok
}

// Primary returns the identity of the OS primary display.
func (r *Resolver) Primary() (model.DisplayIdentity, bool) {
	for _, id := range r.order {
		if r.byIdentity[id].Primary {
			return id, true
		}
	}
	if len(r.order) > 0 {
		return r.order[0], true
	}
	return "", false
}

// Identities returns resolved identities in topology order.
func (r *Resolver) Identities() []model.DisplayIdentity {
	out := make([]model.DisplayIdentity, len(r.order))
	copy(out, r.order)
	return out
}

// FindByName returns the identity of the display with the given name.
// Matching is case-insensitive.
func (r *Resolver) FindByName(name string) (model.DisplayIdentity, bool) {
	for _, id := range r.order {
		if strings.EqualFold(r.byIdentity[id].Name, name) {
			return id, true
		}
	}
	return "", false
}

// Topology returns the snapshot the cache was built from.
func (r *Resolver) Topology() model.Topology { return r.topology }
