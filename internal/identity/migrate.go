package identity

import (
	"fmt"

	"github.com/jmylchreest/notchd/internal/model"
)

// PreferenceStore persists the preferred display.
type PreferenceStore interface {
	// PreferredDisplay returns the stored identity and the legacy name-based
	// preference, either of which may be empty.
	PreferredDisplay() (model.DisplayIdentity, string, error)
	// MigratePreferredDisplay stores id and clears the legacy name.
	MigratePreferredDisplay(id model.DisplayIdentity) error
}

// MigrationResult describes what MigrateLegacy did.
type MigrationResult int

const (
	// MigrationNotNeeded means an identity-based preference already existed.
	MigrationNotNeeded MigrationResult = iota
	// MigrationNoPreference means neither preference existed.
	MigrationNoPreference
	// MigrationMatched means the legacy name matched a current display.
	MigrationMatched
	// MigrationFallback means the legacy name matched nothing and the
	// primary display was used instead.
	MigrationFallback
	// MigrationAlreadyRan means this resolver already migrated once.
	MigrationAlreadyRan
)

func (m MigrationResult) String() string {
	switch m {
	case MigrationNotNeeded:
		return "not-needed"
	case MigrationNoPreference:
		return "no-preference"
	case MigrationMatched:
		return "matched"
	case MigrationFallback:
		return "fallback"
	case MigrationAlreadyRan:
		return "already-ran"
	default:
		return "unknown"
	}
}

// MigrateLegacy converts a name-based preferred display into an identity.
// It runs at most once per resolver and must follow a Rebuild. The returned
// identity is the preference in force afterwards; empty means "primary".
func (r *Resolver) MigrateLegacy(store PreferenceStore) (model.DisplayIdentity, MigrationResult, error) {
	if r.migrated {
		return "", MigrationAlreadyRan, nil
	}
	r.migrated = true

	id, legacy, err := store.PreferredDisplay()
	if err != nil {
		return "", MigrationNotNeeded, fmt.Errorf("reading preferred display: %w", err)
	}
	if id != "" {
		return id, MigrationNotNeeded, nil
	}
	if legacy == "" {
		return "", MigrationNoPreference, nil
	}

	result := MigrationMatched
	target, ok := r.FindByName(legacy)
	if !ok {
		result = MigrationFallback
		target, _ = r.Primary()
		r.logger.Warn("legacy preferred display not found, using primary", "name", legacy, "identity", target)
	}

	if err := store.MigratePreferredDisplay(target); err != nil {
		return target, result, fmt.Errorf("saving migrated preferred display: %w", err)
	}
	r.logger.Info("migrated legacy preferred display", "name", legacy, "identity", target, "result", result.String())
	return target, result, nil
}
