// Package registry holds the static location table the relay serves.
package registry

import (
	"fmt"
	"time"

	"visitor-relay/internal/common/config"
	"visitor-relay/internal/models"
)

// Registry maps location codes to their display info. Built once at
// startup; lookups are read-only and safe for concurrent use.
type Registry struct {
	locations map[string]models.LocationInfo
}

// New builds the registry from configuration. Every timezone is resolved
// once here so a bad IANA identifier fails the process at startup instead
// of the first request.
func New(cfg map[string]config.LocationConfig) (*Registry, error) {
	locations := make(map[string]models.LocationInfo, len(cfg))
	for code, loc := range cfg {
		if _, err := time.LoadLocation(loc.Timezone); err != nil {
			return nil, fmt.Errorf("location %s has invalid timezone %q: %w", code, loc.Timezone, err)
		}

		prefix := loc.ArchivePrefix
		if prefix == "" {
			prefix = code
		}

		locations[code] = models.LocationInfo{
			Code:          code,
			DisplayName:   loc.DisplayName,
			Timezone:      loc.Timezone,
			ArchivePrefix: prefix,
		}
	}

	return &Registry{locations: locations}, nil
}

// Lookup returns the location for code, or ok=false when the code is not
// served by this deployment.
func (r *Registry) Lookup(code string) (models.LocationInfo, bool) {
	loc, ok := r.locations[code]
	return loc, ok
}
