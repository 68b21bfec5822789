// Package core provides display lookup logic shared by the CLI commands.
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmylchreest/notchd/internal/display"
	"github.com/jmylchreest/notchd/internal/model"
)

// Resolved returns the displays that have an identity, in topology order.
// Indexes used by LookupByIndex refer to this list.
func Resolved(displays []display.DisplayStatus) []display.DisplayStatus {
	var result []display.DisplayStatus
	for _, d := range displays {
		if d.Identity != "" {
			result = append(result, d)
		}
	}
	return result
}

// LookupByIdentity finds a display by identity, ignoring case.
// Returns nil if not found.
func LookupByIdentity(displays []display.DisplayStatus, id model.DisplayIdentity) *display.DisplayStatus {
	for i := range displays {
		if displays[i].Identity != "" && strings.EqualFold(string(displays[i].Identity), string(id)) {
			return &displays[i]
		}
	}
	return nil
}

// LookupByIndex finds a resolved display by its index (1-based for user-friendliness).
// Returns nil if index is out of bounds.
func LookupByIndex(displays []display.DisplayStatus, index int) *display.DisplayStatus {
	resolved := Resolved(displays)
	// Convert to 0-based
	idx := index - 1
	if idx < 0 || idx >= len(resolved) {
		return nil
	}
	return &resolved[idx]
}

// Search finds resolved displays whose connector or name equals term.
// Case-insensitive.
func Search(displays []display.DisplayStatus, term string) []display.DisplayStatus {
	var result []display.DisplayStatus
	for _, d := range Resolved(displays) {
		if strings.EqualFold(d.Handle, term) || strings.EqualFold(d.Name, term) {
			result = append(result, d)
		}
	}
	return result
}

// LookupDisplay resolves a user query against the topology. The query may
// be an identity, a 1-based index, a connector or a display name.
func LookupDisplay(displays []display.DisplayStatus, query string) (*display.DisplayStatus, error) {
	query = strings.TrimSpace(query)
	if id := ExtractIdentity(query); id != "" {
		if d := LookupByIdentity(displays, id); d != nil {
			return d, nil
		}
	}
	if index, err := strconv.Atoi(query); err == nil {
		if d := LookupByIndex(displays, index); d != nil {
			return d, nil
		}
		return nil, fmt.Errorf("no display at index %d", index)
	}

	matches := Search(displays, query)
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no display matches %q", query)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%q matches %d displays, use a connector or identity", query, len(matches))
	}
}

// identityPattern matches a UUID in any case.
var identityPattern = regexp.MustCompile(`\b[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\b`)

// ExtractIdentity returns the first identity found in line, upper-cased.
// Handles:
//   - Bare identity: "7D0F4F9E-3C1A-5B8E-9A4E-6E6F74636864"
//   - Dmenu output: "1 | DP-1 | DELL U2720Q | primary | 7D0F4F9E-..."
//   - Any line containing a UUID pattern
func ExtractIdentity(line string) model.DisplayIdentity {
	match := identityPattern.FindString(line)
	if match == "" {
		return ""
	}
	return model.DisplayIdentity(strings.ToUpper(match))
}
