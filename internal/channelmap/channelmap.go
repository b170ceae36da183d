// Package channelmap loads the static mapping from upstream listings-
// provider channel identifiers to internal service channel numbers
// (C13), and extracts the canonical form from a possibly-suffixed
// upstream identifier.
package channelmap

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// upstreamIDPattern matches the canonical upstream channel identifier
// form, e.g. "I123.456" or "I123.456.789"; a suffixed identifier like
// "I123.456.US" still yields "I123.456" as its canonical prefix.
var upstreamIDPattern = regexp.MustCompile(`^I[0-9]+\.[0-9]+(\.[0-9]+)?`)

// Map holds the upstream-id → service-channel-number mapping.
type Map struct {
	byUpstreamID map[string]string
}

// New returns an empty Map.
func New() *Map {
	return &Map{byUpstreamID: make(map[string]string)}
}

// Load reads a mapping file of "<upstream-id>,<service-channel-number>"
// lines (blank lines and lines starting with '#' are ignored).
func Load(r io.Reader) (*Map, error) {
	m := New()
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("channelmap: line %d: expected \"upstream_id,channel_number\", got %q", lineNo, line)
		}
		upstreamID := strings.TrimSpace(parts[0])
		channelNumber := strings.TrimSpace(parts[1])
		if upstreamID == "" || channelNumber == "" {
			continue
		}
		m.byUpstreamID[CanonicalID(upstreamID)] = channelNumber
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("channelmap: reading map: %w", err)
	}
	return m, nil
}

// CanonicalID extracts the canonical "I<n>.<n>[.<n>]" prefix from a
// possibly-suffixed upstream identifier. Identifiers that do not match
// the expected form are returned unchanged.
func CanonicalID(upstreamID string) string {
	if match := upstreamIDPattern.FindString(upstreamID); match != "" {
		return match
	}
	return upstreamID
}

// Resolve looks up the service channel number for an upstream channel
// id, matching xmltv.ParseOptions.ResolveChannelID's signature.
func (m *Map) Resolve(upstreamID string) (string, bool) {
	channelNumber, ok := m.byUpstreamID[CanonicalID(upstreamID)]
	return channelNumber, ok
}

// ServiceChannelIDs returns every service channel number the map
// declares, used by the orchestrator's source-coverage check.
func (m *Map) ServiceChannelIDs() []string {
	seen := make(map[string]bool, len(m.byUpstreamID))
	var ids []string
	for _, channelNumber := range m.byUpstreamID {
		if !seen[channelNumber] {
			seen[channelNumber] = true
			ids = append(ids, channelNumber)
		}
	}
	return ids
}
