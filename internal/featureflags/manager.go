// Package featureflags evaluates FEATURE_FLAGS rollouts per actor.
package featureflags

import (
	"hash/fnv"
	"strconv"
	"strings"

	"blackdonut/internal/models"
)

// EngagementEvents gates realtime engagement events to partners.
const EngagementEvents = "engagement_events"

// Manager evaluates feature flags defined in a simple key=value list.
// Example: "engagement_events=on,new_feed=25%,legacy_ui=off"
type Manager struct {
	flags map[string]string
}

// NewManager creates a feature-flag manager from a comma-separated config string.
func NewManager(raw string) *Manager {
	out := make(map[string]string)

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}

	return &Manager{flags: out}
}

// Enabled returns whether a flag is enabled for actor.
// Supported values: on/true/1, off/false/0, and N% for a deterministic
// rollout bucketed on the actor. A percentage rollout never includes the zero
// actor.
func (m *Manager) Enabled(name string, actor models.Actor) bool {
	if m == nil {
		return false
	}

	value, ok := m.flags[normalize(name)]
	if !ok {
		return false
	}

	switch value {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	}

	pctRaw, isPct := strings.CutSuffix(value, "%")
	if !isPct {
		return false
	}
	pct, err := strconv.Atoi(pctRaw)
	switch {
	case err != nil || pct <= 0:
		return false
	case pct >= 100:
		return true
	case actor.ID == 0:
		return false
	}
	return rolloutBucket(name, actor) < pct
}

// Snapshot returns evaluated flag status for one actor.
func (m *Manager) Snapshot(actor models.Actor) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	out := make(map[string]bool, len(m.flags))
	for name := range m.flags {
		out[name] = m.Enabled(name, actor)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, actor models.Actor) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(normalize(name) + ":" + actor.String()))
	return int(h.Sum32() % 100)
}
