package space

import (
	"slices"
)

// EventKind names a Build Space change.
type EventKind string

const (
	EventNodeAdded        EventKind = "node-added"
	EventNodeRemoved      EventKind = "node-removed"
	EventGeometryAdded    EventKind = "geometry-added"
	EventGeometryReplaced EventKind = "geometry-replaced"
	EventGeometryRemoved  EventKind = "geometry-removed"
	EventMaterialAdded    EventKind = "material-added"
	EventRolledBack       EventKind = "rolled-back"
)

// Event describes one change. Handlers run after the change is visible and
// outside the space lock, so they may query the space.
type Event struct {
	Kind     EventKind
	Node     string
	Record   string
	Previous string
	Material string
}

// EventHandler observes Build Space changes.
type EventHandler func(Event)

// OnEvent registers h for every subsequent change.
func (s *BuildSpace) OnEvent(h EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

func (s *BuildSpace) emit(ev Event) {
	s.mu.RLock()
	handlers := slices.Clone(s.handlers)
	s.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
}

// RegisterMaterial records a material name used by the request and reports
// whether it was new. Registration order is preserved.
func (s *BuildSpace) RegisterMaterial(name string) bool {
	if name == "" {
		return false
	}
	s.mu.Lock()
	if slices.Contains(s.materials, name) {
		s.mu.Unlock()
		return false
	}
	s.materials = append(s.materials, name)
	s.mu.Unlock()
	s.emit(Event{Kind: EventMaterialAdded, Material: name})
	return true
}

// Materials returns the registered materials in registration order.
func (s *BuildSpace) Materials() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.materials)
}
