package ecs

import (
	"github.com/phanxgames/arbor"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// HierarchyEventType is the Donburi event type for arbor hierarchy events.
// Subscribe to this in your ECS systems to react to entities being created,
// reparented and destroyed.
var HierarchyEventType = events.NewEventType[arbor.HierarchyEvent]()

// Node is the component that ties a Donburi entity to an arbor entity.
type Node struct {
	ID arbor.EntityID
}

// NodeComponent is the Donburi component type for Node.
var NodeComponent = donburi.NewComponentType[Node]()

type donburiStore struct {
	world donburi.World
}

// NewDonburiStore creates an EntityStore backed by a Donburi world.
// Hierarchy events are published to HierarchyEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiStore(world donburi.World) arbor.EntityStore {
	return &donburiStore{world: world}
}

func (s *donburiStore) EmitEvent(event arbor.HierarchyEvent) {
	HierarchyEventType.Publish(s.world, event)
}

// Link creates a Donburi entity carrying a Node component that refers to e.
// Extra component types are added alongside Node.
func Link(world donburi.World, e *arbor.Entity, extra ...donburi.IComponentType) donburi.Entity {
	comps := append([]donburi.IComponentType{NodeComponent}, extra...)
	de := world.Create(comps...)
	NodeComponent.SetValue(world.Entry(de), Node{ID: e.ID()})
	return de
}

// Resolve returns the arbor entity referenced by entry's Node component.
// ok is false when the entry has no Node or the arbor entity is gone.
func Resolve(scene *arbor.Scene, entry *donburi.Entry) (*arbor.Entity, bool) {
	if !entry.HasComponent(NodeComponent) {
		return nil, false
	}
	return scene.Entity(NodeComponent.Get(entry).ID)
}

// PruneDestroyed removes every Donburi entity whose Node refers to an arbor
// entity that no longer exists. It returns the number removed.
func PruneDestroyed(world donburi.World, scene *arbor.Scene) int {
	var stale []donburi.Entity
	NodeComponent.Each(world, func(entry *donburi.Entry) {
		if !scene.Valid(NodeComponent.Get(entry).ID) {
			stale = append(stale, entry.Entity())
		}
	})
	for _, de := range stale {
		world.Remove(de)
	}
	return len(stale)
}
