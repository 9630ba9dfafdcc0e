// Package ecs provides ECS adapters for arbor's entity hierarchy.
//
// [NewDonburiStore] bridges arbor hierarchy events (created, reparented,
// destroyed) into a [Donburi] world as typed events. Subscribe to
// [HierarchyEventType] in your ECS systems to receive them. [Link] attaches a
// [Node] component to a Donburi entity so components can refer back to a
// stable arbor EntityID.
//
// Usage:
//
//	store := ecs.NewDonburiStore(world)
//	scene.SetEntityStore(store)
//	de := ecs.Link(world, scene.NewEntity("hero"))
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
