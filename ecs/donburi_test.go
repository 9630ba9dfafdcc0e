package ecs

import (
	"testing"

	"github.com/phanxgames/arbor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

func newScene() *arbor.Scene {
	return arbor.NewScene(arbor.Config{Capacity: 16, Debug: true, LogLevel: "error"})
}

func TestNewDonburiStore(t *testing.T) {
	world := donburi.NewWorld()
	require.NotNil(t, NewDonburiStore(world))
}

func TestDonburiStore_ImplementsEntityStore(t *testing.T) {
	world := donburi.NewWorld()
	var store arbor.EntityStore = NewDonburiStore(world)
	_ = store // compile-time interface check
}

func TestDonburiStore_HierarchyEvents(t *testing.T) {
	world := donburi.NewWorld()
	scene := newScene()
	scene.SetEntityStore(NewDonburiStore(world))

	var received []arbor.HierarchyEvent
	HierarchyEventType.Subscribe(world, func(w donburi.World, e arbor.HierarchyEvent) {
		received = append(received, e)
	})

	ship := scene.NewEntity("ship")
	turret := scene.NewEntity("turret")
	turret.SetParent(ship)
	turret.Destroy()

	// Events are queued until processed.
	require.Empty(t, received)
	HierarchyEventType.ProcessEvents(world)

	require.Len(t, received, 5)
	assert.Equal(t, arbor.EventCreated, received[0].Type)
	assert.Equal(t, "ship", received[0].Name)
	assert.Equal(t, ship.ID(), received[0].Entity)

	assert.Equal(t, arbor.EventCreated, received[1].Type)

	re := received[2]
	assert.Equal(t, arbor.EventReparented, re.Type)
	assert.Equal(t, ship.ID(), re.Parent)
	assert.True(t, re.OldParent.IsZero())

	// Destroying a child first detaches it to the tail as a root.
	assert.Equal(t, arbor.EventReparented, received[3].Type)
	assert.Equal(t, ship.ID(), received[3].OldParent)
	assert.Equal(t, arbor.EventDestroyed, received[4].Type)
	assert.Equal(t, turret.ID(), received[4].Entity)
	assert.Equal(t, "turret", received[4].Name)
}

func TestDonburiStore_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	store := NewDonburiStore(world)

	var count1, count2 int
	HierarchyEventType.Subscribe(world, func(w donburi.World, e arbor.HierarchyEvent) {
		count1++
	})
	HierarchyEventType.Subscribe(world, func(w donburi.World, e arbor.HierarchyEvent) {
		count2++
	})

	store.EmitEvent(arbor.HierarchyEvent{Type: arbor.EventCreated})
	events.ProcessAllEvents(world)

	assert.Equal(t, 1, count1)
	assert.Equal(t, 1, count2)
}

type velocity struct {
	X, Y float64
}

var velocityComponent = donburi.NewComponentType[velocity]()

func TestLinkAndResolve(t *testing.T) {
	world := donburi.NewWorld()
	scene := newScene()
	e := scene.NewEntity("mover")

	de := Link(world, e, velocityComponent)
	entry := world.Entry(de)
	require.True(t, entry.HasComponent(velocityComponent))

	got, ok := Resolve(scene, entry)
	require.True(t, ok)
	assert.Same(t, e, got)
}

func TestResolveWithoutNode(t *testing.T) {
	world := donburi.NewWorld()
	scene := newScene()
	de := world.Create(velocityComponent)

	_, ok := Resolve(scene, world.Entry(de))
	assert.False(t, ok)
}

func TestPruneDestroyed(t *testing.T) {
	world := donburi.NewWorld()
	scene := newScene()
	root := scene.NewEntity("root")
	child := scene.NewEntity("child")
	other := scene.NewEntity("other")
	child.SetParent(root)

	Link(world, root)
	Link(world, child)
	keep := Link(world, other)

	root.Destroy()

	assert.Equal(t, 2, PruneDestroyed(world, scene))
	assert.Equal(t, 1, world.Len())
	assert.True(t, world.Valid(keep))
	assert.Equal(t, 0, PruneDestroyed(world, scene))
}
