package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/efield/components"
)

// ErrUnknownCharge is returned when a charge ID does not name a live charge.
var ErrUnknownCharge = errors.New("unknown charge")

// ChargeSample is a plain copy of one charge, taken at the start of a pass.
type ChargeSample struct {
	ID        components.ChargeID
	Pos       components.Vec3
	Magnitude float32
}

// ChargeSet is the mutable collection of point charges. Charges live as ECS
// entities carrying Position and Charge components.
//
// Mutations and snapshots share one mutex, so an evaluation pass that works
// from a Snapshot always sees a single consistent configuration even when
// input runs on another goroutine.
type ChargeSet struct {
	mu sync.RWMutex

	world  *ecs.World
	mapper *ecs.Map2[components.Position, components.Charge]
	filter *ecs.Filter2[components.Position, components.Charge]

	// entities is indexed by ChargeID.
	entities []ecs.Entity
}

// NewChargeSet creates an empty charge set.
func NewChargeSet() *ChargeSet {
	world := ecs.NewWorld()
	return &ChargeSet{
		world:  world,
		mapper: ecs.NewMap2[components.Position, components.Charge](world),
		filter: ecs.NewFilter2[components.Position, components.Charge](world),
	}
}

// AddCharge places a new charge and returns its ID.
func (cs *ChargeSet) AddCharge(pos components.Vec3, magnitude float32) components.ChargeID {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	id := components.ChargeID(len(cs.entities))
	p := components.Position(pos)
	c := components.Charge{ID: id, Magnitude: magnitude}
	e := cs.mapper.NewEntity(&p, &c)
	cs.entities = append(cs.entities, e)
	return id
}

// SetPosition moves a charge.
func (cs *ChargeSet) SetPosition(id components.ChargeID, pos components.Vec3) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	e, err := cs.entity(id)
	if err != nil {
		return err
	}
	p, _ := cs.mapper.Get(e)
	*p = components.Position(pos)
	return nil
}

// SetMagnitude changes a charge's signed magnitude. Any finite value is accepted.
func (cs *ChargeSet) SetMagnitude(id components.ChargeID, magnitude float32) error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	e, err := cs.entity(id)
	if err != nil {
		return err
	}
	_, c := cs.mapper.Get(e)
	c.Magnitude = magnitude
	return nil
}

// Get returns a copy of one charge.
func (cs *ChargeSet) Get(id components.ChargeID) (ChargeSample, error) {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	e, err := cs.entity(id)
	if err != nil {
		return ChargeSample{}, err
	}
	p, c := cs.mapper.Get(e)
	return ChargeSample{ID: c.ID, Pos: p.Vec(), Magnitude: c.Magnitude}, nil
}

// Len returns the number of charges.
func (cs *ChargeSet) Len() int {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	return len(cs.entities)
}

// IDs returns every charge ID in creation order.
func (cs *ChargeSet) IDs() []components.ChargeID {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	ids := make([]components.ChargeID, len(cs.entities))
	for i := range ids {
		ids[i] = components.ChargeID(i)
	}
	return ids
}

// ForEach calls fn for every charge. fn must not mutate the set.
func (cs *ChargeSet) ForEach(fn func(ChargeSample)) {
	// Queries lock the ECS world, which is not safe to share between readers.
	cs.mu.Lock()
	defer cs.mu.Unlock()

	query := cs.filter.Query()
	for query.Next() {
		p, c := query.Get()
		fn(ChargeSample{ID: c.ID, Pos: p.Vec(), Magnitude: c.Magnitude})
	}
}

// Snapshot appends a copy of every charge to dst[:0], ordered by ID, and
// returns it. Passing the previous snapshot back avoids reallocating per frame.
func (cs *ChargeSet) Snapshot(dst []ChargeSample) []ChargeSample {
	cs.mu.RLock()
	defer cs.mu.RUnlock()

	dst = dst[:0]
	for _, e := range cs.entities {
		p, c := cs.mapper.Get(e)
		dst = append(dst, ChargeSample{ID: c.ID, Pos: p.Vec(), Magnitude: c.Magnitude})
	}
	return dst
}

func (cs *ChargeSet) entity(id components.ChargeID) (ecs.Entity, error) {
	if int(id) >= len(cs.entities) {
		return ecs.Entity{}, fmt.Errorf("%w: %d", ErrUnknownCharge, id)
	}
	e := cs.entities[id]
	if !cs.world.Alive(e) {
		return ecs.Entity{}, fmt.Errorf("%w: %d", ErrUnknownCharge, id)
	}
	return e, nil
}
