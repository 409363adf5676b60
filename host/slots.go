package host

import (
	"slices"

	"github.com/milk9111/scripthost/script"
)

// attachment is one script instance bound to an entity.
type attachment struct {
	id       string
	typeName string
	script   script.Script
	dynamic  bool
	started  bool
}

type entitySlot struct {
	entity      script.EntityID
	attachments []*attachment
}

// slots stores entity slots densely, keyed by entity id. Iteration follows
// insertion order, which removal preserves by shifting the tail down.
type slots struct {
	dense  []*entitySlot
	sparse map[script.EntityID]int
}

// Has returns true if the entity has a slot.
func (s *slots) Has(id script.EntityID) bool {
	if s == nil || s.sparse == nil {
		return false
	}
	idx, ok := s.sparse[id]
	return ok && idx >= 0 && idx < len(s.dense) && s.dense[idx].entity == id
}

// Get returns the slot for id, or nil.
func (s *slots) Get(id script.EntityID) *entitySlot {
	if !s.Has(id) {
		return nil
	}
	return s.dense[s.sparse[id]]
}

// GetOrCreate returns the slot for id, inserting an empty one if needed.
func (s *slots) GetOrCreate(id script.EntityID) *entitySlot {
	if slot := s.Get(id); slot != nil {
		return slot
	}
	if s.sparse == nil {
		s.sparse = map[script.EntityID]int{}
	}
	slot := &entitySlot{entity: id}
	s.dense = append(s.dense, slot)
	s.sparse[id] = len(s.dense) - 1
	return slot
}

// Remove deletes the slot for id if present.
func (s *slots) Remove(id script.EntityID) bool {
	if !s.Has(id) {
		return false
	}
	idx := s.sparse[id]
	s.dense = slices.Delete(s.dense, idx, idx+1)
	delete(s.sparse, id)
	for i := idx; i < len(s.dense); i++ {
		s.sparse[s.dense[i].entity] = i
	}
	return true
}

// Slots returns the dense slot list.
func (s *slots) Slots() []*entitySlot {
	if s == nil {
		return nil
	}
	return s.dense
}

func (s *slots) Len() int {
	if s == nil {
		return 0
	}
	return len(s.dense)
}

func (s *slots) Reset() {
	s.dense = nil
	s.sparse = nil
}
