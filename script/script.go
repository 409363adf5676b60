// Package script defines the contract between the host and the scripts it
// drives: the Script lifecycle interface, script types, the static command
// table and the engine handle given to dynamically loaded scripts.
package script

import (
	"errors"
	"sync"
)

var (
	ErrEntityNotAssigned = errors.New("script: entity id not assigned")
	ErrUnknownCommand    = errors.New("script: unknown command")
	ErrArity             = errors.New("script: wrong number of arguments")
	ErrDuplicateCommand  = errors.New("script: command already registered")
	ErrInvalidName       = errors.New("script: invalid name")
	ErrDuplicateType     = errors.New("script: type already registered")
)

// EntityID is the opaque handle the host uses to tie a script to an entity.
type EntityID string

// Script is implemented by everything the host can attach to an entity.
//
// The host calls AttachEntity once after construction, Start at most once,
// and Update once per frame after Start.
type Script interface {
	Start()
	Update()
	EntityID() (EntityID, error)
	AttachEntity(id EntityID)
}

// Base holds the entity association. Embed it to satisfy the entity half of
// Script.
type Base struct {
	mu       sync.RWMutex
	entity   EntityID
	assigned bool
}

func (b *Base) EntityID() (EntityID, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.assigned {
		return "", ErrEntityNotAssigned
	}
	return b.entity, nil
}

func (b *Base) AttachEntity(id EntityID) {
	b.mu.Lock()
	b.entity = id
	b.assigned = true
	b.mu.Unlock()
}

// EntityLabel returns the entity id for display, or "<unassigned>".
func (b *Base) EntityLabel() string {
	id, err := b.EntityID()
	if err != nil {
		return "<unassigned>"
	}
	return string(id)
}

// SourceNative marks types compiled into the binary.
const SourceNative = "native"

// Factory builds a fresh, unattached script instance.
type Factory func() Script

// Type is a named script factory.
type Type struct {
	Name   string
	Source string
	New    Factory
}

// Dynamic reports whether the type was loaded from a script file.
func (t Type) Dynamic() bool {
	return t.Source != "" && t.Source != SourceNative
}
