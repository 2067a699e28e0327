// Package notify provides synchronous one-to-many event delivery.
package notify

import (
	"github.com/neutonm/Amber-Launcher-sub000/internal/container"
	apperrors "github.com/neutonm/Amber-Launcher-sub000/internal/platform/errors"
)

// Flags qualify a notification. Their meaning is chosen by the notifier.
type Flags uint32

// UpdateFunc receives a notification together with the observer's owner.
type UpdateFunc func(owner any, flags Flags, data any)

// Observer is a value record: Attach stores a copy of it.
type Observer struct {
	Owner  any
	Update UpdateFunc
}

// ObserverID identifies one attachment. Two attachments of identical
// Observer records get distinct IDs and can be detached independently.
type ObserverID uint64

type attachment struct {
	id       ObserverID
	observer Observer
}

// Subject fans notifications out to its attached observers.
type Subject struct {
	observers *container.Array[attachment]
	nextID    ObserverID
	depth     int
}

// NewSubject returns a subject with no observers.
func NewSubject() *Subject {
	return &Subject{observers: container.New[attachment](0)}
}

// Attach appends a copy of o.
func (s *Subject) Attach(o Observer) (ObserverID, error) {
	if s.depth > 0 {
		return 0, apperrors.New(apperrors.CodeBusy, "attach during notify")
	}
	s.nextID++
	if err := s.observers.PushBack(attachment{id: s.nextID, observer: o}); err != nil {
		return 0, err
	}
	return s.nextID, nil
}

// Detach removes the attachment with the given id. It reports whether one was found.
func (s *Subject) Detach(id ObserverID) (bool, error) {
	if s.depth > 0 {
		return false, apperrors.New(apperrors.CodeBusy, "detach during notify")
	}
	index := s.observers.FindByPredicate(func(a attachment, ctx any) bool {
		return a.id == ctx.(ObserverID)
	}, id)
	if index == container.NotFound {
		return false, nil
	}
	return true, s.observers.Erase(index)
}

// Len returns the number of attached observers.
func (s *Subject) Len() int {
	return s.observers.Len()
}

// Notify calls every attached observer once, in attachment order.
func (s *Subject) Notify(flags Flags, data any) {
	s.depth++
	defer func() { s.depth-- }()
	for _, a := range s.observers.All() {
		if a.observer.Update != nil {
			a.observer.Update(a.observer.Owner, flags, data)
		}
	}
}

// Cleanup detaches everything and releases storage.
func (s *Subject) Cleanup() {
	s.observers.Cleanup()
}
