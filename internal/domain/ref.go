package domain

import "time"

// RefKind tells persisted records apart from projected ones.
type RefKind uint8

const (
	RefPersisted RefKind = iota + 1
	RefVirtual
)

const refDateLayout = "2006-01-02"

// Ref identifies a transaction-shaped record. A persisted record is known by
// its storage ID; a virtual occurrence by its source ID and occurrence date,
// so the two identifier spaces never collide.
type Ref struct {
	kind RefKind
	id   string
	on   time.Time
}

// PersistedRef references a stored transaction.
func PersistedRef(id string) Ref {
	return Ref{kind: RefPersisted, id: id}
}

// VirtualRef references the occurrence of sourceID on the given day.
func VirtualRef(sourceID string, on time.Time) Ref {
	return Ref{kind: RefVirtual, id: sourceID, on: on}
}

// Kind returns the ref kind. The zero Ref reports RefPersisted.
func (r Ref) Kind() RefKind {
	if r.kind == 0 {
		return RefPersisted
	}
	return r.kind
}

// IsVirtual reports whether the ref points at a projected occurrence.
func (r Ref) IsVirtual() bool {
	return r.kind == RefVirtual
}

// SourceID returns the storage ID, or the ID of the recurring source for
// virtual refs.
func (r Ref) SourceID() string {
	return r.id
}

// OccurrenceDate returns the occurrence day of a virtual ref.
func (r Ref) OccurrenceDate() (time.Time, bool) {
	if r.kind != RefVirtual {
		return time.Time{}, false
	}
	return r.on, true
}

// String renders "id" for persisted refs and "id@2006-01-02" for virtual ones.
func (r Ref) String() string {
	if r.kind == RefVirtual {
		return r.id + "@" + r.on.Format(refDateLayout)
	}
	return r.id
}
