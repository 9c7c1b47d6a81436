package domain

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is a single record-store notification. Before carries the prior
// snapshot for updates and deletes; After carries the new snapshot for
// creates and updates.
type Change struct {
	Kind   ChangeKind
	Before *Ticket
	After  *Ticket
}
