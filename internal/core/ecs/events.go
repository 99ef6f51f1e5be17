package ecs

// Lifecycle events emitted by EntityRepository. They are delivered on the
// frame after they happen.

type EntityCreated struct {
	UID EntityUID
}

type EntityDeleted struct {
	UID EntityUID
}

type ComponentAttached struct {
	UID EntityUID
	TID ComponentTID
	SID ComponentSID
}

type ComponentDetached struct {
	UID EntityUID
	TID ComponentTID
	SID ComponentSID
}
