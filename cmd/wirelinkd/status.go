package main

import (
	"sync/atomic"

	"github.com/danmuck/wirelink/internal/admin"
)

// statusBoard decouples the admin surface from the endpoint. The
// session loop owns the endpoint and publishes snapshots; admin handler
// goroutines only ever load the latest one, so the deliberately
// unguarded endpoint state never crosses a goroutine boundary.
type statusBoard struct {
	current atomic.Pointer[admin.Status]
}

func newStatusBoard() *statusBoard {
	b := &statusBoard{}
	b.current.Store(&admin.Status{})
	return b
}

func (b *statusBoard) Publish(s admin.Status) {
	b.current.Store(&s)
}

func (b *statusBoard) Snapshot() admin.Status {
	return *b.current.Load()
}
