package core

import "errors"

var (
	// ErrPermissionDenied rejects a guest post. Surfaced to the sender only,
	// never fatal for the connection.
	ErrPermissionDenied = errors.New("guests cannot post")

	// ErrNotMember means the connection is not (or no longer) a member of the
	// room it addressed.
	ErrNotMember = errors.New("not a room member")

	// ErrRoomClosed marks a room that emptied and left the registry while a
	// caller still held a reference. Callers retry against GetOrCreate.
	ErrRoomClosed = errors.New("room closed")
)
