package id

import "github.com/google/uuid"

// New returns a globally-unique identifier.
func New() string { return uuid.NewString() }

// Object returns a scene-object id. The prefix keeps logs and wire dumps
// readable when object ids are correlated across peers.
func Object() string { return "obj_" + uuid.NewString() }
