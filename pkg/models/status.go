package models

import "time"

// ModelState describes where the inference resource is in its lifecycle.
type ModelState string

const (
	ModelUnloaded  ModelState = "unloaded"
	ModelLoading   ModelState = "loading"
	ModelLoaded    ModelState = "loaded"
	ModelUnloading ModelState = "unloading"
)

// ModelStatus is an immutable snapshot of the process-wide inference
// resource state. Only the resource guard writes the underlying state;
// everyone else reads a copy of it through this type.
type ModelStatus struct {
	State      ModelState `json:"state"`
	Runtime    string     `json:"runtime"`
	LoadedAt   time.Time  `json:"loaded_at,omitzero"`
	LastUsedAt time.Time  `json:"last_used_at,omitzero"`
}

// Loaded reports whether the resource is ready to serve an inference call.
func (s ModelStatus) Loaded() bool { return s.State == ModelLoaded }
