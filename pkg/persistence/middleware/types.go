package middleware

import "github.com/aretw0/cartwise/pkg/ports"

// Middleware allows wrapping a CheckpointStore to add behavior.
type Middleware func(ports.CheckpointStore) ports.CheckpointStore
