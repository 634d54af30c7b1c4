package main

import (
	"fmt"
	"slices"

	"bookcatalogue/internal/config"
	"bookcatalogue/internal/store"
)

// storageFor returns base with its backend replaced by name.
func storageFor(base config.Storage, name string) (config.Storage, error) {
	if !slices.Contains(store.Backends, name) {
		return config.Storage{}, fmt.Errorf("unknown backend %q (supported: %v)", name, store.Backends)
	}
	base.Backend = name
	return base, nil
}

func checkPair(from, to string) error {
	if from == to {
		return fmt.Errorf("source and destination are both %q", from)
	}
	if from == "memory" || to == "memory" {
		return fmt.Errorf("the memory backend does not outlive the process")
	}
	return nil
}
