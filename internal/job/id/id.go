// Package id provides unique identifier generation for video jobs.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generate creates a new unique job ID.
// Format: vid-<uuid>
// Example: vid-6ba7b810-9dad-11d1-80b4-00c04fd430c8
func Generate() string {
	return fmt.Sprintf("vid-%s", uuid.NewString())
}
