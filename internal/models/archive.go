package models

import "time"

// Archive describes one stored backup: the store file plus the photo tree
// bundled into a single zip. Archives are immutable once written; they are
// removed either by retention eviction or by an explicit operator delete.
type Archive struct {
	Name      string    `json:"name"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}
