package backup

import (
	"os"
	"path/filepath"
	"sort"
)

// enforceRetention deletes the oldest archives until the retained archives
// plus the incoming one fit the budget. The incoming archive itself is never
// evicted: one archive larger than the whole budget is accepted as-is, the
// evictor only guarantees the retained set is as small as possible.
func (m *Manager) enforceRetention(incomingName string, incomingSize int64) error {
	archives, err := m.listArchives()
	if err != nil {
		return err
	}

	sort.Slice(archives, func(i, j int) bool {
		return archives[i].CreatedAt.Before(archives[j].CreatedAt)
	})

	var total int64
	for _, a := range archives {
		if a.Name == incomingName {
			continue
		}
		total += a.SizeBytes
	}

	for _, a := range archives {
		if total+incomingSize <= m.budget {
			break
		}
		if a.Name == incomingName {
			continue
		}
		if err := os.Remove(filepath.Join(m.backupDir, a.Name)); err != nil {
			return err
		}
		total -= a.SizeBytes
		m.logger.Info().
			Str("name", a.Name).
			Int64("size_bytes", a.SizeBytes).
			Msg("Evicted archive to stay within retention budget")
	}

	return nil
}
