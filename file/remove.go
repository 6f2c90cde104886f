package file

import "github.com/filemesh/node/transport"

// Remove deletes basename's manifest entry and asks every currently
// known peer to drop each of its parts. Since the uploader does not
// track which peers actually hold which replica (spec.md §9, an
// intentionally preserved open question), the broadcast goes to every
// peer rather than a tracked subset; removal is fire-and-forget and
// best-effort.
//
// Removing a basename with no manifest entry is a no-op.
func (l *Layer) Remove(basename string) error {
	parts, ok := l.table.Get(basename)
	if !ok {
		l.logger.Printf("file: remove %s: no manifest entry", basename)
		return nil
	}

	peers := l.registry.Snapshot()
	for _, digest := range uniqueOrdered(parts) {
		for _, p := range peers {
			if err := transport.SendDataRemove(p, digest); err != nil {
				l.logger.Printf("file: remove part %s from %s: %v", digest, p, err)
			}
		}
	}

	return l.table.Delete(basename)
}
