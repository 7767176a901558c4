package artifact

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"
)

const DefaultCleanInterval = time.Hour

// Cleaner removes artifacts older than the retention period. A zero retention
// disables it.
type Cleaner struct {
	dir       string
	retention time.Duration
	now       func() time.Time
}

func NewCleaner(dir string, retention time.Duration) *Cleaner {
	return &Cleaner{dir: dir, retention: retention, now: time.Now}
}

// Start runs the cleanup loop until ctx is done.
func (c *Cleaner) Start(ctx context.Context, interval time.Duration) {
	if c.retention <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultCleanInterval
	}
	go c.cleanupLoop(ctx, interval)
}

func (c *Cleaner) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Sweep(); err != nil {
				log.Printf("cleanup artifacts error: %v", err)
			}
		}
	}
}

// Sweep deletes expired regular files in the artifact dir and returns how
// many were removed.
func (c *Cleaner) Sweep() (int, error) {
	if c.retention <= 0 {
		return 0, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := c.now().Add(-c.retention)
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove artifact %s failed: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
