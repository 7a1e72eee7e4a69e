package merge

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Janitor reclaims merge artifacts from the shared scratch directory.
// Deletion is best-effort: a missed cleanup wastes disk, never correctness.
type Janitor struct {
	Dir      string
	MaxAge   time.Duration
	Interval time.Duration

	protected mapset.Set[string]
}

func NewJanitor(dir string, maxAge, interval time.Duration) *Janitor {
	return &Janitor{
		Dir:       dir,
		MaxAge:    maxAge,
		Interval:  interval,
		protected: mapset.NewSet[string](),
	}
}

// Protect shields an in-flight artifact from Sweep until Release or Cleanup.
func (j *Janitor) Protect(path string) {
	j.protected.Add(path)
}

func (j *Janitor) Release(path string) {
	j.protected.Remove(path)
}

// Cleanup deletes one artifact immediately. A missing file is logged and
// swallowed.
func (j *Janitor) Cleanup(path string) {
	j.protected.Remove(path)

	err := os.Remove(path)
	if err == nil {
		return
	}
	if os.IsNotExist(err) {
		log.Printf("janitor: artifact already gone: %s", path)
		return
	}
	log.Printf("janitor: failed to remove %s: %v", path, err)
}

// Sweep deletes every unprotected merge artifact older than MaxAge.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.Dir)
	if err != nil {
		log.Printf("janitor: failed to read %s: %v", j.Dir, err)
		return
	}

	cutoff := time.Now().Add(-j.MaxAge)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), artifactPrefix) {
			continue
		}

		path := filepath.Join(j.Dir, entry.Name())
		if j.protected.Contains(path) {
			continue
		}

		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("janitor: failed to remove %s: %v", path, err)
		}
	}
}

// Run sweeps once immediately, then on every interval tick until the context
// is done.
func (j *Janitor) Run(ctx context.Context) {
	j.Sweep()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.Sweep()
		case <-ctx.Done():
			return
		}
	}
}
