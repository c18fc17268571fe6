package testsupport

import (
	"testing"

	"reclaim/internal/config"
	"reclaim/internal/logging"
	"reclaim/internal/quarantine"
)

// FixedResolver is a quarantine.PlacementResolver that always returns one
// directory, sidestepping device probing in tests.
type FixedResolver struct {
	Dir string
}

func (r FixedResolver) QuarantineDirFor(string) string {
	return r.Dir
}

// MustOpenStore opens a quarantine.Store for tests and registers cleanup.
// The quarantine directory defaults to the config's fallback directory.
func MustOpenStore(t testing.TB, cfg *config.Config) *quarantine.Store {
	t.Helper()
	return MustOpenStoreWithResolver(t, cfg, FixedResolver{Dir: cfg.Paths.FallbackQuarantineDir})
}

// MustOpenStoreWithResolver opens a quarantine.Store with a custom placement
// resolver.
func MustOpenStoreWithResolver(t testing.TB, cfg *config.Config, resolver quarantine.PlacementResolver) *quarantine.Store {
	t.Helper()

	store, err := quarantine.Open(cfg, resolver, logging.NewNop())
	if err != nil {
		t.Fatalf("quarantine.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}
