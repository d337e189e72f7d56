// Package lifecycle reconciles the source registry against the feed
// configuration. It mutates source rows only; news items are the
// durable asset and are never deleted here.
package lifecycle

import (
	"newsdesk/config"
	"newsdesk/db"
	"newsdesk/models"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

// Manager applies configuration-driven lifecycle transitions to the
// source registry.
type Manager struct {
	writer *db.Writer
}

func NewManager(writer *db.Writer) *Manager {
	return &Manager{writer: writer}
}

// Reconcile makes the stored active set equal to the configured set:
// configured sources are (created and) activated, everything else is
// deactivated. Running it twice with the same input is a no-op.
func (manager *Manager) Reconcile(cfg *config.Config) error {
	sources := lo.Map(cfg.Feeds, func(feed config.Feed, _ int) models.Source {
		return models.Source{
			Name:     feed.Name,
			URL:      feed.URL,
			Category: feed.Category,
		}
	})

	if err := manager.writer.ReconcileSources(sources); err != nil {
		return err
	}

	log.WithField("active", len(sources)).Info("Reconciled sources with configuration")
	return nil
}

// DeactivateObsolete flips sources missing from the configuration to
// inactive. It never (re)activates anything, so new feeds can be
// added without forcing full resync semantics. Returns the number of
// sources deactivated.
func (manager *Manager) DeactivateObsolete(cfg *config.Config) (int64, error) {
	count, err := manager.writer.DeactivateSourcesExcept(cfg.Names())
	if err != nil {
		return 0, err
	}

	if count > 0 {
		log.WithField("deactivated", count).Info("Deactivated obsolete sources")
	}
	return count, nil
}

// Cleanup permanently removes inactive source rows. Without
// confirmation it is a dry run: the candidate list is returned along
// with ErrConfirmationRequired and nothing is mutated. Items of
// removed sources are retained; they reference the source by name.
func (manager *Manager) Cleanup(confirmed bool) ([]models.Source, error) {
	candidates, err := manager.writer.InactiveSources()
	if err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	if !confirmed {
		return candidates, models.ErrConfirmationRequired
	}

	removed, err := manager.writer.DeleteInactiveSources()
	if err != nil {
		return candidates, err
	}

	log.WithFields(log.Fields{
		"removed": removed,
	}).Info("Removed inactive sources")

	return candidates, nil
}
