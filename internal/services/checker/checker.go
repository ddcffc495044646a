// Package checker runs one monitoring cycle: fetch, diff, notify and persist.
package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Houeta/stock-flow/internal/catalog"
	"github.com/Houeta/stock-flow/internal/inventory"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/notifier"
	"github.com/Houeta/stock-flow/internal/repository"
	"github.com/google/uuid"
)

// Renderer turns a change set and the current inventory into a deliverable report.
type Renderer interface {
	Render(changes []models.ChangeRecord, current models.InventorySnapshot) (models.Report, error)
}

// Options tune the run.
type Options struct {
	// OnlyNotifyOnChanges skips delivery when nothing changed since the previous scan.
	OnlyNotifyOnChanges bool
}

// Checker is an orchestrator that performs a full verification cycle.
type Checker struct {
	log      *slog.Logger
	fetcher  catalog.Fetcher
	repo     repository.StateRepository
	renderer Renderer
	notifier notifier.Notifier
	opts     Options
}

type Interface interface {
	// Run performs one full monitoring cycle.
	Run(ctx context.Context) (*models.RunResult, error)
}

var _ Interface = (*Checker)(nil)

// NewChecker creates a new Checker instance.
func NewChecker(
	log *slog.Logger,
	fetcher catalog.Fetcher,
	repo repository.StateRepository,
	renderer Renderer,
	notifier notifier.Notifier,
	opts Options,
) *Checker {
	return &Checker{log: log, fetcher: fetcher, repo: repo, renderer: renderer, notifier: notifier, opts: opts}
}

// Run performs the full change checking algorithm.
//
// Any failure before the snapshot is persisted leaves the stored state untouched, so the
// run can be repeated safely. A delivery failure does not prevent persisting; it is
// returned together with the result once the new snapshot is stored.
func (c *Checker) Run(ctx context.Context) (*models.RunResult, error) {
	const opn = "checker.Run"
	runID := uuid.NewString()
	log := c.log.With("op", opn, "run_id", runID)

	// 1. Fetching the whole catalog
	log.InfoContext(ctx, "Fetching catalog")
	products, err := c.fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to fetch catalog: %w", opn, err)
	}

	// 2. Normalizing into today's snapshot
	current := inventory.Normalize(products)
	log.InfoContext(ctx, "Normalized inventory", "products", len(current))

	// 3. Getting the previous snapshot
	previous, err := c.repo.GetState(ctx)
	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		log.InfoContext(ctx, "No previous state found, treating as first run")
		previous = models.InventorySnapshot{}
	case err != nil:
		log.WarnContext(ctx, "Failed to read previous state, treating as empty", "error", err)
		previous = models.InventorySnapshot{}
	}

	// 4. Comparing both snapshots
	changes := inventory.Diff(previous, current)
	counts := models.CountByKind(changes)
	log.InfoContext(
		ctx,
		"Change detection complete",
		"new", counts[models.ChangeNew],
		"changed", counts[models.ChangeChanged],
		"removed", counts[models.ChangeRemoved],
	)

	result := &models.RunResult{RunID: runID, Products: len(current), Changes: changes}

	// 5. Rendering and delivering the report
	if len(changes) > 0 || !c.opts.OnlyNotifyOnChanges {
		report, renderErr := c.renderer.Render(changes, current)
		if renderErr != nil {
			return nil, fmt.Errorf("%s: failed to render report: %w", opn, renderErr)
		}

		if err = c.notifier.Notify(ctx, report); err != nil {
			log.ErrorContext(ctx, "Failed to deliver report", "error", err)
			result.DeliveryErr = err
		} else {
			result.Notified = true
			log.InfoContext(ctx, "Report delivered", "subject", report.Subject)
		}
	} else {
		log.InfoContext(ctx, "No change in availability since last run; not sending report")
	}

	// 6. Persisting the snapshot regardless of delivery
	if err = c.repo.UpdateState(ctx, current); err != nil {
		return nil, fmt.Errorf("%s: failed to update state in repository: %w", opn, err)
	}
	log.InfoContext(ctx, "Successfully updated state in repository")

	if result.DeliveryErr != nil {
		return result, fmt.Errorf("%s: state persisted but report was not delivered: %w", opn, result.DeliveryErr)
	}

	return result, nil
}
