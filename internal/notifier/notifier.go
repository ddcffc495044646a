// Package notifier delivers rendered stock reports.
package notifier

import (
	"context"
	"errors"
	"fmt"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/models"
)

// Notifier sends one report through one channel. Failures are marked errs.ErrDelivery.
type Notifier interface {
	Notify(ctx context.Context, report models.Report) error
}

// Multi delivers the report through every channel, even if some of them fail.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, report models.Report) error {
	var failures []error
	for _, n := range m {
		if err := n.Notify(ctx, report); err != nil {
			failures = append(failures, err)
		}
	}

	if len(failures) == 0 {
		return nil
	}

	return errs.Mark(
		fmt.Errorf("%d of %d notifiers failed: %w", len(failures), len(m), errors.Join(failures...)),
		errs.ErrDelivery,
	)
}
