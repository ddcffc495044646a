package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/stock-flow/internal/errs"
	"github.com/Houeta/stock-flow/internal/inventory"
	"github.com/Houeta/stock-flow/internal/models"
	"github.com/Houeta/stock-flow/internal/repository"
)

// GetState implements an interface method for retrieving state from the database.
func (r *Repository) GetState(ctx context.Context) (models.InventorySnapshot, error) {
	const opn = "repository.sqlite.GetState"

	// 1. A marker row tells an empty snapshot apart from a database that was never written.
	var updatedAt string
	err := r.db.QueryRowContext(ctx, "SELECT updated_at FROM scan_state WHERE id = 1").Scan(&updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrStateNotFound
		}
		return nil, errs.Mark(fmt.Errorf("%s: failed to get scan state: %w", opn, err), errs.ErrStorage)
	}

	// 2. Get all products.
	snapshot, err := r.getProducts(ctx)
	if err != nil {
		return nil, errs.Mark(fmt.Errorf("%s: %w", opn, err), errs.ErrStorage)
	}

	// 3. Attach sizes in their stored order.
	if err = r.getSizes(ctx, snapshot); err != nil {
		return nil, errs.Mark(fmt.Errorf("%s: %w", opn, err), errs.ErrStorage)
	}

	for id, p := range snapshot {
		if !p.Classification.Valid() {
			p.Classification = inventory.Classify(p.Available, p.SoldOut)
			snapshot[id] = p
		}
	}

	r.log.DebugContext(ctx, "Loaded state", "op", opn, "updated_at", updatedAt, "products", len(snapshot))

	return snapshot, nil
}

func (r *Repository) getProducts(ctx context.Context) (models.InventorySnapshot, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, title, url, status FROM products")
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	defer rows.Close()

	snapshot := make(models.InventorySnapshot)
	for rows.Next() {
		var (
			p      models.ProductSnapshot
			status string
		)
		if err = rows.Scan(&p.ID, &p.Title, &p.URL, &status); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Classification = models.Classification(status)
		p.Available = []string{}
		p.SoldOut = []string{}
		snapshot[p.ID] = p
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return snapshot, nil
}

func (r *Repository) getSizes(ctx context.Context, snapshot models.InventorySnapshot) error {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT product_id, size, available FROM product_sizes ORDER BY product_id, position",
	)
	if err != nil {
		return fmt.Errorf("failed to get sizes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID, size string
			available       bool
		)
		if err = rows.Scan(&productID, &size, &available); err != nil {
			return fmt.Errorf("failed to scan size: %w", err)
		}

		p, found := snapshot[productID]
		if !found {
			continue
		}
		if available {
			p.Available = append(p.Available, size)
		} else {
			p.SoldOut = append(p.SoldOut, size)
		}
		snapshot[productID] = p
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows iteration error: %w", err)
	}

	return nil
}

// UpdateState atomically replaces the stored snapshot using a transaction.
func (r *Repository) UpdateState(ctx context.Context, snapshot models.InventorySnapshot) error {
	const opn = "repository.sqlite.UpdateState"

	if err := r.updateState(ctx, snapshot); err != nil {
		return errs.Mark(fmt.Errorf("%s: %w", opn, err), errs.ErrStorage)
	}

	r.log.DebugContext(ctx, "Stored state", "op", opn, "products", len(snapshot))

	return nil
}

func (r *Repository) updateState(ctx context.Context, snapshot models.InventorySnapshot) error {
	// 1. begin transaction
	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // returns sql.ErrTxDone after a successful commit

	// 2. Update (or insert) the scan marker.
	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO scan_state (id, updated_at) VALUES (1, datetime('now'))")
	if err != nil {
		return fmt.Errorf("failed to update scan state: %w", err)
	}

	// 3. Completely clear the previous snapshot.
	if _, err = tx.ExecContext(ctx, "DELETE FROM product_sizes"); err != nil {
		return fmt.Errorf("failed to delete old sizes: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("failed to delete old products: %w", err)
	}

	// 4. Prepare the inserts.
	productStmt, err := tx.PrepareContext(ctx, "INSERT INTO products (id, title, url, status) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare product insert statement: %w", err)
	}
	defer productStmt.Close()

	sizeStmt, err := tx.PrepareContext(
		ctx,
		"INSERT INTO product_sizes (product_id, size, available, position) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("failed to prepare size insert statement: %w", err)
	}
	defer sizeStmt.Close()

	// 5. Insert every product with its sizes, in ID order to keep writes deterministic.
	for _, id := range snapshot.IDs() {
		p := snapshot[id]
		if _, err = productStmt.ExecContext(ctx, id, p.Title, p.URL, string(p.Classification)); err != nil {
			return fmt.Errorf("failed to insert product with id %s: %w", id, err)
		}

		position := 0
		for _, group := range []struct {
			sizes     []string
			available bool
		}{{p.Available, true}, {p.SoldOut, false}} {
			for _, size := range group.sizes {
				if _, err = sizeStmt.ExecContext(ctx, id, size, group.available, position); err != nil {
					return fmt.Errorf("failed to insert size %s of product %s: %w", size, id, err)
				}
				position++
			}
		}
	}

	// 6. If all operations went through without errors - confirm the transaction.
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
