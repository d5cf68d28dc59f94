// Package usecase provides application use cases (Clean Architecture).
//
// Writes that touch more than one record run in a single transaction:
// approving a spare-part request together with its stock decrement, and
// creating an invoice together with the service link that freezes it.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pitlane.io/pitlane/internal/domain"
	"pitlane.io/pitlane/internal/governance/consistency"
	apperrors "pitlane.io/pitlane/internal/pkg/errors"
	"pitlane.io/pitlane/internal/repository"
)

// StockAtomicWriter executes request decisions and the matching stock
// movement in one transaction.
type StockAtomicWriter struct {
	store repository.Store
	now   func() time.Time
}

// NewStockAtomicWriter creates a new StockAtomicWriter.
func NewStockAtomicWriter(store repository.Store) *StockAtomicWriter {
	return &StockAtomicWriter{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// ApproveAndDecrement atomically:
// 1) locks the owning service and checks it still accepts parts,
// 2) flips the request Pending -> Approved,
// 3) decrements the part's stock by the requested quantity.
//
// Either both writes commit or neither does. A lost race on the request
// yields REQUEST_ALREADY_DECIDED, a lost race on stock INSUFFICIENT_STOCK.
func (w *StockAtomicWriter) ApproveAndDecrement(ctx context.Context, requestID, approver string) (*domain.SparePartRequest, error) {
	if w.store == nil {
		return nil, fmt.Errorf("stock atomic writer is not initialized")
	}

	var out *domain.SparePartRequest
	err := w.store.InTx(ctx, func(tx repository.Store) error {
		req, err := tx.GetSparePartRequest(ctx, requestID)
		if err != nil {
			return lookupErr(err, apperrors.CodeSparePartRequestNotFound, "spare part request", requestID)
		}

		svc, err := tx.LockService(ctx, req.ServiceID)
		if err != nil {
			return lookupErr(err, apperrors.CodeServiceNotFound, "service", req.ServiceID)
		}
		if err := consistency.CheckAcceptsParts(svc); err != nil {
			return err
		}

		ok, err := tx.DecideSparePartRequest(ctx, requestID, domain.RequestStatusApproved, approver, w.now())
		if err != nil {
			return fmt.Errorf("approve request %s: %w", requestID, err)
		}
		if !ok {
			return alreadyDecided(requestID)
		}

		ok, err = tx.DecrementStock(ctx, req.SparePartID, req.Quantity)
		if err != nil {
			return fmt.Errorf("decrement stock of part %s: %w", req.SparePartID, err)
		}
		if !ok {
			available := 0
			if part, perr := tx.GetSparePart(ctx, req.SparePartID); perr == nil {
				available = part.Quantity
			}
			return apperrors.ErrInsufficientStock(req.SparePartID, req.Quantity, available)
		}

		out, err = tx.GetSparePartRequest(ctx, requestID)
		if err != nil {
			return fmt.Errorf("reload request %s: %w", requestID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Reject flips the request Pending -> Rejected. Stock is untouched.
func (w *StockAtomicWriter) Reject(ctx context.Context, requestID, approver string) (*domain.SparePartRequest, error) {
	if w.store == nil {
		return nil, fmt.Errorf("stock atomic writer is not initialized")
	}

	ok, err := w.store.DecideSparePartRequest(ctx, requestID, domain.RequestStatusRejected, approver, w.now())
	if err != nil {
		return nil, fmt.Errorf("reject request %s: %w", requestID, err)
	}

	req, err := w.store.GetSparePartRequest(ctx, requestID)
	if err != nil {
		return nil, lookupErr(err, apperrors.CodeSparePartRequestNotFound, "spare part request", requestID)
	}
	if !ok {
		return nil, alreadyDecided(requestID)
	}
	return req, nil
}

func alreadyDecided(requestID string) error {
	return apperrors.Conflict(apperrors.CodeRequestAlreadyDecided, "spare part request has already been decided").
		WithParams(map[string]interface{}{"id": requestID})
}

// lookupErr maps a repository miss to a 404 and wraps anything else.
func lookupErr(err error, code, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.ErrNotFoundf(code, resource, id)
	}
	return fmt.Errorf("load %s %s: %w", resource, id, err)
}
