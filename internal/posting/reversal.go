package posting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/crop-trade-ledger/internal/domain/audit"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
)

// ReversalReferenceType tags the stock movements written when a record is voided
const ReversalReferenceType = "REVERSAL"

// Reversal describes a voided business record
type Reversal struct {
	SourceType     ledger.SourceType `json:"source_type"`
	SourceID       int64             `json:"source_id"`
	TransactionRef string            `json:"transaction_ref"`
	ReversalRef    string            `json:"reversal_ref"`
	ReversedAt     time.Time         `json:"reversed_at"`
}

// Reverse voids a business record. Its entries are offset by a REV- journal, both sets
// are flagged deleted, any stock movement is undone and the record is stamped reversed.
// Purchases and sales with live returns must have those returns reversed first.
func (o *Orchestrator) Reverse(ctx context.Context, cmd ReversalCommand) (*Reversal, error) {
	if err := validateCommand(o.validate, cmd); err != nil {
		return nil, o.fail(ctx, "reversal", err)
	}
	if err := o.checkRequest(ctx); err != nil {
		return nil, o.fail(ctx, "reversal", err)
	}

	var (
		result *Reversal
		event  *ledger.JournalEvent
	)
	err := o.uow.Do(ctx, func(ctx context.Context, s unitofwork.Store) error {
		u := o.newUnit(ctx, s)
		rec, err := u.record(ctx, cmd.SourceType, cmd.SourceID)
		if err != nil {
			return err
		}
		ref := rec.TransactionRef()
		if rec.IsReversed() {
			return ledger.ErrAlreadyReversed{Ref: ref}
		}
		if err := u.checkNoLiveReturns(ctx, rec); err != nil {
			return err
		}

		date := ledger.DateOf(dateOr(cmd.Date, u.now))
		j, err := u.ledger.Reverse(ctx, ref, date)
		if err != nil {
			return err
		}
		if err := u.applyDeltas(ctx, j); err != nil {
			return err
		}
		if err := u.undoStock(ctx, rec, date); err != nil {
			return err
		}

		if err := s.Records().MarkReversed(ctx, rec.Source(), rec.RecordID(), u.now); err != nil {
			return err
		}
		voided, err := u.record(ctx, rec.Source(), rec.RecordID())
		if err != nil {
			return err
		}
		if err := u.audit(ctx, rec, audit.OperationReverse, rec, voided); err != nil {
			return err
		}

		event, err = u.finish(ctx, j)
		if err != nil {
			return err
		}
		result = &Reversal{
			SourceType:     rec.Source(),
			SourceID:       rec.RecordID(),
			TransactionRef: ref,
			ReversalRef:    j.Ref,
			ReversedAt:     u.now,
		}
		return nil
	})
	if err != nil {
		return nil, o.fail(ctx, "reversal", err)
	}

	o.committed(ctx, event)
	return result, nil
}

func (u *unit) checkNoLiveReturns(ctx context.Context, rec business.Record) error {
	var kind business.ReturnKind
	switch rec.(type) {
	case *business.Purchase:
		kind = business.ReturnKindPurchase
	case *business.Sale:
		kind = business.ReturnKindSale
	default:
		return nil
	}

	returned, err := u.store.Records().ReturnedQuantity(ctx, kind, rec.RecordID())
	if err != nil {
		return err
	}
	if returned.IsPositive() {
		return shared.NewValidationError("source_id", rec.TransactionRef()+" has returns that must be reversed first")
	}
	return nil
}

// undoStock applies the opposite of the movement the record caused. Inbound stock is
// issued at the current average; outbound stock comes back at the cost it left at.
func (u *unit) undoStock(ctx context.Context, rec business.Record, date time.Time) error {
	ref := inventory.Reference{Type: ReversalReferenceType, ID: rec.RecordID()}

	var err error
	switch r := rec.(type) {
	case *business.Purchase:
		_, _, err = u.stock.RecordOutbound(ctx, r.ItemID, r.Quantity, ref, date)
	case *business.Sale:
		_, _, err = u.stock.RecordInbound(ctx, r.ItemID, r.Quantity, r.UnitCost, ref, date)
	case *business.Adjustment:
		if r.Type.IsOutbound() {
			_, _, err = u.stock.RecordInbound(ctx, r.ItemID, r.Quantity, r.UnitCost, ref, date)
		} else {
			_, _, err = u.stock.RecordOutbound(ctx, r.ItemID, r.Quantity, ref, date)
		}
	case *business.Return:
		if r.Kind == business.ReturnKindPurchase {
			_, _, err = u.stock.RecordInbound(ctx, r.ItemID, r.Quantity, r.UnitCost, ref, date)
		} else {
			_, _, err = u.stock.RecordOutbound(ctx, r.ItemID, r.Quantity, ref, date)
		}
	}
	return err
}

// Dispatch decodes payload for the given posting type and runs it. It returns the
// transaction ref of the journal written.
func (o *Orchestrator) Dispatch(ctx context.Context, typ shared.PostingType, payload json.RawMessage) (string, error) {
	switch typ {
	case shared.PostingTypePurchase:
		return dispatch(ctx, payload, o.PostPurchase)
	case shared.PostingTypeSale:
		return dispatch(ctx, payload, o.PostSale)
	case shared.PostingTypePayment:
		return dispatch(ctx, payload, o.PostPayment)
	case shared.PostingTypeExpense:
		return dispatch(ctx, payload, o.PostExpense)
	case shared.PostingTypeAdjustment:
		return dispatch(ctx, payload, o.PostAdjustment)
	case shared.PostingTypePurchaseReturn:
		return dispatch(ctx, payload, o.PostPurchaseReturn)
	case shared.PostingTypeSaleReturn:
		return dispatch(ctx, payload, o.PostSaleReturn)
	case shared.PostingTypeManualJournal:
		return dispatch(ctx, payload, o.PostManualJournal)
	case shared.PostingTypeReversal:
		var cmd ReversalCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return "", shared.NewValidationError("payload", err.Error())
		}
		rev, err := o.Reverse(ctx, cmd)
		if err != nil {
			return "", err
		}
		return rev.ReversalRef, nil
	}
	return "", shared.NewValidationError("type", shared.ErrInvalidPostingType.Error())
}

func dispatch[C any, R business.Record](ctx context.Context, payload json.RawMessage, fn func(context.Context, C) (R, error)) (string, error) {
	var cmd C
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return "", shared.NewValidationError("payload", err.Error())
	}
	rec, err := fn(ctx, cmd)
	if err != nil {
		return "", err
	}
	return rec.TransactionRef(), nil
}
