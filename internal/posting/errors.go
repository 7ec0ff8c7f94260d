package posting

import (
	"errors"

	"github.com/crop-trade-ledger/internal/domain/account"
	"github.com/crop-trade-ledger/internal/domain/business"
	"github.com/crop-trade-ledger/internal/domain/contact"
	"github.com/crop-trade-ledger/internal/domain/inventory"
	"github.com/crop-trade-ledger/internal/domain/ledger"
	"github.com/crop-trade-ledger/internal/domain/season"
	"github.com/crop-trade-ledger/internal/domain/shared"
	"github.com/crop-trade-ledger/internal/domain/unitofwork"
)

// Error codes reported to API clients and stored with rejected requests
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeUnknownAccount    = "UNKNOWN_ACCOUNT"
	CodeNotPostable       = "ACCOUNT_NOT_POSTABLE"
	CodeHasActivity       = "ACCOUNT_HAS_ACTIVITY"
	CodeUnknownItem       = "UNKNOWN_ITEM"
	CodeUnknownContact    = "UNKNOWN_CONTACT"
	CodeUnknownSeason     = "UNKNOWN_SEASON"
	CodeSeasonConflict    = "SEASON_CONFLICT"
	CodeNotFound          = "NOT_FOUND"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeAlreadyReversed   = "ALREADY_REVERSED"
	CodeDuplicateRequest  = "DUPLICATE_REQUEST"
	CodeUnbalancedPosting = "UNBALANCED_POSTING"
	CodePostingFailed     = "POSTING_FAILED"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorCode classifies err into one of the codes above
func ErrorCode(err error) string {
	var (
		validation       shared.ValidationError
		unbalanced       ledger.ErrUnbalancedPosting
		refNotFound      ledger.ErrReferenceNotFound
		reversed         ledger.ErrAlreadyReversed
		recordReversed   business.ErrAlreadyReversed
		recordNotFound   business.ErrRecordNotFound
		accountNotFound  account.ErrAccountNotFound
		notPostable      account.ErrNotPostable
		hasActivity      account.ErrHasActivity
		contactNotFound  contact.ErrContactNotFound
		seasonNotFound   season.ErrSeasonNotFound
		secondActive     season.ErrActiveSeasonExists
		seasonInUse      season.ErrSeasonInUse
		itemNotFound     inventory.ErrItemNotFound
		insufficient     inventory.ErrInsufficientStock
		duplicateRequest unitofwork.ErrDuplicateRequest
		postingFailed    shared.PostingFailedError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validation):
		return CodeValidation
	case errors.As(err, &unbalanced):
		return CodeUnbalancedPosting
	case errors.As(err, &reversed), errors.As(err, &recordReversed):
		return CodeAlreadyReversed
	case errors.As(err, &refNotFound), errors.As(err, &recordNotFound):
		return CodeNotFound
	case errors.As(err, &accountNotFound):
		return CodeUnknownAccount
	case errors.As(err, &notPostable):
		return CodeNotPostable
	case errors.As(err, &hasActivity):
		return CodeHasActivity
	case errors.As(err, &contactNotFound):
		return CodeUnknownContact
	case errors.As(err, &itemNotFound):
		return CodeUnknownItem
	case errors.As(err, &seasonNotFound), errors.Is(err, season.ErrNoActiveSeason):
		return CodeUnknownSeason
	case errors.As(err, &secondActive), errors.As(err, &seasonInUse):
		return CodeSeasonConflict
	case errors.As(err, &insufficient):
		return CodeInsufficientStock
	case errors.As(err, &duplicateRequest):
		return CodeDuplicateRequest
	case errors.As(err, &postingFailed):
		return CodePostingFailed
	}
	return CodeInternal
}

// IsBusinessError reports whether err is a rejection the caller caused, as opposed to
// a storage failure worth retrying
func IsBusinessError(err error) bool {
	switch ErrorCode(err) {
	case "", CodePostingFailed, CodeInternal:
		return false
	}
	return true
}
