package model

import (
	"errors"
	"fmt"
)

var (
	// ErrCatalogUnavailable means no reference catalog could be loaded.
	ErrCatalogUnavailable = errors.New("reference catalog unavailable")
	// ErrMarketDataUnavailable means no prices could be fetched for a symbol.
	ErrMarketDataUnavailable = errors.New("market data unavailable")
	// ErrLogoLookup is internal to the logo resolver and never reaches users.
	ErrLogoLookup = errors.New("logo lookup failed")
	// ErrInvalidDateRange means start is after end.
	ErrInvalidDateRange = errors.New("start date is after end date")
	// ErrNegativeAmount rejects negative investment amounts or goals.
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// MarketDataError reports a per-symbol fetch failure.
type MarketDataError struct {
	Symbol string
	Err    error
}

func (e *MarketDataError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrMarketDataUnavailable, e.Symbol, e.Err)
}

func (e *MarketDataError) Unwrap() error { return e.Err }

func (e *MarketDataError) Is(target error) bool { return target == ErrMarketDataUnavailable }
