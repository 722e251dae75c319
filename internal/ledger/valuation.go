package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ConversionPolicy names how the converter behaves when the rate provider
// fails.
type ConversionPolicy string

// PolicyFailOpen returns the original amount unchanged on provider failure.
// Availability over accuracy: this is a read-only display path and a stale
// or unconverted value beats a blocked page.
const PolicyFailOpen ConversionPolicy = "fail-open"

// Converter normalizes foreign-currency amounts into the reporting currency.
type Converter struct {
	rates     RateSource
	reporting string
	policy    ConversionPolicy
	logger    *zap.Logger
}

// NewConverter creates a converter with the fail-open policy.
func NewConverter(rates RateSource, reportingCurrency string, logger *zap.Logger) *Converter {
	return &Converter{
		rates:     rates,
		reporting: reportingCurrency,
		policy:    PolicyFailOpen,
		logger:    logger,
	}
}

// ReportingCurrency returns the currency all displayed values normalize to.
func (c *Converter) ReportingCurrency() string { return c.reporting }

// Policy returns the converter's failure policy.
func (c *Converter) Policy() ConversionPolicy { return c.policy }

// Convert expresses amount (denominated in currency) in the reporting
// currency. Amounts already in the reporting currency are returned
// unchanged without a provider call. On provider failure the original
// amount is returned unchanged per PolicyFailOpen; Convert never returns
// an error.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, currency string) decimal.Decimal {
	if currency == "" || currency == c.reporting {
		return amount
	}

	rate, err := c.rates.GetRate(ctx, currency, c.reporting)
	if err != nil {
		c.logger.Warn("Rate provider failed, returning unconverted amount",
			zap.String("currency", currency),
			zap.String("reporting", c.reporting),
			zap.Error(err),
		)
		return amount
	}

	return amount.Mul(rate)
}
