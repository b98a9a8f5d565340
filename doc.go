// Package depot values a stock depot described by its trades.
//
// A depot is an ordered list of buy and sell trades. The package folds them
// into one Position per symbol and values the positions with an external
// PriceSource:
//   - Position: signed running totals of units, cost basis and fees, plus the
//     reference data of the stock (native currency, yearly fee).
//   - Portfolio: owns the trade list, builds the positions on demand and caches
//     them until the trades change.
//   - Overview: one row per position with market value, performance, running
//     and yearly costs. A valuation failure marks a column as not available
//     instead of failing the whole overview.
//   - Converter: converts amounts between currencies with a single rate sample.
//
// Configuration files (yaml or json) and jsonl trade files are the persisted
// forms of a depot. Price sources for real market data live in sibling
// packages, MarketFile is an offline one.
package depot
