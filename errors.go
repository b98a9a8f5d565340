package depot

import "errors"

// Errors returned by the depot package. They are always wrapped with some
// context, use errors.Is to test for them.
var (
	// ErrInvalidArgument reports a malformed input to a constructor or setter.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrSymbolMismatch reports a trade applied to the position of another symbol.
	ErrSymbolMismatch = errors.New("symbol mismatch")
	// ErrUnknownField reports an override of a field that does not exist.
	ErrUnknownField = errors.New("unknown field")
	// ErrDataUnavailable reports that a price source cannot resolve a symbol or a rate.
	ErrDataUnavailable = errors.New("data unavailable")
	// ErrConversionFailure reports a currency conversion that cannot be performed.
	ErrConversionFailure = errors.New("currency conversion failure")
)
