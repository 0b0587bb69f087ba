package services

// services should wrap any error that can come from their process
//    e.i. http errors should be wrapped
//    and parsing errors need not be wrapped

import "errors"

var (
	// retrying later could work, the previous snapshot is kept
	ErrTemporaryNetworkFailure = errors.New("network failure")

	// the source no longer looks the way the scraper expects, retrying
	// probably wouldn't work and the service needs manual review
	ErrIncorrectAssumption = errors.New("unrecoverable failure")
)
