package catalog

import "errors"

// Sentinel kinds for catalog errors.
var (
	ErrLoadCatalog = errors.New("load catalog failed")
)
