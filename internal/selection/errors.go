package selection

import "errors"

var (
	// ErrFSRSModeRequired is returned when a retrievability operation is used
	// on a selection that was not sourced from memory cards
	ErrFSRSModeRequired = errors.New("selection: operation requires an FSRS source")
	// ErrNoSource is returned when a filter or terminal runs before any source
	ErrNoSource = errors.New("selection: no source selected")
	// ErrInvalidCardType is returned when FromFSRS is given a study task type
	ErrInvalidCardType = errors.New("selection: card type must be read or write")
)
