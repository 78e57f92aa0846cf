package patient

import "errors"

var (
	ErrUnknownStatus  = errors.New("patient.unknown_shipment_status")
	ErrInvalidFixture = errors.New("patient.invalid_fixture")
)
