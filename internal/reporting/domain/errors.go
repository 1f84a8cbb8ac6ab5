package reporting

import "errors"

var (
	// ErrChartEncode is returned when the chart image cannot be encoded.
	ErrChartEncode = errors.New("reporting: chart encode failed")
	// ErrComposeFailed is returned when a document cannot be built.
	ErrComposeFailed = errors.New("reporting: compose failed")
	// ErrDeliveryFailed is returned when an export sink cannot deliver.
	ErrDeliveryFailed = errors.New("reporting: delivery failed")
	// ErrEmptyChart is returned when a document is composed without chart bytes.
	ErrEmptyChart = errors.New("reporting: empty chart image")
)
