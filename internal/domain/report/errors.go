package report

import "errors"

var (
	ErrInvalidRange      = errors.New("date_from must not be after date_to")
	ErrMissingFilter     = errors.New("required report filter is missing")
	ErrUnknownReportType = errors.New("unknown report type")
	ErrUnknownFormat     = errors.New("unsupported export format")
)
