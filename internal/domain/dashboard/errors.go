package dashboard

import "errors"

var ErrRefreshInFlight = errors.New("a dashboard refresh is already running")
