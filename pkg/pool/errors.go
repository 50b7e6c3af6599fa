package pool

import "errors"

// ErrPoolClosed is returned by Get after Close.
var ErrPoolClosed = errors.New("handle pool is closed")
