package mqtt

import "errors"

// ErrConnectTimeout indicates the broker didn't respond in time.
var ErrConnectTimeout = errors.New("connect timeout")
