package serial

import "errors"

var (
	// ErrUnsupportedBaud indicates the baud rate has no termios constant.
	ErrUnsupportedBaud = errors.New("unsupported baud")
)
