//go:build !linux

package serial

import (
	"fmt"
	"os"
	"runtime"
)

// Open is only supported on linux.
func Open(path string, baud int) (*os.File, error) {
	return nil, fmt.Errorf("serial port not supported on %s", runtime.GOOS)
}
