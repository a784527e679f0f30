//go:build linux

package serial

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

var bauds = map[int]uint32{
	4800:   unix.B4800,
	9600:   unix.B9600,
	19200:  unix.B19200,
	38400:  unix.B38400,
	57600:  unix.B57600,
	115200: unix.B115200,
	230400: unix.B230400,
}

// Open opens the tty at path in raw 8N1 mode with the given baud.
// The returned file is served by the runtime poller: Read blocks until at
// least one byte arrives and Close unblocks a pending Read with
// os.ErrClosed.
func Open(path string, baud int) (*os.File, error) {
	spd, err := baudToUnix(baud)
	if err != nil {
		return nil, err
	}
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := setRaw(fd, spd); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return os.NewFile(uintptr(fd), path), nil
}

func setRaw(fd int, spd uint32) error {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return err
	}
	makeRaw(t, spd)
	return unix.IoctlSetTermios(fd, unix.TCSETS, t)
}

// makeRaw mirrors cfmakeraw(3) with the line speed and receiver enabled.
func makeRaw(t *unix.Termios, spd uint32) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB | unix.CSTOPB | unix.CBAUD
	t.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL | spd
	t.Ispeed, t.Ospeed = spd, spd
	t.Cc[unix.VMIN], t.Cc[unix.VTIME] = 1, 0
}

func baudToUnix(baud int) (uint32, error) {
	if spd, ok := bauds[baud]; ok {
		return spd, nil
	}
	return 0, fmt.Errorf("%w %d", ErrUnsupportedBaud, baud)
}
