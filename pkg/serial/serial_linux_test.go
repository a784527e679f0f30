//go:build linux

package serial

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestBaudToUnix(t *testing.T) {
	spd, err := baudToUnix(115200)
	require.NoError(t, err)
	require.Equal(t, uint32(unix.B115200), spd)

	_, err = baudToUnix(1234)
	require.ErrorIs(t, err, ErrUnsupportedBaud)

	_, err = Open("/dev/null", 1234)
	require.ErrorIs(t, err, ErrUnsupportedBaud)
}

func TestOpenNotTTY(t *testing.T) {
	_, err := Open("/dev/null", 9600)
	require.Error(t, err)
}

func TestMakeRaw(t *testing.T) {
	term := &unix.Termios{
		Iflag: unix.ICRNL | unix.IXON,
		Oflag: unix.OPOST,
		Lflag: unix.ECHO | unix.ICANON,
		Cflag: unix.PARENB | unix.CS7 | unix.B9600,
	}
	makeRaw(term, unix.B115200)
	require.Zero(t, term.Iflag&(unix.ICRNL|unix.IXON))
	require.Zero(t, term.Oflag&unix.OPOST)
	require.Zero(t, term.Lflag&(unix.ECHO|unix.ICANON))
	require.Zero(t, term.Cflag&unix.PARENB)
	require.Equal(t, uint32(unix.CS8), term.Cflag&unix.CSIZE)
	require.Equal(t, uint32(unix.B115200), term.Cflag&unix.CBAUD)
	require.Equal(t, uint32(unix.B115200), term.Ispeed)
	require.EqualValues(t, 1, term.Cc[unix.VMIN])
	require.EqualValues(t, 0, term.Cc[unix.VTIME])
}
