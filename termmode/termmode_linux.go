// +build linux

package termmode

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

// State contains the state of a terminal.
type State struct {
	termios unix.Termios
}

// MakeRaw puts the terminal connected to fd into raw mode and returns the
// previous state so it can be restored.
func MakeRaw(fd uintptr) (*State, error) {
	termios, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	oldState := &State{termios: *termios}

	newState := *termios
	newState.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	newState.Oflag &^= unix.OPOST
	newState.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	newState.Cflag &^= unix.CSIZE | unix.PARENB
	newState.Cflag |= unix.CS8
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(int(fd), unix.TCSETS, &newState); err != nil {
		return nil, err
	}
	return oldState, nil
}

// Restore restores the terminal connected to fd to a previous state.
func Restore(fd uintptr, state *State) error {
	if state == nil {
		return errors.New("termmode: nil State")
	}
	return unix.IoctlSetTermios(int(fd), unix.TCSETS, &state.termios)
}

// ReadPassword reads a line of input from a terminal without local echo.
// The returned slice does not include the trailing newline.
func ReadPassword(fd uintptr) ([]byte, error) {
	termios, err := unix.IoctlGetTermios(int(fd), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	oldState := *termios

	newState := oldState
	newState.Lflag &^= unix.ECHO
	newState.Lflag |= unix.ICANON | unix.ISIG
	newState.Iflag |= unix.ICRNL
	if err := unix.IoctlSetTermios(int(fd), unix.TCSETS, &newState); err != nil {
		return nil, err
	}
	defer unix.IoctlSetTermios(int(fd), unix.TCSETS, &oldState)

	return readPasswordLine(passwordReader(fd))
}

type passwordReader int

func (r passwordReader) Read(buf []byte) (int, error) {
	return unix.Read(int(r), buf)
}

func readPasswordLine(reader io.Reader) ([]byte, error) {
	var buf [1]byte
	var ret []byte
	for {
		n, err := reader.Read(buf[:])
		if n > 0 {
			switch buf[0] {
			case '\n':
				return ret, nil
			case '\r':
			default:
				ret = append(ret, buf[0])
			}
			continue
		}
		if err != nil {
			if err == io.EOF && len(ret) > 0 {
				return ret, nil
			}
			return ret, err
		}
	}
}
