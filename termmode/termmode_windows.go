// +build windows

// Note: the terminal manipulation here is mostly a best-effort stub.
// mintty uses named pipes and ptys rather than Windows console mode, and
// golang.org/x/crypto/ssh/terminal only supports the latter, so shnc
// under MSYS+mintty relies on an external 'stty' invocation rather than
// a true raw-mode syscall.
package termmode

import (
	"io"
	"os/exec"

	"golang.org/x/sys/windows"
)

// State contains the state of a terminal.
type State struct{}

// MakeRaw puts the terminal into raw mode via an external stty call.
// The exec.Command runs a sub-shell, so this does not reliably affect
// the calling process's own terminal.
func MakeRaw(fd uintptr) (*State, error) {
	_ = exec.Command("stty", "-echo", "raw").Run()
	return &State{}, nil
}

// Restore restores the terminal via an external stty call.
func Restore(fd uintptr, state *State) error {
	_ = exec.Command("stty", "echo", "cooked").Run()
	return nil
}

// ReadPassword reads a line of input from fd. Local echo is not turned
// off on this platform, so the typed characters stay visible.
// The returned slice does not include the trailing newline.
func ReadPassword(fd uintptr) ([]byte, error) {
	return readPasswordLine(passwordReader(fd))
}

type passwordReader windows.Handle

func (r passwordReader) Read(buf []byte) (int, error) {
	return windows.Read(windows.Handle(r), buf)
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
