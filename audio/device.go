package audio

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// SelectDevice presents an interactive picker on the terminal. With a
// single device it returns that device without prompting.
func SelectDevice(ctx Context) (*DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	switch len(devices) {
	case 0:
		return nil, ErrNoDevice
	case 1:
		return &devices[0], nil
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J")
		fmt.Print("Select microphone (↑/↓ or j/k, Enter to confirm, q to keep default):\r\n\r\n")
		for i, d := range devices {
			tag := ""
			if IsBluetooth(d.Name) {
				tag = " \x1b[33m[headset mic]\x1b[0m"
			}
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s%s\x1b[0m\r\n", d.Name, tag)
			} else {
				fmt.Printf("    %s%s\r\n", d.Name, tag)
			}
		}
	}
	render()

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}
		cursor, done, pick := pickerKey(buf[:n], cursor, len(devices))
		if done {
			fmt.Print("\r\n")
			if !pick {
				return nil, nil
			}
			return &devices[cursor], nil
		}
		fmt.Printf("\x1b[%dA", len(devices)+2)
		render()
	}
}

// pickerKey applies one keypress to the picker. done reports that the picker
// should close; pick reports whether the cursor entry was chosen.
func pickerKey(key []byte, cursor, count int) (next int, done, pick bool) {
	switch {
	case len(key) == 1 && (key[0] == '\r' || key[0] == '\n'):
		return cursor, true, true
	case len(key) == 1 && (key[0] == 'q' || key[0] == 3 || key[0] == 0x1b):
		return cursor, true, false
	case len(key) == 1 && key[0] == 'j', len(key) == 3 && key[0] == 0x1b && key[2] == 'B':
		if cursor < count-1 {
			cursor++
		}
	case len(key) == 1 && key[0] == 'k', len(key) == 3 && key[0] == 0x1b && key[2] == 'A':
		if cursor > 0 {
			cursor--
		}
	}
	return cursor, false, false
}
