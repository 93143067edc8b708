package share

import cb "github.com/atotto/clipboard"

func Copy(text string) error {
	return cb.WriteAll(text)
}

func Read() (string, error) {
	return cb.ReadAll()
}

// ClipboardAvailable reports whether a clipboard backend (xclip, xsel,
// wl-copy, pbcopy or the Windows API) was found.
func ClipboardAvailable() bool {
	return !cb.Unsupported
}
