package dictation

import "strings"

// Transcript is the accumulated dictation text. Every fragment is followed
// by exactly one space.
type Transcript struct {
	b strings.Builder
}

func (t *Transcript) Append(fragment string) {
	t.b.WriteString(fragment)
	t.b.WriteByte(' ')
}

func (t *Transcript) String() string { return t.b.String() }

func (t *Transcript) Empty() bool { return t.b.Len() == 0 }

func (t *Transcript) Len() int { return t.b.Len() }

// Reset clears the transcript in full.
func (t *Transcript) Reset() { t.b.Reset() }
