//go:build linux

package hotkey

import "testing"

type keyEvent struct {
	code  uint16
	value int32
}

func TestCombo(t *testing.T) {
	for _, tt := range []struct {
		name   string
		events []keyEvent
		want   []comboEdge
	}{
		{
			"ctrl shift space",
			[]keyEvent{{keyLCtrl, keyPress}, {keyLShift, keyPress}, {keySpace, keyPress}, {keySpace, keyRelease}},
			[]comboEdge{comboNone, comboNone, comboDown, comboUp},
		},
		{
			"right modifiers",
			[]keyEvent{{keyRShift, keyPress}, {keyRCtrl, keyPress}, {keySpace, keyPress}},
			[]comboEdge{comboNone, comboNone, comboDown},
		},
		{
			"space alone",
			[]keyEvent{{keySpace, keyPress}, {keySpace, keyRelease}},
			[]comboEdge{comboNone, comboNone},
		},
		{
			"missing shift",
			[]keyEvent{{keyLCtrl, keyPress}, {keySpace, keyPress}},
			[]comboEdge{comboNone, comboNone},
		},
		{
			"autorepeat fires once",
			[]keyEvent{{keyLCtrl, keyPress}, {keyLShift, keyPress}, {keySpace, keyPress}, {keySpace, 2}, {keyLCtrl, 2}, {keySpace, 2}},
			[]comboEdge{comboNone, comboNone, comboDown, comboNone, comboNone, comboNone},
		},
		{
			"modifiers released early still finish",
			[]keyEvent{{keyLCtrl, keyPress}, {keyLShift, keyPress}, {keySpace, keyPress}, {keyLCtrl, keyRelease}, {keySpace, keyRelease}},
			[]comboEdge{comboNone, comboNone, comboDown, comboNone, comboUp},
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			var c combo
			for i, ev := range tt.events {
				if got := c.feed(ev.code, ev.value); got != tt.want[i] {
					t.Errorf("event %d: got %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}
