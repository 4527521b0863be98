// Package input turns button presses into remote operations: a two-button
// menu carousel plus direct-action buttons.
package input

import "github.com/chaz8081/camremote/internal/ble/protocol"

// Entry is one screen of the menu carousel.
type Entry int

const (
	EntryConnect Entry = iota
	EntryShutter
	EntryMode
	EntryScreen
	EntrySleep
	EntryWake

	numEntries = int(EntryWake) + 1
)

func (e Entry) String() string {
	switch e {
	case EntryConnect:
		return "CONNECT"
	case EntryShutter:
		return "SHUTTER"
	case EntryMode:
		return "MODE"
	case EntryScreen:
		return "SCREEN"
	case EntrySleep:
		return "SLEEP"
	case EntryWake:
		return "WAKE"
	default:
		return "?"
	}
}

// Command returns the camera command an entry runs. Connect has none.
func (e Entry) Command() (protocol.Command, bool) {
	switch e {
	case EntryShutter:
		return protocol.CommandShutter, true
	case EntryMode:
		return protocol.CommandMode, true
	case EntryScreen:
		return protocol.CommandScreen, true
	case EntrySleep:
		return protocol.CommandSleep, true
	case EntryWake:
		return protocol.CommandWake, true
	default:
		return 0, false
	}
}

// Menu is the carousel cursor. The zero value selects EntryConnect.
type Menu struct {
	current Entry
}

// Selected returns the current entry.
func (m *Menu) Selected() Entry { return m.current }

// Next advances to the following entry, wrapping after the last.
func (m *Menu) Next() Entry {
	m.current = Entry((int(m.current) + 1) % numEntries)
	return m.current
}
