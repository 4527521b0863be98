package protocol

import (
	"bytes"
	"fmt"
	"strings"
)

// Command identifies one of the fixed user-invocable camera commands.
type Command int

const (
	CommandShutter Command = iota
	CommandMode
	CommandScreen
	CommandSleep
	CommandWake
)

var commandNames = map[Command]string{
	CommandShutter: "shutter",
	CommandMode:    "mode",
	CommandScreen:  "screen",
	CommandSleep:   "sleep",
	CommandWake:    "wake",
}

func (c Command) String() string {
	if n, ok := commandNames[c]; ok {
		return n
	}
	return fmt.Sprintf("command(%d)", int(c))
}

// ParseCommand maps a command name back to its Command.
func ParseCommand(name string) (Command, error) {
	for c, n := range commandNames {
		if n == strings.ToLower(name) {
			return c, nil
		}
	}
	return 0, fmt.Errorf("protocol: unknown command %q", name)
}

var commandFrames = map[Command][]byte{
	CommandShutter: {0xfc, 0xef, 0xfe, 0x86, 0x00, 0x03, 0x01, 0x02, 0x00},
	CommandMode:    {0xfc, 0xef, 0xfe, 0x86, 0x00, 0x03, 0x01, 0x01, 0x00},
	CommandScreen:  {0xfc, 0xef, 0xfe, 0x86, 0x00, 0x03, 0x01, 0x00, 0x00},
	CommandSleep:   {0xfc, 0xef, 0xfe, 0x86, 0x00, 0x03, 0x01, 0x00, 0x03},
}

// CommandFrame returns a copy of the notify frame for c. Wake has no frame:
// it is an advertisement, not a notification.
func CommandFrame(c Command) ([]byte, error) {
	f, ok := commandFrames[c]
	if !ok {
		return nil, fmt.Errorf("protocol: %s has no command frame", c)
	}
	return bytes.Clone(f), nil
}

// Inbound telemetry constants.
var (
	heartbeatFrame = []byte{0x08, 0x00, 0x00, 0x04, 0x00, 0x00, 0x00, 0x80}
	statusPrefix   = []byte{0x0f, 0x00, 0x00, 0x10, 0x00, 0x02, 0x00}
)

const (
	statusFrameLen = 15
	modeCodeOffset = 10
	ModeCodeLen    = 5
)

// FrameKind classifies an inbound frame.
type FrameKind int

const (
	FrameUnrecognized FrameKind = iota
	FrameHeartbeat
	FrameModeStatus
)

func (k FrameKind) String() string {
	switch k {
	case FrameHeartbeat:
		return "heartbeat"
	case FrameModeStatus:
		return "mode_status"
	default:
		return "unrecognized"
	}
}

// Frame is the result of classifying an inbound frame. Code is only set for
// FrameModeStatus.
type Frame struct {
	Kind FrameKind
	Code [ModeCodeLen]byte
}

// ClassifyInboundFrame sorts a camera write into heartbeat, mode status or
// unrecognized. A status frame must be exactly 15 bytes; other lengths that
// share the prefix are unrecognized.
func ClassifyInboundFrame(data []byte) Frame {
	if bytes.Equal(data, heartbeatFrame) {
		return Frame{Kind: FrameHeartbeat}
	}
	if len(data) == statusFrameLen && bytes.HasPrefix(data, statusPrefix) {
		f := Frame{Kind: FrameModeStatus}
		copy(f.Code[:], data[modeCodeOffset:modeCodeOffset+ModeCodeLen])
		return f
	}
	return Frame{Kind: FrameUnrecognized}
}

// Mode is the camera operating mode observed from status frames.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeCamera
	ModeVideo
	ModeTimeshift
	ModeLoopRecording
	ModeUnhandled
)

func (m Mode) String() string {
	switch m {
	case ModeCamera:
		return "camera"
	case ModeVideo:
		return "video"
	case ModeTimeshift:
		return "timeshift"
	case ModeLoopRecording:
		return "loop_recording"
	case ModeUnhandled:
		return "unhandled"
	default:
		return "unknown"
	}
}

var modeCodes = map[[ModeCodeLen]byte]Mode{
	{0x0a, 0x02, 0x08, 0x01, 0x10}: ModeCamera,
	{0x0a, 0x02, 0x08, 0x02, 0x10}: ModeVideo,
	{0x0a, 0x02, 0x08, 0x07, 0x10}: ModeTimeshift,
	{0x0a, 0x02, 0x08, 0x05, 0x10}: ModeLoopRecording,
}

// MapModeCode looks up an exact mode code. Unknown codes map to
// ModeUnhandled.
func MapModeCode(code [ModeCodeLen]byte) Mode {
	if m, ok := modeCodes[code]; ok {
		return m
	}
	return ModeUnhandled
}

// HexString renders bytes as "FC EF FE" for logs.
func HexString(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
