package utils

import (
	"fmt"
	"time"
)

// MessageType selects the color of a CLI message.
type MessageType int

const (
	DefaultMessage MessageType = iota
	SuccessMessage
	ErrorMessage
	StatusMessage
)

// ANSI colors of the message types.
const (
	DefaultColor = "\x1b[0m"
	StatusColor  = "\x1b[36m"
	SuccessColor = "\x1b[32m"
	ErrorColor   = "\x1b[31m"
)

var messageColors = map[MessageType]string{
	DefaultMessage: DefaultColor,
	StatusMessage:  StatusColor,
	SuccessMessage: SuccessColor,
	ErrorMessage:   ErrorColor,
}

// DecorateText colors s according to the message type. Unknown types leave s untouched.
func DecorateText(s string, msgType MessageType) string {
	c, ok := messageColors[msgType]
	if !ok {
		return s
	}
	return c + s + DefaultColor
}

// StatusLine prefixes a message with the application label, e.g. "⚡ FACESEG ⇢ msg".
func StatusLine(label, msg string, msgType MessageType) string {
	return fmt.Sprintf("%s %s %s",
		DecorateText(label, StatusMessage),
		DecorateText("⇢", DefaultMessage),
		DecorateText(msg, msgType),
	)
}

// FormatTime prints a run duration with centisecond precision, e.g. "2m 5.00s".
func FormatTime(d time.Duration) string {
	d = d.Round(10 * time.Millisecond)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %.2fs", h, m, d.Seconds())
	case m > 0:
		return fmt.Sprintf("%dm %.2fs", m, d.Seconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
