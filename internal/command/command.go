// Package command recognizes the interactive keywords typed into the chat
// input before anything is sent to the models.
package command

import "strings"

type Kind int

const (
	// None is empty input; nothing happens.
	None Kind = iota
	Chat
	Exit
	History
	Clear
	Save
	Load
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case Chat:
		return "chat"
	case Exit:
		return "exit"
	case History:
		return "history"
	case Clear:
		return "clear"
	case Save:
		return "save"
	case Load:
		return "load"
	default:
		return "unknown"
	}
}

type Command struct {
	Kind Kind
	// Text is the trimmed chat message for Chat or the file name for Load.
	Text string
}

// Parse maps raw input to a command. Keywords are matched case-insensitively
// on the trimmed input; anything else is chat content.
func Parse(raw string) Command {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Command{Kind: None}
	}
	lower := strings.ToLower(text)
	switch lower {
	case "exit":
		return Command{Kind: Exit}
	case "h":
		return Command{Kind: History}
	case "clear":
		return Command{Kind: Clear}
	case "save":
		return Command{Kind: Save}
	}
	if strings.HasPrefix(lower, "load ") {
		return Command{Kind: Load, Text: strings.TrimSpace(text[len("load "):])}
	}
	return Command{Kind: Chat, Text: text}
}
