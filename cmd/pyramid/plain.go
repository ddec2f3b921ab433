package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"pyramid/internal/command"
	"pyramid/internal/history"
	"pyramid/internal/transcript"
)

const (
	clearScreen      = "\x1b[H\x1b[2J"
	pressEnterPrompt = "Press Enter to continue."
)

// runPlain is the line-oriented front end. Each chat turn runs to completion
// before the next line is read; cancelling ctx stops the running turn and
// ends the loop.
func runPlain(ctx context.Context, a *app, in io.Reader, out io.Writer) error {
	sink := transcript.NewWriter(out)
	sink.Info(transcript.Banner)
	sink.Info("Type h for history, save, load <file>, clear or exit.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for ctx.Err() == nil {
		if _, err := io.WriteString(out, "\n> "); err != nil {
			return err
		}
		if !scanner.Scan() {
			break
		}

		cmd := command.Parse(scanner.Text())
		switch cmd.Kind {
		case command.None:
			continue
		case command.Exit:
			return sink.Err()
		case command.History:
			sink.Info(a.historyView(history.DefaultStyles()))
		case command.Clear:
			if _, err := io.WriteString(out, clearScreen); err != nil {
				return err
			}
		case command.Save:
			path, err := a.saveConversation("")
			if err != nil {
				sink.Info(saveErrorMessage(err))
				waitForEnter(sink, scanner)
				break
			}
			sink.Info(savedMessage(path))
		case command.Load:
			snap, err := a.loadConversation(cmd.Text)
			if err != nil {
				sink.Info(loadErrorMessage(err))
				waitForEnter(sink, scanner)
				break
			}
			for _, line := range loadedMessages(cmd.Text, snap) {
				sink.Info(line)
			}
		case command.Chat:
			outcome, _ := a.orch.HandleTurn(ctx, cmd.Text, sink)
			if outcome.Cancelled {
				sink.Info("Turn canceled.")
			}
		}
		if err := sink.Err(); err != nil {
			return fmt.Errorf("write transcript: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return sink.Err()
}

// waitForEnter blocks until the next input line so an error is acknowledged
// before the prompt returns. The line itself is discarded.
func waitForEnter(sink *transcript.Writer, scanner *bufio.Scanner) {
	sink.Info(pressEnterPrompt)
	scanner.Scan()
}
