// ABOUTME: chat subcommand
// ABOUTME: Streams answers from the configured language model in a terminal REPL
package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/jaksim/jaksim/chat"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat [question]",
		Short: "Ask the study chatbot (interactive without arguments)",
		RunE: func(cmd *cobra.Command, args []string) error {
			streamer, err := chat.NewStreamer(cmd.Context(), a.cfg.Chat)
			if err != nil {
				return err
			}
			conv := chat.NewConversation(a.cfg.Chat.SystemPrompt)

			if len(args) > 0 {
				return ask(cmd.Context(), cmd.OutOrStdout(), conv, streamer, strings.Join(args, " "))
			}
			interactive := term.IsTerminal(int(os.Stdin.Fd()))
			return chatLoop(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), conv, streamer, interactive)
		},
	}
}

// chatLoop reads one prompt per line until EOF or "/quit". "/reset" clears
// the conversation.
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, conv *chat.Conversation, s chat.Streamer, interactive bool) error {
	if interactive {
		printf(out, "무엇이든 물어보세요! (/reset 새 대화, /quit 종료)\n")
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			printf(out, "\n> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			conv.Reset()
			printf(out, "새 대화를 시작합니다.\n")
			continue
		}

		if err := ask(ctx, out, conv, s, line); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A failed turn is reported and the session continues.
			printf(out, "오류: %v\n", err)
		}
	}
	return scanner.Err()
}

func ask(ctx context.Context, out io.Writer, conv *chat.Conversation, s chat.Streamer, prompt string) error {
	_, err := conv.Send(ctx, s, prompt, func(delta string) error {
		_, werr := io.WriteString(out, delta)
		return werr
	})
	if err != nil {
		return err
	}
	printf(out, "\n")
	return nil
}
