package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/clientdash/internal/chat"
	"github.com/blackwell-systems/clientdash/internal/output"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Talk to the dashboard assistant",
	Long: `Send a message to the assistant webhook and print its reply. When the
reply carries data, the dashboard records are replaced with it and the new
totals are shown.

With no message, starts an interactive session that reads one message per
line from stdin until EOF or "exit".

Examples:
  clientdash chat "which clients are still pending?"
  clientdash chat`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

// chatOutput is the JSON form of one exchange.
type chatOutput struct {
	Reply   chat.Message `json:"reply"`
	Version uint64       `json:"version"`
	Error   string       `json:"error,omitempty"`
}

func runChat(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close()

	if s.chat == nil {
		return errors.New("no assistant webhook configured: set webhook_url or CLIENTDASH_WEBHOOK_URL")
	}

	// The assistant can answer without data, so a missing or failing source
	// is only reported.
	if s.cfg.SourceURL != "" {
		if err := s.load(cmd.Context()); err != nil {
			s.log.Warn("app", "client sheet not loaded", map[string]any{"error": err.Error()})
		}
	}

	w := cmd.OutOrStdout()
	if len(args) > 0 {
		return chatOnce(cmd, s, w, strings.Join(args, " "))
	}
	return chatInteractive(cmd, s, cmd.InOrStdin(), w)
}

func chatOnce(cmd *cobra.Command, s *session, w io.Writer, text string) error {
	before := s.ctrl.Snapshot().Version
	reply, err := s.chat.Send(cmd.Context(), text)
	if err != nil && reply.ID == "" {
		// Nothing was logged: blank input or the command was cancelled.
		return err
	}

	if flagJSON {
		out := chatOutput{Reply: reply, Version: s.ctrl.Snapshot().Version}
		if err != nil {
			out.Error = err.Error()
		}
		if jerr := writeJSON(w, out); jerr != nil {
			return jerr
		}
		return err
	}

	printMessage(w, reply)
	if s.ctrl.Snapshot().Version != before {
		renderMetrics(w, s.ctrl.Metrics())
		fmt.Fprintln(w)
	}
	return err
}

func chatInteractive(cmd *cobra.Command, s *session, in io.Reader, w io.Writer) error {
	log := s.chat.Log()
	printMessage(w, log[0])

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(w, output.StyleBold.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(w)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "exit" || line == "quit" {
			return nil
		}
		if line == "" {
			continue
		}
		if err := chatOnce(cmd, s, w, line); err != nil {
			// The failure message is already printed; keep the session open.
			s.log.Debug("app", "chat send failed", map[string]any{"error": err.Error()})
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
	}
}

func printMessage(w io.Writer, m chat.Message) {
	who := output.StyleHeader.Render("assistant")
	if m.Sender == chat.SenderUser {
		who = output.StyleBold.Render("you")
	}
	fmt.Fprintf(w, "%s %s %s\n", output.StyleMuted.Render(m.Timestamp.Format("15:04")), who, m.Content)
}
