package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/tgruber/ncusers/internal/adapters/render/report"
	"github.com/tgruber/ncusers/internal/domain"
)

// channelSink decouples the batch worker from terminal output: the worker
// never blocks on the sink, the command goroutine drains and prints. The
// channel is sized for every possible event of a run, so sends cannot block;
// the non-blocking send is a safety net, not a throttle.
type channelSink struct {
	events chan string
}

func newChannelSink(records int) *channelSink {
	return &channelSink{events: make(chan string, records*2+4)}
}

func (s *channelSink) Event(message string) {
	select {
	case s.events <- message:
	default:
	}
}

func (s *channelSink) Complete(created, attempted int) {
	s.Event(fmt.Sprintf("%d out of %d User Accounts created", created, attempted))
}

func (s *channelSink) close() {
	close(s.events)
}

// terminalConfirmer shows the confirmation summary and reads a yes/no answer
// from the command's input. Anything but an explicit yes aborts.
type terminalConfirmer struct {
	in  io.Reader
	out io.Writer
}

func (c terminalConfirmer) Confirm(summary domain.BatchSummary) bool {
	_, _ = fmt.Fprintln(c.out, report.RenderConfirmation(summary))
	_, _ = fmt.Fprintf(c.out, "Create %d users now? [y/N]: ", summary.Count)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// autoConfirmer proceeds without asking (--yes); the summary is still shown.
type autoConfirmer struct {
	out io.Writer
}

func (c autoConfirmer) Confirm(summary domain.BatchSummary) bool {
	_, _ = fmt.Fprintln(c.out, report.RenderConfirmation(summary))
	return true
}
