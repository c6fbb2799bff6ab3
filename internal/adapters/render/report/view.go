package report

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tgruber/ncusers/internal/domain"
)

// RenderConfirmation shows the operator what a run would do before any
// remote state is touched.
func RenderConfirmation(summary domain.BatchSummary) string {
	s := newStyles()

	lines := []string{
		s.title.Render("Create user accounts"),
		s.header.Render(fmt.Sprintf("group: %s | accounts: %d", summary.Group, summary.Count)),
	}

	if len(summary.Usernames) == 0 {
		lines = append(lines, s.empty.Render("No usernames to create."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, username := range summary.Usernames {
		lines = append(lines, s.username.Render("  "+username))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// RenderOutcome renders the final batch report.
func RenderOutcome(outcome domain.BatchOutcome) string {
	s := newStyles()

	headline := fmt.Sprintf("%d out of %d User Accounts created", outcome.Created, outcome.Attempted)
	headlineStyle := s.success
	if outcome.Created < outcome.Attempted {
		headlineStyle = s.warning
	}

	lines := []string{
		s.section.Render(headlineStyle.Render(headline)),
	}

	if outcome.Aborted {
		lines = append(lines, s.empty.Render("Run aborted at confirmation."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	failed := outcome.Attempted - outcome.Created
	if failed > 0 {
		lines = append(lines, s.detail.Render(fmt.Sprintf("not created: %d", failed)))
	}
	if outcome.GroupFailures > 0 {
		lines = append(lines, s.warning.Render(fmt.Sprintf("created but not added to group: %d", outcome.GroupFailures)))
	}
	if outcome.Elapsed > 0 {
		lines = append(lines, s.header.Render(fmt.Sprintf("elapsed: %s", outcome.Elapsed.Round(time.Millisecond))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
