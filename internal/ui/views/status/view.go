package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"hostblock/internal/modules/session/dto"
	"hostblock/internal/platform/timefmt"
	"hostblock/internal/ui/theme"
)

// maxDomainsShown bounds domain lists in the rendered view; the underlying
// sessions always carry the full set.
const maxDomainsShown = 5

// Render draws the full status snapshot at the given width.
func Render(out dto.StatusOutput, width int) string {
	var sections []string

	sections = append(sections, renderSessions("ACTIVE", out.Active, theme.Open, func(s dto.SessionOutput) string {
		return timefmt.Remaining(s.Remaining) + " left"
	}))
	sections = append(sections, renderSessions("PENDING", out.Pending, theme.Soon, func(s dto.SessionOutput) string {
		return "starts in " + timefmt.Remaining(s.WaitRemaining)
	}))
	sections = append(sections, renderSessions("QUEUED", out.Queued, theme.Muted, func(s dto.SessionOutput) string {
		return "waiting for " + domainsLabel(s.Domains)
	}))
	sections = append(sections, renderCooldowns(out.Cooldowns))
	sections = append(sections, renderPenalty(out.Penalty))
	if out.AllDomainsOpen {
		sections = append(sections, theme.Warn.Render("ALL DOMAINS UNBLOCKED"))
	}

	body := strings.Join(sections, "\n")
	return theme.Pane.Width(max(width-2, 20)).Render(body)
}

func renderSessions(label string, sessions []dto.SessionOutput, style lipgloss.Style, detail func(dto.SessionOutput) string) string {
	if len(sessions) == 0 {
		return theme.Title.Render(label) + theme.Muted.Render("  none")
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render(label))
	for _, s := range sessions {
		b.WriteString("\n  ")
		b.WriteString(style.Render(sessionName(s)))
		b.WriteString("  ")
		b.WriteString(theme.Muted.Render(fmt.Sprintf("#%d", s.ID)))
		b.WriteString("  ")
		b.WriteString(detail(s))
		if label != "QUEUED" {
			b.WriteString("  ")
			b.WriteString(theme.Muted.Render(domainsLabel(s.Domains)))
		}
	}
	return b.String()
}

func renderCooldowns(cooldowns []dto.CooldownOutput) string {
	if len(cooldowns) == 0 {
		return theme.Title.Render("COOLDOWNS") + theme.Muted.Render("  none")
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render("COOLDOWNS"))
	for _, c := range cooldowns {
		b.WriteString(fmt.Sprintf("\n  %s  %s", c.Profile, theme.Soon.Render(timefmt.Remaining(c.Remaining))))
	}
	return b.String()
}

func renderPenalty(p dto.PenaltyOutput) string {
	if !p.Enabled {
		return theme.Title.Render("PENALTY") + theme.Muted.Render("  disabled")
	}
	return theme.Title.Render("PENALTY") + fmt.Sprintf(
		"  %d unblocks this period, +%.1f min wait  %s",
		p.Count, p.PenaltyMinutes,
		theme.Muted.Render("resets "+p.NextReset.Format("15:04")))
}

func sessionName(s dto.SessionOutput) string {
	if s.TargetName != "" {
		return s.TargetName
	}
	return domainsLabel(s.Domains)
}

func domainsLabel(domains []string) string {
	if len(domains) <= maxDomainsShown {
		return strings.Join(domains, ", ")
	}
	return strings.Join(domains[:maxDomainsShown], ", ") +
		fmt.Sprintf(" +%d more", len(domains)-maxDomainsShown)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
