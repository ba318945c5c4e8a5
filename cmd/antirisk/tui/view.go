package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"antirisk/cmd/antirisk/ui"
	"antirisk/internal/toolkit"
	"antirisk/internal/types"
	"antirisk/internal/vault"
)

// View renders the current screen.
func (m Model) View() string {
	switch m.gate.State() {
	case vault.StateSplash:
		return m.viewSplash()
	case vault.StatePinEntry, vault.StatePinSetup:
		return m.viewGate()
	}
	return m.viewReady()
}

func (m Model) viewSplash() string {
	var b strings.Builder
	b.WriteString(ui.Logo(m.styles))
	b.WriteString("\n")
	b.WriteString(m.styles.Subtitle.Render("Executive Security Companion"))
	b.WriteString("\n\n")

	const barWidth = 30
	filled := int(m.splashProgress * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	b.WriteString(m.styles.ProgressBar.Render(bar))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Muted.Render("Initializing secure environment..."))
	return m.centered(b.String())
}

func (m Model) viewGate() string {
	var b strings.Builder
	b.WriteString(ui.Logo(m.styles))
	b.WriteString("\n")

	if m.gate.State() == vault.StatePinSetup {
		if m.gate.Step() == vault.StepFirstEntry {
			b.WriteString(m.styles.Title.Render("Create Access PIN"))
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render("Choose a 4-digit PIN for this device."))
		} else {
			b.WriteString(m.styles.Title.Render("Confirm Access PIN"))
			b.WriteString("\n")
			b.WriteString(m.styles.Muted.Render("Enter the same PIN again."))
		}
	} else {
		b.WriteString(m.styles.Title.Render("Enter Access PIN"))
	}
	b.WriteString("\n\n")

	dotStyle := m.styles.PinDot
	if m.gate.Err() {
		dotStyle = m.styles.PinDotErr
	}
	var dots []string
	for i := 0; i < 4; i++ {
		if i < m.gate.BufferLen() {
			dots = append(dots, dotStyle.Render("●"))
		} else {
			dots = append(dots, m.styles.Muted.Render("○"))
		}
	}
	b.WriteString(strings.Join(dots, "  "))
	b.WriteString("\n\n")

	if m.gate.Err() {
		if m.gate.State() == vault.StatePinSetup {
			b.WriteString(m.styles.Error.Render("PINs did not match. Start over."))
		} else {
			b.WriteString(m.styles.Error.Render("Access denied."))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.styles.Footer.Render("0-9 enter · Backspace reset · Ctrl+C quit"))
	return m.centered(b.String())
}

func (m Model) viewReady() string {
	var b strings.Builder
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if tip := m.pendingOverlay(); tip != "" {
		b.WriteString(tip)
		return b.String()
	}

	switch m.page {
	case pageDashboard:
		b.WriteString(m.renderDashboard())
	case pageAdvisor:
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		if m.streamID != "" {
			b.WriteString(m.spin.View())
			b.WriteString(m.styles.Muted.Render(" Strategy Unit is responding..."))
		} else {
			b.WriteString(m.input.View())
		}
	case pageReports:
		b.WriteString(m.renderReports())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case pageBriefings:
		b.WriteString(m.renderBriefings())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case pageKnowledge:
		b.WriteString(m.renderKnowledge())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case pageToolkit:
		b.WriteString(m.renderToolkit())
	case pageIntel:
		b.WriteString(m.renderIntel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case pageTraining:
		b.WriteString(m.renderTraining())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case pageSettings:
		b.WriteString(m.renderSettings())
	}

	b.WriteString("\n")
	footer := "Tab switch page · Ctrl+C quit"
	if m.busy {
		footer = m.spin.View() + " " + m.status
	} else if m.status != "" {
		footer = m.status
	}
	b.WriteString(m.styles.Footer.Render(footer))
	return b.String()
}

func (m Model) renderTabs() string {
	var tabs []string
	for p := page(0); p < pageCount; p++ {
		if p == m.page {
			tabs = append(tabs, m.styles.TabActive.Render(pageNames[p]))
		} else {
			tabs = append(tabs, m.styles.TabInactive.Render(pageNames[p]))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) pendingOverlay() string {
	if m.eng == nil {
		return ""
	}
	tip := m.eng.PendingDispatch()
	if tip == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Badge.Render("BI-WEEKLY INTELLIGENCE READY"))
	b.WriteString("\n\n")
	b.WriteString(m.styles.Bold.Render(tip.Topic))
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render(tip.WeekDate))
	b.WriteString("\n\n")
	b.WriteString(m.renderMarkdown(truncate(tip.Content, 1200)))
	b.WriteString("\n")
	b.WriteString(m.styles.Footer.Render("[w] WhatsApp dispatch · [e] Email dispatch · [d] Dismiss"))
	return m.styles.Overlay.Render(b.String())
}

func (m Model) renderDashboard() string {
	stats := m.st.Stats()
	profile := m.eng.Profile()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Command Overview — %s", profile.Name)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  Conversation entries: %d\n", stats["chat"]))
	b.WriteString(fmt.Sprintf("  Audited reports:      %d\n", stats["reports"]))
	b.WriteString(fmt.Sprintf("  Briefings on file:    %d\n", stats["tips"]))
	b.WriteString(fmt.Sprintf("  Knowledge documents:  %d\n", stats["knowledge"]))
	b.WriteString("\n")
	if m.eng.IntelligenceDue() {
		b.WriteString(m.styles.Warning.Render("  Bi-weekly intelligence cycle is due."))
	} else {
		b.WriteString(m.styles.Success.Render("  Intelligence cadence on schedule."))
	}
	return b.String()
}

// renderChat builds the advisor transcript.
func (m Model) renderChat() string {
	var b strings.Builder
	for _, msg := range m.eng.Messages() {
		if msg.Role == types.RoleUser {
			b.WriteString(m.styles.Prompt.Render("CEO ▸ "))
			b.WriteString(m.styles.UserInput.Render(msg.Text))
			b.WriteString("\n")
			continue
		}
		label := "Strategy Unit"
		if msg.IsPinned {
			label += " ★"
		}
		b.WriteString(m.styles.Bold.Render(label))
		b.WriteString("\n")
		if msg.Pending() {
			b.WriteString(m.styles.Muted.Render("  analyzing..."))
		} else {
			b.WriteString(m.styles.AgentResponse.Render(m.renderMarkdown(msg.Text)))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderReports() string {
	reports := m.eng.Reports()
	insights := m.eng.Insights()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Report Audits"))
	b.WriteString("\n")
	if len(reports) == 0 {
		b.WriteString(m.styles.Muted.Render("  No reports yet. Paste an operational log below."))
		b.WriteString("\n")
	}
	for i, r := range reports {
		if i >= 5 {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  ... and %d earlier reports\n", len(reports)-5)))
			break
		}
		b.WriteString(m.styles.Bold.Render(fmt.Sprintf("  %s — %s", r.DateStr, truncate(r.Content, 60))))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("  " + truncate(r.Analysis, 120)))
		b.WriteString("\n")
	}
	if insights != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Title.Render("Operational Insights"))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(insights))
	}
	return b.String()
}

func (m Model) renderBriefings() string {
	tips := m.eng.Tips()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Intelligence Briefings"))
	b.WriteString("\n")
	if len(tips) == 0 {
		b.WriteString(m.styles.Muted.Render("  Nothing yet. Press Enter to generate one."))
		return b.String()
	}
	for i, tip := range tips {
		marker := "manual"
		if tip.IsAutoGenerated {
			marker = "auto"
		}
		b.WriteString(m.styles.Bold.Render(fmt.Sprintf("  %s — %s", tip.WeekDate, tip.Topic)))
		b.WriteString(m.styles.Muted.Render("  [" + marker + "]"))
		b.WriteString("\n")
		if i == 0 {
			b.WriteString(m.renderMarkdown(truncate(tip.Content, 1500)))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m Model) renderKnowledge() string {
	docs := m.eng.Documents()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Knowledge Register"))
	b.WriteString("\n")
	if len(docs) == 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  Empty. Add below, or drop .md/.txt files into %s", m.cfg.Storage.InboxDir)))
		return b.String()
	}
	for i, doc := range docs {
		cursor := "  "
		if i == m.knowledgeSel {
			cursor = m.styles.Prompt.Render("▸ ")
		}
		b.WriteString(cursor)
		b.WriteString(m.styles.Bold.Render(doc.Title))
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  (%s, %d chars)", doc.DateAdded, len(doc.Content))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderToolkit() string {
	templates := toolkit.Templates()

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Operational Toolkit"))
	b.WriteString("\n")
	for i, t := range templates {
		cursor := "  "
		if i == m.toolkitSel {
			cursor = m.styles.Prompt.Render("▸ ")
		}
		b.WriteString(cursor)
		b.WriteString(m.styles.Bold.Render(t.Title))
		b.WriteString(m.styles.Muted.Render("  " + t.Description))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(templates[m.toolkitSel].Content)
	return b.String()
}

func (m Model) renderIntel() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Global Intelligence Search"))
	b.WriteString("\n")
	if m.intelText == "" {
		b.WriteString(m.styles.Muted.Render("  Grounded best-practice research. Enter a topic below."))
		return b.String()
	}
	b.WriteString(m.renderMarkdown(m.intelText))
	if len(m.intelSources) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Subtitle.Render("Sources"))
		b.WriteString("\n")
		for i, s := range m.intelSources {
			b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  [%d] %s — %s\n", i+1, s.Title, s.URL)))
		}
	}
	return b.String()
}

func (m Model) renderTraining() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Training Module Builder"))
	b.WriteString("\n  Audience: ")
	for i, role := range trainingRoles {
		if i == m.trainingRole {
			b.WriteString(m.styles.Badge.Render(string(role)))
		} else {
			b.WriteString(m.styles.Muted.Render(" " + string(role) + " "))
		}
		b.WriteString(" ")
	}
	b.WriteString("\n\n")
	if m.trainingText != "" {
		b.WriteString(m.renderMarkdown(m.trainingText))
	}
	return b.String()
}

func (m Model) renderSettings() string {
	labels := []string{"Name", "WhatsApp", "Email"}
	fields := []string{m.settingName.View(), m.settingPhone.View(), m.settingEmail.View()}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Dispatch Profile"))
	b.WriteString("\n")
	for i := range labels {
		cursor := "  "
		if i == m.settingsFocus {
			cursor = m.styles.Prompt.Render("▸ ")
		}
		b.WriteString(cursor)
		b.WriteString(m.styles.Bold.Render(fmt.Sprintf("%-9s", labels[i])))
		b.WriteString(fields[i])
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Muted.Render("  Up/Down select field · Enter save"))
	return b.String()
}

func (m Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return out
}

func (m Model) centered(content string) string {
	if m.width <= 0 || m.height <= 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
