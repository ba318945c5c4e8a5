package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"antirisk/internal/dispatch"
	"antirisk/internal/vault"
)

// Update is the main message router.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case splashTickMsg:
		if m.gate.State() != vault.StateSplash {
			return m, nil
		}
		m.splashProgress += float64(splashTickEvery) / float64(splashDuration)
		if m.splashProgress >= 1 {
			m.splashProgress = 1
			m.gate.FinishSplash()
			return m, nil
		}
		return m, splashTick()

	case pinClearMsg:
		m.gate.ClearBuffer()
		return m, nil

	case spinner.TickMsg:
		if m.busy || m.streamID != "" {
			var cmd tea.Cmd
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case streamFragMsg:
		m.eng.ApplyFragment(msg.id, msg.fragment)
		m.refreshChat()
		return m, waitForFragment(msg.id, msg.frags)

	case streamDoneMsg:
		m.eng.EndStream(msg.id)
		m.streamID = ""
		m.refreshChat()
		return m, nil

	case cycleMsg:
		if msg.err != nil {
			m.status = "Intelligence cycle failed; will retry next unlock."
			m.logger.Warn("intelligence cycle failed", zap.Error(msg.err))
		} else if msg.tip != nil {
			m.status = "New bi-weekly briefing ready for dispatch."
		}
		return m, nil

	case auditMsg:
		m.busy = false
		if msg.ok {
			m.status = fmt.Sprintf("Report %s audited.", msg.report.DateStr)
		} else {
			m.status = "Report recorded; audit engine unavailable."
		}
		return m, nil

	case insightsMsg:
		m.busy = false
		if msg.err != nil {
			m.status = msg.err.Error()
		} else {
			m.status = "Operational insights refreshed."
		}
		return m, nil

	case briefingMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Briefing generation failed. Please retry."
			m.logger.Warn("manual briefing failed", zap.Error(msg.err))
		} else {
			m.status = fmt.Sprintf("Briefing ready: %s", msg.tip.Topic)
		}
		return m, nil

	case intelMsg:
		m.busy = false
		m.intelText = msg.text
		m.intelSources = msg.sources
		m.status = ""
		return m, nil

	case trainingMsg:
		m.busy = false
		if msg.err != nil {
			m.status = "Training generation failed. Please retry."
		} else {
			m.trainingText = msg.text
			m.status = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	if msg.Width <= 0 || msg.Height <= 0 {
		return m, nil
	}

	headerHeight := 3
	footerHeight := 2
	inputHeight := 3
	vpHeight := msg.Height - headerHeight - footerHeight - inputHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width-4, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width - 4
		m.viewport.Height = vpHeight
	}
	m.input.Width = msg.Width - 4

	wrap := msg.Width - 8
	if wrap > 20 {
		if m.styles.Theme.IsDark {
			m.renderer, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(wrap))
		} else {
			m.renderer, _ = glamour.NewTermRenderer(glamour.WithStylePath("light"), glamour.WithWordWrap(wrap))
		}
	}
	if m.eng != nil {
		m.refreshChat()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	switch m.gate.State() {
	case vault.StateSplash:
		return m, nil
	case vault.StatePinEntry, vault.StatePinSetup:
		return m.handleGateKey(msg)
	}
	return m.handleReadyKey(msg)
}

// handleGateKey feeds the keypad. The gate itself decides what a digit
// means; the UI only schedules the error flash and the unlock transition.
func (m Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyBackspace:
		m.gate.Reset()
		return m, nil
	case tea.KeyRunes:
		var cmds []tea.Cmd
		for _, r := range msg.Runes {
			m.gate.Press(r)
			if m.gate.Err() && m.gate.BufferLen() > 0 {
				cmds = append(cmds, pinClearAfterFlash())
			}
		}
		if m.gate.State() == vault.StateReady {
			cmds = append(cmds, m.unlock())
			m.refreshChat()
		}
		return m, tea.Batch(cmds...)
	}
	return m, nil
}

func (m Model) handleReadyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The dispatch overlay captures input while armed.
	if m.eng != nil && m.eng.PendingDispatch() != nil {
		return m.handleOverlayKey(msg)
	}

	switch msg.Type {
	case tea.KeyTab:
		m.page = (m.page + 1) % pageCount
		m.status = ""
		m.syncPage()
		return m, nil
	case tea.KeyShiftTab:
		m.page = (m.page + pageCount - 1) % pageCount
		m.status = ""
		m.syncPage()
		return m, nil
	case tea.KeyEnter:
		return m.handleSubmit()
	case tea.KeyUp, tea.KeyDown:
		return m.handleVertical(msg.Type == tea.KeyUp)
	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyCtrlP:
		if m.page == pageAdvisor {
			if msgs := m.eng.Messages(); len(msgs) > 0 {
				m.eng.TogglePin(msgs[len(msgs)-1].ID)
				m.refreshChat()
			}
		}
		return m, nil
	case tea.KeyCtrlG:
		return m.handleGenerate()
	case tea.KeyCtrlX:
		if m.page == pageKnowledge {
			docs := m.eng.Documents()
			if m.knowledgeSel < len(docs) {
				m.eng.RemoveDocument(docs[m.knowledgeSel].ID)
				if m.knowledgeSel > 0 {
					m.knowledgeSel--
				}
			}
		}
		return m, nil
	}

	// Everything else feeds the focused input.
	return m.updateInputs(msg)
}

func (m Model) handleOverlayKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	tip := m.eng.PendingDispatch()
	profile := m.eng.Profile()

	switch strings.ToLower(msg.String()) {
	case "w":
		uri := dispatch.WhatsAppURI(profile.PhoneNumber, tip.Topic, tip.Content)
		if err := dispatch.Open(uri); err != nil {
			m.status = "Could not open WhatsApp link."
			m.logger.Warn("dispatch open failed", zap.Error(err))
		} else {
			m.status = "Briefing handed to WhatsApp."
		}
		m.eng.DismissDispatch()
	case "e":
		uri := dispatch.EmailURI(profile.Email, tip.Topic, tip.Content)
		if err := dispatch.Open(uri); err != nil {
			m.status = "Could not open mail client."
			m.logger.Warn("dispatch open failed", zap.Error(err))
		} else {
			m.status = "Briefing handed to email."
		}
		m.eng.DismissDispatch()
	case "d", "esc":
		m.eng.DismissDispatch()
		m.status = "Briefing kept on the Briefings page."
	}
	return m, nil
}

// handleSubmit runs the Enter action of the current page.
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	switch m.page {
	case pageAdvisor:
		if m.streamID != "" {
			return m, nil
		}
		text := m.input.Value()
		id, frags, err := m.eng.SendMessage(context.Background(), text)
		if err != nil || frags == nil {
			return m, nil
		}
		m.input.SetValue("")
		m.streamID = id
		m.refreshChat()
		m.viewport.GotoBottom()
		return m, tea.Batch(waitForFragment(id, frags), m.spin.Tick)

	case pageReports:
		text := strings.TrimSpace(m.input.Value())
		if text == "" || m.busy {
			return m, nil
		}
		m.input.SetValue("")
		m.busy = true
		m.status = "Auditing report..."
		eng := m.eng
		return m, tea.Batch(func() tea.Msg {
			report, ok := eng.AnalyzeReport(context.Background(), text)
			return auditMsg{report: report, ok: ok}
		}, m.spin.Tick)

	case pageBriefings:
		return m.handleGenerate()

	case pageKnowledge:
		title, content, found := strings.Cut(m.input.Value(), "|")
		if !found {
			m.status = "Format: Title | document text"
			return m, nil
		}
		if doc := m.eng.AddDocument(title, content); doc != nil {
			m.input.SetValue("")
			m.status = fmt.Sprintf("Document %q registered.", doc.Title)
		}
		return m, nil

	case pageIntel:
		topic := strings.TrimSpace(m.input.Value())
		if topic == "" || m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "Searching global intelligence..."
		svc := m.svc
		return m, tea.Batch(func() tea.Msg {
			text, sources := svc.FetchBestPractices(context.Background(), topic)
			return intelMsg{text: text, sources: sources}
		}, m.spin.Tick)

	case pageTraining:
		topic := strings.TrimSpace(m.input.Value())
		if topic == "" || m.busy {
			return m, nil
		}
		role := string(trainingRoles[m.trainingRole])
		m.busy = true
		m.status = "Building training module..."
		svc := m.svc
		return m, tea.Batch(func() tea.Msg {
			text, err := svc.GenerateTrainingModule(context.Background(), role, topic)
			return trainingMsg{text: text, err: err}
		}, m.spin.Tick)

	case pageSettings:
		profile := m.eng.Profile()
		profile.Name = strings.TrimSpace(m.settingName.Value())
		profile.PhoneNumber = strings.TrimSpace(m.settingPhone.Value())
		profile.Email = strings.TrimSpace(m.settingEmail.Value())
		m.eng.UpdateProfile(profile)
		m.status = "Profile saved."
		return m, nil
	}
	return m, nil
}

// handleGenerate triggers page-appropriate generation (Ctrl+G).
func (m Model) handleGenerate() (tea.Model, tea.Cmd) {
	switch m.page {
	case pageReports:
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.status = "Synthesizing operational insights..."
		eng := m.eng
		return m, tea.Batch(func() tea.Msg {
			return insightsMsg{err: eng.GenerateInsights(context.Background())}
		}, m.spin.Tick)

	case pageBriefings:
		if m.busy {
			return m, nil
		}
		topic := strings.TrimSpace(m.input.Value())
		m.input.SetValue("")
		m.busy = true
		m.status = "Generating briefing..."
		eng := m.eng
		return m, tea.Batch(func() tea.Msg {
			tip, err := eng.GenerateBriefing(context.Background(), topic)
			return briefingMsg{tip: tip, err: err}
		}, m.spin.Tick)
	}
	return m, nil
}

// handleVertical routes up/down per page.
func (m Model) handleVertical(up bool) (tea.Model, tea.Cmd) {
	switch m.page {
	case pageKnowledge:
		n := len(m.eng.Documents())
		if up && m.knowledgeSel > 0 {
			m.knowledgeSel--
		} else if !up && m.knowledgeSel < n-1 {
			m.knowledgeSel++
		}
	case pageToolkit:
		if up && m.toolkitSel > 0 {
			m.toolkitSel--
		} else if !up && m.toolkitSel < 2 {
			m.toolkitSel++
		}
	case pageTraining:
		if up {
			m.trainingRole = (m.trainingRole + len(trainingRoles) - 1) % len(trainingRoles)
		} else {
			m.trainingRole = (m.trainingRole + 1) % len(trainingRoles)
		}
	case pageSettings:
		if up {
			m.settingsFocus = (m.settingsFocus + 2) % 3
		} else {
			m.settingsFocus = (m.settingsFocus + 1) % 3
		}
		m.focusSettings()
	default:
		var cmd tea.Cmd
		key := tea.KeyMsg{Type: tea.KeyUp}
		if !up {
			key = tea.KeyMsg{Type: tea.KeyDown}
		}
		m.viewport, cmd = m.viewport.Update(key)
		return m, cmd
	}
	return m, nil
}

// syncPage adjusts focus and placeholders when the page changes.
func (m *Model) syncPage() {
	switch m.page {
	case pageAdvisor:
		m.input.Placeholder = "Ask the Strategy Unit... (Enter to send)"
		m.input.Focus()
	case pageReports:
		m.input.Placeholder = "Paste an operational log... (Enter to audit, Ctrl+G for insights)"
		m.input.Focus()
	case pageBriefings:
		m.input.Placeholder = "Optional topic... (Enter to generate a briefing)"
		m.input.Focus()
	case pageKnowledge:
		m.input.Placeholder = "Title | document text (Enter to register, Ctrl+X to remove)"
		m.input.Focus()
	case pageIntel:
		m.input.Placeholder = "Research topic... (Enter to search)"
		m.input.Focus()
	case pageTraining:
		m.input.Placeholder = "Training topic... (Up/Down audience, Enter to build)"
		m.input.Focus()
	case pageSettings:
		m.input.Blur()
		m.focusSettings()
	default:
		m.input.Blur()
	}
	m.input.SetValue("")
	if m.eng != nil && m.page == pageAdvisor {
		m.refreshChat()
	}
}

func (m *Model) focusSettings() {
	m.settingName.Blur()
	m.settingPhone.Blur()
	m.settingEmail.Blur()
	switch m.settingsFocus {
	case 0:
		m.settingName.Focus()
	case 1:
		m.settingPhone.Focus()
	case 2:
		m.settingEmail.Focus()
	}
}

func (m Model) updateInputs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.page == pageSettings {
		switch m.settingsFocus {
		case 0:
			m.settingName, cmd = m.settingName.Update(msg)
		case 1:
			m.settingPhone, cmd = m.settingPhone.Update(msg)
		case 2:
			m.settingEmail, cmd = m.settingEmail.Update(msg)
		}
		return m, cmd
	}
	if m.streamID != "" && m.page == pageAdvisor {
		// Input is frozen while a response streams.
		return m, nil
	}
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// refreshChat rebuilds the advisor viewport from the engine log.
func (m *Model) refreshChat() {
	if m.eng == nil {
		return
	}
	m.viewport.SetContent(m.renderChat())
	if m.streamID != "" {
		m.viewport.GotoBottom()
	}
}
