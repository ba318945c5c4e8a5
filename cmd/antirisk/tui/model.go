// Package tui implements the interactive terminal interface: the splash and
// PIN gate, and the unlocked pages (dashboard, advisor, reports, briefings,
// knowledge, toolkit, intel search, training, settings).
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"antirisk/cmd/antirisk/ui"
	"antirisk/internal/advisor"
	"antirisk/internal/config"
	"antirisk/internal/engine"
	"antirisk/internal/store"
	"antirisk/internal/types"
	"antirisk/internal/vault"
)

// page is one of the unlocked screens.
type page int

const (
	pageDashboard page = iota
	pageAdvisor
	pageReports
	pageBriefings
	pageKnowledge
	pageToolkit
	pageIntel
	pageTraining
	pageSettings
	pageCount
)

var pageNames = [pageCount]string{
	"Dashboard", "Advisor", "Reports", "Briefings", "Knowledge",
	"Toolkit", "Intel", "Training", "Settings",
}

// splashDuration is how long the boot screen animates before the gate.
const splashDuration = 2 * time.Second

// splashTickEvery drives the progress bar animation.
const splashTickEvery = 30 * time.Millisecond

// pinErrorFlash is how long a rejected PIN stays visible before the dots
// clear.
const pinErrorFlash = 500 * time.Millisecond

// Messages for tea updates.
type (
	splashTickMsg struct{}
	pinClearMsg   struct{}
	streamFragMsg struct {
		id       string
		fragment string
		frags    <-chan string
	}
	streamDoneMsg struct{ id string }
	cycleMsg      struct {
		tip *types.WeeklyTip
		err error
	}
	auditMsg struct {
		report types.StoredReport
		ok     bool
	}
	insightsMsg struct{ err error }
	briefingMsg struct {
		tip *types.WeeklyTip
		err error
	}
	intelMsg struct {
		text    string
		sources []types.Source
	}
	trainingMsg struct {
		text string
		err  error
	}
)

// trainingRoles is the audience cycle on the training page.
var trainingRoles = []types.SecurityRole{
	types.RoleGuard,
	types.RoleSupervisor,
	types.RoleGenSupervisor,
}

// Model is the bubbletea application model.
type Model struct {
	cfg    config.Config
	logger *zap.Logger
	styles ui.Styles

	st      *store.Store
	gate    *vault.Gate
	svc     *advisor.Service
	eng     *engine.Engine
	watcher *engine.InboxWatcher

	// Gate UI state.
	splashProgress float64

	// Layout.
	page   page
	width  int
	height int
	ready  bool

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	busy   bool
	status string

	// Advisor.
	streamID string

	// Knowledge selection.
	knowledgeSel int

	// Toolkit selection.
	toolkitSel int

	// Intel search.
	intelText    string
	intelSources []types.Source

	// Training.
	trainingRole int
	trainingText string

	// Settings focus: 0 name, 1 phone, 2 email.
	settingsFocus int
	settingName   textinput.Model
	settingPhone  textinput.Model
	settingEmail  textinput.Model
}

// New builds the application model. The engine is not constructed here; it
// comes to life only when the gate opens.
func New(cfg config.Config, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	st, err := store.Open(cfg.Storage.DatabasePath, logger.Named("store"))
	if err != nil {
		return Model{}, err
	}

	pin, _ := st.LoadPIN()
	gate := vault.New(pin, st.SavePIN)

	client := advisor.NewClient(advisor.Config{
		APIKey:  cfg.Advisor.APIKey,
		BaseURL: cfg.Advisor.BaseURL,
		Model:   cfg.Advisor.Model,
		Timeout: cfg.AdvisorTimeout(),
	}, logger.Named("advisor"))
	svc := advisor.NewService(client, logger.Named("advisor"))

	styles := ui.DefaultStyles()
	if cfg.Theme == "light" {
		styles = ui.NewStyles(ui.LightTheme())
	} else if cfg.Theme == "dark" {
		styles = ui.NewStyles(ui.DarkTheme())
	}

	ti := textinput.New()
	ti.Placeholder = "Type a directive... (Enter to send, Tab to switch pages)"
	ti.CharLimit = 4096
	ti.Width = 80
	ti.Prompt = "│ "
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.UserInput
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)

	var renderer *glamour.TermRenderer
	if styles.Theme.IsDark {
		renderer, _ = glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(80))
	} else {
		renderer, _ = glamour.NewTermRenderer(glamour.WithStylePath("light"), glamour.WithWordWrap(80))
	}

	name := textinput.New()
	name.CharLimit = 120
	name.Width = 40
	phone := textinput.New()
	phone.Placeholder = "+234..."
	phone.CharLimit = 32
	phone.Width = 40
	email := textinput.New()
	email.Placeholder = "ceo@example.com"
	email.CharLimit = 120
	email.Width = 40

	return Model{
		cfg:          cfg,
		logger:       logger,
		styles:       styles,
		st:           st,
		gate:         gate,
		svc:          svc,
		input:        ti,
		viewport:     vp,
		spin:         sp,
		renderer:     renderer,
		settingName:  name,
		settingPhone: phone,
		settingEmail: email,
	}, nil
}

// Init starts the splash animation.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, splashTick())
}

// Close releases the model's resources.
func (m *Model) Close() {
	if m.watcher != nil {
		m.watcher.Stop()
	}
	if m.st != nil {
		m.st.Close()
	}
}

func splashTick() tea.Cmd {
	return tea.Tick(splashTickEvery, func(time.Time) tea.Msg { return splashTickMsg{} })
}

func pinClearAfterFlash() tea.Cmd {
	return tea.Tick(pinErrorFlash, func(time.Time) tea.Msg { return pinClearMsg{} })
}

// unlock brings the engine up behind the opened gate and kicks off the
// recurring intelligence cycle.
func (m *Model) unlock() tea.Cmd {
	m.eng = engine.New(m.st, m.svc, m.logger.Named("engine"))

	profile := m.eng.Profile()
	m.settingName.SetValue(profile.Name)
	m.settingPhone.SetValue(profile.PhoneNumber)
	m.settingEmail.SetValue(profile.Email)

	if w, err := engine.NewInboxWatcher(m.cfg.Storage.InboxDir, m.eng, m.logger.Named("inbox")); err == nil {
		m.watcher = w
		w.Start(context.Background())
	} else {
		m.logger.Warn("inbox watcher unavailable", zap.Error(err))
	}

	eng := m.eng
	return func() tea.Msg {
		tip, err := eng.RunIntelligenceCycle(context.Background())
		return cycleMsg{tip: tip, err: err}
	}
}

// waitForFragment blocks on the next stream fragment and re-enters Update
// with it, or reports the stream closed.
func waitForFragment(id string, frags <-chan string) tea.Cmd {
	return func() tea.Msg {
		fragment, ok := <-frags
		if !ok {
			return streamDoneMsg{id: id}
		}
		return streamFragMsg{id: id, fragment: fragment, frags: frags}
	}
}
