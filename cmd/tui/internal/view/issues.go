package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/caldervale/ledgerline/internal/issue"
)

type issuesState int

const (
	issuesStateBrowse issuesState = iota
	issuesStateResolve
	issuesStateNote
)

type IssuesModel struct {
	CommonModel
	issueService *issue.Service

	state  issuesState
	table  table.Model
	issues []*issue.Issue
	form   *huh.Form

	unresolvedOnly bool
	loading        bool
	err            error
	status         string

	// Form bindings
	formResolution string
	formNote       string
}

func NewIssuesModel(issueSvc *issue.Service) IssuesModel {
	columns := []table.Column{
		{Title: "Vendor", Width: 24},
		{Title: "Type", Width: 16},
		{Title: "Scope", Width: 8},
		{Title: "Status", Width: 10},
		{Title: "Resolution", Width: 18},
		{Title: "Description", Width: 36},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return IssuesModel{
		issueService:   issueSvc,
		table:          t,
		unresolvedOnly: true,
	}
}

func (m IssuesModel) Title() string { return "Issues" }
func (m IssuesModel) ShortHelp() string {
	if m.state != issuesStateBrowse {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | t: report | v: resolve | x: close | n: note | u: toggle unresolved | r: refresh"
}

func (m IssuesModel) Init() tea.Cmd {
	return m.loadIssuesCmd()
}

func (m IssuesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadIssuesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.issues = msg.issues
		m.refreshTable()
		return m, nil

	case issueActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.note
		}
		m.state = issuesStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadIssuesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case issuesStateBrowse:
		return m.updateBrowse(msg)
	case issuesStateResolve, issuesStateNote:
		return m.updateForm(msg)
	}

	return m, nil
}

func (m IssuesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadIssuesCmd()
		case "u":
			m.unresolvedOnly = !m.unresolvedOnly
			return m, m.loadIssuesCmd()
		case "t":
			return m, m.reportCmd()
		case "x":
			return m, m.closeCmd()
		case "v":
			return m.enterResolveMode()
		case "n":
			return m.enterNoteMode()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m IssuesModel) enterResolveMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return m, nil
	}

	resolutions := []issue.ResolutionType{
		issue.ResolutionCreditMemo,
		issue.ResolutionReplacement,
		issue.ResolutionPriceAdjustment,
		issue.ResolutionWriteOff,
		issue.ResolutionNoAction,
	}

	options := make([]huh.Option[string], len(resolutions))
	for i, res := range resolutions {
		options[i] = huh.NewOption(string(res), string(res))
	}

	m.formResolution = string(resolutions[0])

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("resolution").
				Title("Resolution").
				Options(options...).
				Value(&m.formResolution),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = issuesStateResolve
	m.table.Blur()
	return m, m.form.Init()
}

func (m IssuesModel) enterNoteMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return m, nil
	}

	m.formNote = ""

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("note").
				Title("Note").
				Value(&m.formNote).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("note cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = issuesStateNote
	m.table.Blur()
	return m, m.form.Init()
}

func (m IssuesModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = issuesStateBrowse
			m.form = nil
			m.table.Focus()
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	if m.state == issuesStateResolve {
		return m, m.resolveCmd()
	}

	return m, m.noteCmd()
}

func (m IssuesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading issues...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	scope := "All"
	if m.unresolvedOnly {
		scope = "Unresolved"
	}

	header := fmt.Sprintf("Showing: %s", activeStyle(scope))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state != issuesStateBrowse && m.form != nil {
		title := "Resolve Issue"
		if m.state == issuesStateNote {
			title = "Add Note"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *IssuesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.issues))
	for _, iss := range m.issues {
		resolution := string(iss.ResolutionType)
		if resolution != "" {
			resolution += " / " + string(iss.ResolutionStatus)
		}
		rows = append(rows, table.Row{
			iss.VendorName,
			string(iss.Type),
			string(iss.Scope),
			string(iss.Status),
			resolution,
			iss.Description,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadIssuesMsg struct {
	issues []*issue.Issue
	err    error
}

func (m IssuesModel) loadIssuesCmd() tea.Cmd {
	filter := issue.ListFilter{Unresolved: m.unresolvedOnly}

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		issues, err := m.issueService.List(ctx, filter)
		return loadIssuesMsg{issues: issues, err: err}
	}
}

type issueActionMsg struct {
	note string
	err  error
}

func (m IssuesModel) reportCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return nil
	}

	id := m.issues[idx].ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.issueService.Report(ctx, id); err != nil {
			return issueActionMsg{err: err}
		}

		return issueActionMsg{note: "Reported to vendor"}
	}
}

func (m IssuesModel) closeCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return nil
	}

	id := m.issues[idx].ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.issueService.Close(ctx, id); err != nil {
			return issueActionMsg{err: err}
		}

		return issueActionMsg{note: "Closed"}
	}
}

func (m IssuesModel) resolveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return nil
	}

	id := m.issues[idx].ID
	resolution := issue.ResolutionType(m.formResolution)

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.issueService.Resolve(ctx, id, resolution); err != nil {
			return issueActionMsg{err: err}
		}

		return issueActionMsg{note: fmt.Sprintf("Resolved via %s", resolution)}
	}
}

func (m IssuesModel) noteCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.issues) {
		return nil
	}

	id := m.issues[idx].ID
	note := m.formNote

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.issueService.AddCommunication(ctx, id, issue.CommNote, note, ""); err != nil {
			return issueActionMsg{err: err}
		}

		return issueActionMsg{note: "Note added"}
	}
}
