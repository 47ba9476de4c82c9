package view

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/preflight"
)

// PreflightModel runs the posting checks over every invoice that is in or
// near the posting queue and shows the partition.
type PreflightModel struct {
	CommonModel
	invoiceService *invoice.Service
	engine         *preflight.Engine

	table    table.Model
	response *preflight.Response
	loading  bool
	err      error
}

func NewPreflightModel(invoiceSvc *invoice.Service, engine *preflight.Engine) PreflightModel {
	columns := []table.Column{
		{Title: "Invoice", Width: 38},
		{Title: "Severity", Width: 10},
		{Title: "Finding", Width: 50},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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

	return PreflightModel{
		invoiceService: invoiceSvc,
		engine:         engine,
		table:          t,
		loading:        true,
	}
}

func (m PreflightModel) Title() string     { return "Preflight" }
func (m PreflightModel) ShortHelp() string { return "Esc: back | r: re-run" }

func (m PreflightModel) Init() tea.Cmd {
	return m.checkCmd()
}

func (m PreflightModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case preflightResultMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.response = msg.response
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.checkCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m PreflightModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Running preflight checks...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.response == nil {
		return lipgloss.NewStyle().Padding(2).Render("No candidates to check.")
	}

	summary := fmt.Sprintf("Ready to post: %d | Findings: %d | Blocked vendors: %d",
		len(m.response.ReadyIDs), len(m.response.Findings), len(m.response.BlockingVendors))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	parts := []string{
		lipgloss.NewStyle().PaddingBottom(1).Render(summary),
		tableView,
	}

	for _, block := range m.response.BlockingVendors {
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render(
			fmt.Sprintf("Vendor %s: %s (%d invoices held)", block.VendorName, block.Message, len(block.InvoiceIDs)),
		))
	}

	return lipgloss.NewStyle().Padding(1).Render(
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m *PreflightModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.response.Findings))
	for _, f := range m.response.Findings {
		rows = append(rows, table.Row{
			f.InvoiceID.String(),
			string(f.Severity),
			f.Message,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type preflightResultMsg struct {
	response *preflight.Response
	err      error
}

func (m PreflightModel) checkCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		ids, err := postingCandidates(ctx, m.invoiceService)
		if err != nil {
			return preflightResultMsg{err: err}
		}

		if len(ids) == 0 {
			return preflightResultMsg{response: &preflight.Response{}}
		}

		resp, err := m.engine.Check(ctx, ids)
		return preflightResultMsg{response: resp, err: err}
	}
}

// postingCandidates gathers every invoice a preflight run cares about:
// those queued for posting plus those still awaiting review.
func postingCandidates(ctx context.Context, svc *invoice.Service) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	for _, status := range []invoice.Status{invoice.StatusReadyToPush, invoice.StatusNeedsReview} {
		invs, err := svc.List(ctx, invoice.ListFilter{Status: &status})
		if err != nil {
			return nil, err
		}

		for _, inv := range invs {
			ids = append(ids, inv.ID)
		}
	}

	return ids, nil
}
