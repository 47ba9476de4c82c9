package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/caldervale/ledgerline/internal/vendors"
)

// VendorsModel is a read-only scorecard of extraction accuracy per vendor.
type VendorsModel struct {
	CommonModel
	vendorService *vendor.Service

	table   table.Model
	vendors []*vendor.Vendor
	loading bool
	err     error
}

func NewVendorsModel(vendorSvc *vendor.Service) VendorsModel {
	columns := []table.Column{
		{Title: "Vendor", Width: 30},
		{Title: "Extracted", Width: 10},
		{Title: "Corrected", Width: 10},
		{Title: "Accuracy", Width: 10},
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

	return VendorsModel{
		vendorService: vendorSvc,
		table:         t,
		loading:       true,
	}
}

func (m VendorsModel) Title() string     { return "Vendor Scorecard" }
func (m VendorsModel) ShortHelp() string { return "Esc: back | r: refresh" }

func (m VendorsModel) Init() tea.Cmd {
	return m.loadVendorsCmd()
}

func (m VendorsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadVendorsMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.vendors = msg.vendors
		m.refreshTable()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadVendorsCmd()
		}

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m VendorsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading vendors...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	return lipgloss.NewStyle().Padding(1).Render(tableView)
}

func (m *VendorsModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.vendors))
	for _, v := range m.vendors {
		rows = append(rows, table.Row{
			v.Name,
			fmt.Sprintf("%d", v.ExtractedFields),
			fmt.Sprintf("%d", v.CorrectedFields),
			v.AccuracyRate().Mul(hundred).StringFixed(1) + "%",
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadVendorsMsg struct {
	vendors []*vendor.Vendor
	err     error
}

func (m VendorsModel) loadVendorsCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		vendors, err := m.vendorService.List(ctx)
		return loadVendorsMsg{vendors: vendors, err: err}
	}
}
