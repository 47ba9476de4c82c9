package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/caldervale/ledgerline/internal/invoice"
)

type invoicesState int

const (
	invoicesStateBrowse invoicesState = iota
	invoicesStateCorrect
)

type InvoicesModel struct {
	CommonModel
	invoiceService *invoice.Service

	state invoicesState
	table table.Model
	invs  []*invoice.Invoice
	form  *huh.Form

	statusFilterIdx int

	filter  invoice.ListFilter
	loading bool
	err     error
	status  string

	// Form bindings
	formField string
	formValue string
}

func NewInvoicesModel(invoiceSvc *invoice.Service) InvoicesModel {
	columns := []table.Column{
		{Title: "Date", Width: 12},
		{Title: "Number", Width: 14},
		{Title: "Vendor", Width: 26},
		{Title: "Total", Width: 12},
		{Title: "Status", Width: 14},
		{Title: "Approved", Width: 8},
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

	return InvoicesModel{
		invoiceService: invoiceSvc,
		table:          t,
		filter:         invoice.ListFilter{},
	}
}

func (m InvoicesModel) Title() string { return "Invoices" }
func (m InvoicesModel) ShortHelp() string {
	if m.state == invoicesStateCorrect {
		return "Navigate form | Esc: cancel"
	}
	return "Esc: back | a: approve | c: correct | s: status filter | r: refresh"
}

func (m InvoicesModel) Init() tea.Cmd {
	return m.loadInvoicesCmd()
}

func (m InvoicesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadInvoicesMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.invs = msg.invs
		m.refreshTable()
		return m, nil

	case invoiceActionMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.status = msg.note
		}
		m.state = invoicesStateBrowse
		m.form = nil
		m.table.Focus()
		return m, m.loadInvoicesCmd()

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case invoicesStateBrowse:
		return m.updateBrowse(msg)
	case invoicesStateCorrect:
		return m.updateCorrect(msg)
	}

	return m, nil
}

func (m InvoicesModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadInvoicesCmd()
		case "a":
			return m, m.approveCmd()
		case "c":
			return m.enterCorrectMode()
		case "s":
			m.statusFilterIdx = (m.statusFilterIdx + 1) % 6
			m.applyFilter()
			return m, m.loadInvoicesCmd()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

var correctableFields = []string{
	"vendor_name", "invoice_number", "subtotal", "tax_amount",
	"shipping_amount", "discount_amount", "total_amount",
}

func (m InvoicesModel) enterCorrectMode() (tea.Model, tea.Cmd) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.invs) {
		return m, nil
	}

	m.formField = correctableFields[0]
	m.formValue = ""

	options := make([]huh.Option[string], len(correctableFields))
	for i, f := range correctableFields {
		options[i] = huh.NewOption(f, f)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("field").
				Title("Field").
				Options(options...).
				Value(&m.formField),

			huh.NewInput().
				Key("value").
				Title("Corrected value").
				Value(&m.formValue).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("value cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)

	m.state = invoicesStateCorrect
	m.table.Blur()
	return m, m.form.Init()
}

func (m InvoicesModel) updateCorrect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = invoicesStateBrowse
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

	return m, m.correctCmd()
}

func (m InvoicesModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading invoices...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(fmt.Sprintf("Error: %v", m.err))
	}

	statusLabels := []string{"All", "Parsed", "Needs Review", "Ready", "Posted", "Failed"}

	header := fmt.Sprintf("Filter: [s] Status: %s", activeStyle(statusLabels[m.statusFilterIdx]))

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		tableView,
	)

	if m.state == invoicesStateCorrect && m.form != nil {
		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(48).
			Render(fmt.Sprintf("Correct Invoice\n\n%s", m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	if m.status != "" {
		content = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n" + content
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func activeStyle(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Render(s)
}

func (m *InvoicesModel) applyFilter() {
	switch m.statusFilterIdx {
	case 1:
		m.filter.Status = new(invoice.StatusParsed)
	case 2:
		m.filter.Status = new(invoice.StatusNeedsReview)
	case 3:
		m.filter.Status = new(invoice.StatusReadyToPush)
	case 4:
		m.filter.Status = new(invoice.StatusPosted)
	case 5:
		m.filter.Status = new(invoice.StatusFailed)
	default:
		m.filter.Status = nil
	}
}

func (m *InvoicesModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.invs))
	for _, inv := range m.invs {
		approved := ""
		if inv.Approved {
			approved = "yes"
		}
		rows = append(rows, table.Row{
			FormatDate(inv.InvoiceDate),
			inv.Number,
			inv.VendorName,
			FormatMoney(inv.Total),
			string(inv.Status),
			approved,
		})
	}
	m.table.SetRows(rows)
}

// Messages

type loadInvoicesMsg struct {
	invs []*invoice.Invoice
	err  error
}

func (m InvoicesModel) loadInvoicesCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		invs, err := m.invoiceService.List(ctx, m.filter)
		return loadInvoicesMsg{invs: invs, err: err}
	}
}

type invoiceActionMsg struct {
	note string
	err  error
}

func (m InvoicesModel) approveCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.invs) {
		return nil
	}

	id := m.invs[idx].ID

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		if _, err := m.invoiceService.Approve(ctx, id); err != nil {
			return invoiceActionMsg{err: err}
		}

		return invoiceActionMsg{note: "Approved"}
	}
}

func (m InvoicesModel) correctCmd() tea.Cmd {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.invs) {
		return nil
	}

	id := m.invs[idx].ID
	field := m.formField
	value := m.formValue

	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		_, err := m.invoiceService.ApplyCorrection(ctx, invoice.Correction{
			InvoiceID:   id,
			Field:       field,
			NewValue:    value,
			CorrectedBy: "tui",
		})
		if err != nil {
			return invoiceActionMsg{err: err}
		}

		return invoiceActionMsg{note: fmt.Sprintf("Corrected %s", field)}
	}
}
