package view

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/caldervale/ledgerline/internal/ingest"
	"github.com/caldervale/ledgerline/internal/invoice"
)

type ingestState int

const (
	ingestStateForm ingestState = iota
	ingestStateRunning
	ingestStateDone
)

type IngestModel struct {
	CommonModel
	ingestService  *ingest.Service
	invoiceService *invoice.Service

	state  ingestState
	form   *huh.Form
	result *invoice.IngestResult
	err    error

	// Form bindings
	formPath string
	formFeed string
}

func NewIngestModel(ingestSvc *ingest.Service, invoiceSvc *invoice.Service) IngestModel {
	m := IngestModel{
		ingestService:  ingestSvc,
		invoiceService: invoiceSvc,
		formFeed:       string(ingest.FeedExtract),
	}
	m.form = m.newForm()

	return m
}

func (m IngestModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("feed").
				Title("Feed").
				Options(huh.NewOption("Extraction feed", string(ingest.FeedExtract))).
				Value(&m.formFeed),

			huh.NewInput().
				Key("path").
				Title("Feed file path").
				Placeholder("/path/to/feed.csv").
				Value(&m.formPath).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("path cannot be empty")
					}
					return nil
				}),
		),
	).WithWidth(55).WithShowHelp(false)
}

func (m IngestModel) Title() string     { return "Ingest Feed" }
func (m IngestModel) ShortHelp() string { return "Esc: back" }

func (m IngestModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m IngestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ingestDoneMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = ingestStateDone
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyEsc {
			return m, Back
		}
	}

	if m.state != ingestStateForm {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.state = ingestStateRunning
	return m, m.ingestCmd()
}

func (m IngestModel) View() string {
	pad := lipgloss.NewStyle().Padding(2)

	switch m.state {
	case ingestStateForm:
		return pad.Render("Ingest Extraction Feed\n\n" + m.form.View())
	case ingestStateRunning:
		return pad.Render("Ingesting " + m.formPath + "...")
	}

	if m.err != nil {
		return pad.Render(fmt.Sprintf("Error: %v\n\nEsc to go back.", m.err))
	}

	out := fmt.Sprintf("Created: %d | Duplicates skipped: %d\n",
		len(m.result.Created), len(m.result.Duplicates))
	for _, inv := range m.result.Created {
		out += fmt.Sprintf("\n  %s %s (%s)", inv.VendorName, inv.Number, FormatMoney(inv.Total))
	}
	for _, inv := range m.result.Duplicates {
		out += fmt.Sprintf("\n  %s %s already ingested", inv.VendorName, inv.Number)
	}

	return pad.Render(out + "\n\nEsc to go back.")
}

// Messages

type ingestDoneMsg struct {
	result *invoice.IngestResult
	err    error
}

func (m IngestModel) ingestCmd() tea.Cmd {
	path := m.formPath
	feed := ingest.Feed(m.formFeed)

	return func() tea.Msg {
		file, err := os.Open(path)
		if err != nil {
			return ingestDoneMsg{err: err}
		}
		defer file.Close()

		params, err := m.ingestService.Parse(feed, file)
		if err != nil {
			return ingestDoneMsg{err: err}
		}

		ctx, cancel := DbCtx()
		defer cancel()

		result, err := m.invoiceService.Ingest(ctx, params)
		return ingestDoneMsg{result: result, err: err}
	}
}
