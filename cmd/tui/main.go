package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/caldervale/ledgerline/cmd/tui/internal/view"
	"github.com/caldervale/ledgerline/internal/config"
	"github.com/caldervale/ledgerline/internal/database"
	"github.com/caldervale/ledgerline/internal/ingest"
	"github.com/caldervale/ledgerline/internal/invoice"
	invoiceStore "github.com/caldervale/ledgerline/internal/invoice/store"
	"github.com/caldervale/ledgerline/internal/issue"
	issueStore "github.com/caldervale/ledgerline/internal/issue/store"
	"github.com/caldervale/ledgerline/internal/ledger"
	"github.com/caldervale/ledgerline/internal/poster"
	"github.com/caldervale/ledgerline/internal/preflight"
	"github.com/caldervale/ledgerline/internal/vendors"
	vendorStore "github.com/caldervale/ledgerline/internal/vendors/store"
)

type model struct {
	invoiceService *invoice.Service
	issueService   *issue.Service
	vendorService  *vendor.Service
	ingestService  *ingest.Service
	posterService  *poster.Service
	engine         *preflight.Engine

	currentView View

	ingestView    view.IngestModel
	invoicesView  view.InvoicesModel
	preflightView view.PreflightModel
	postView      view.PostModel
	issuesView    view.IssuesModel
	vendorsView   view.VendorsModel
}

type View int

const (
	ViewMenu      View = 0
	ViewIngest    View = 1
	ViewInvoices  View = 2
	ViewPreflight View = 3
	ViewPost      View = 4
	ViewIssues    View = 5
	ViewVendors   View = 6
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	invoiceSvc := invoice.NewService(invoiceStore.New(db))
	issueSvc := issue.NewService(issueStore.New(db))
	vendorSvc := vendor.NewService(vendorStore.New(db))
	ingestSvc := ingest.NewService()

	engine := preflight.NewEngine(invoiceSvc, issueSvc, preflight.Options{
		MinConfidence: decimal.RequireFromString(cfg.Preflight.MinConfidence),
		Tolerance:     decimal.RequireFromString(cfg.Preflight.Tolerance),
	})

	posterSvc := poster.NewService(invoiceSvc, ledger.New(cfg.Ledger.BaseURL, cfg.Ledger.Token))

	return model{
		invoiceService: invoiceSvc,
		issueService:   issueSvc,
		vendorService:  vendorSvc,
		ingestService:  ingestSvc,
		posterService:  posterSvc,
		engine:         engine,
		currentView:    ViewMenu,
		ingestView:     view.NewIngestModel(ingestSvc, invoiceSvc),
		invoicesView:   view.NewInvoicesModel(invoiceSvc),
		preflightView:  view.NewPreflightModel(invoiceSvc, engine),
		postView:       view.NewPostModel(invoiceSvc, engine, posterSvc),
		issuesView:     view.NewIssuesModel(issueSvc),
		vendorsView:    view.NewVendorsModel(vendorSvc),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewIngest
				m.ingestView = view.NewIngestModel(m.ingestService, m.invoiceService)

				return m, m.ingestView.Init()
			case "2":
				m.currentView = ViewInvoices
				m.invoicesView = view.NewInvoicesModel(m.invoiceService)

				return m, m.invoicesView.Init()
			case "3":
				m.currentView = ViewPreflight
				m.preflightView = view.NewPreflightModel(m.invoiceService, m.engine)

				return m, m.preflightView.Init()
			case "4":
				m.currentView = ViewPost
				m.postView = view.NewPostModel(m.invoiceService, m.engine, m.posterService)

				return m, m.postView.Init()
			case "5":
				m.currentView = ViewIssues
				m.issuesView = view.NewIssuesModel(m.issueService)

				return m, m.issuesView.Init()
			case "6":
				m.currentView = ViewVendors
				m.vendorsView = view.NewVendorsModel(m.vendorService)

				return m, m.vendorsView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewIngest:
		var newModel tea.Model
		newModel, cmd = m.ingestView.Update(msg)
		m.ingestView = newModel.(view.IngestModel)
	case ViewInvoices:
		var newModel tea.Model
		newModel, cmd = m.invoicesView.Update(msg)
		m.invoicesView = newModel.(view.InvoicesModel)
	case ViewPreflight:
		var newModel tea.Model
		newModel, cmd = m.preflightView.Update(msg)
		m.preflightView = newModel.(view.PreflightModel)
	case ViewPost:
		var newModel tea.Model
		newModel, cmd = m.postView.Update(msg)
		m.postView = newModel.(view.PostModel)
	case ViewIssues:
		var newModel tea.Model
		newModel, cmd = m.issuesView.Update(msg)
		m.issuesView = newModel.(view.IssuesModel)
	case ViewVendors:
		var newModel tea.Model
		newModel, cmd = m.vendorsView.Update(msg)
		m.vendorsView = newModel.(view.VendorsModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Ledgerline TUI\n\n" +
				"1. Ingest Extraction Feed\n" +
				"2. Review Invoices\n" +
				"3. Preflight Checks\n" +
				"4. Post to Ledger\n" +
				"5. Manage Issues\n" +
				"6. Vendor Scorecard\n\n" +
				"q. Quit",
		)
	case ViewIngest:
		return m.ingestView.View()
	case ViewInvoices:
		return m.invoicesView.View()
	case ViewPreflight:
		return m.preflightView.View()
	case ViewPost:
		return m.postView.View()
	case ViewIssues:
		return m.issuesView.View()
	case ViewVendors:
		return m.vendorsView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
