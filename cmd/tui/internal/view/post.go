package view

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/caldervale/ledgerline/internal/invoice"
	"github.com/caldervale/ledgerline/internal/poster"
	"github.com/caldervale/ledgerline/internal/preflight"
)

type postState int

const (
	postStateChecking postState = iota
	postStateConfirm
	postStatePosting
	postStateDone
)

// PostModel drives a bulk posting run: preflight first, an explicit
// confirmation, then the batch itself.
type PostModel struct {
	CommonModel
	invoiceService *invoice.Service
	engine         *preflight.Engine
	posterService  *poster.Service

	state    postState
	form     *huh.Form
	readyIDs []uuid.UUID
	held     int
	result   *poster.Result
	err      error

	confirmed bool
}

func NewPostModel(invoiceSvc *invoice.Service, engine *preflight.Engine, posterSvc *poster.Service) PostModel {
	return PostModel{
		invoiceService: invoiceSvc,
		engine:         engine,
		posterService:  posterSvc,
		state:          postStateChecking,
	}
}

func (m PostModel) Title() string { return "Post to Ledger" }
func (m PostModel) ShortHelp() string {
	if m.state == postStateConfirm {
		return "Confirm or cancel"
	}
	return "Esc: back"
}

func (m PostModel) Init() tea.Cmd {
	return m.preflightCmd()
}

func (m PostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case postPreflightMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = postStateDone
			return m, nil
		}

		m.readyIDs = msg.readyIDs
		m.held = msg.held

		if len(m.readyIDs) == 0 {
			m.state = postStateDone
			return m, nil
		}

		m.confirmed = false
		m.form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Key("confirm").
					Title(fmt.Sprintf("Post %d invoices to the ledger?", len(m.readyIDs))).
					Value(&m.confirmed),
			),
		).WithWidth(45).WithShowHelp(false)
		m.state = postStateConfirm

		return m, m.form.Init()

	case postResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = postStateDone
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return m, Back
		}
	}

	if m.state == postStateConfirm && m.form != nil {
		form, cmd := m.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			m.form = f
		}

		if m.form.State != huh.StateCompleted {
			return m, cmd
		}

		if !m.confirmed {
			return m, Back
		}

		m.state = postStatePosting
		return m, m.postCmd()
	}

	return m, nil
}

func (m PostModel) View() string {
	pad := lipgloss.NewStyle().Padding(2)

	switch m.state {
	case postStateChecking:
		return pad.Render("Running preflight checks...")
	case postStateConfirm:
		header := fmt.Sprintf("%d invoices ready", len(m.readyIDs))
		if m.held > 0 {
			header += fmt.Sprintf(", %d held back", m.held)
		}
		return pad.Render(header + "\n\n" + m.form.View())
	case postStatePosting:
		return pad.Render(fmt.Sprintf("Posting %d invoices...", len(m.readyIDs)))
	}

	if m.err != nil {
		return pad.Render(fmt.Sprintf("Error: %v", m.err))
	}

	if m.result == nil {
		return pad.Render("Nothing ready to post.\n\nEsc to go back.")
	}

	out := fmt.Sprintf("Posted: %d | Failed: %d\n", len(m.result.Posted), len(m.result.Failed))
	for _, s := range m.result.Posted {
		out += fmt.Sprintf("\n  %s -> %s", s.ID, s.ExternalRef)
	}
	for _, f := range m.result.Failed {
		out += fmt.Sprintf("\n  %s FAILED (%s) %s", f.ID, f.Reason, f.Detail)
	}

	return pad.Render(out + "\n\nEsc to go back.")
}

// Messages

type postPreflightMsg struct {
	readyIDs []uuid.UUID
	held     int
	err      error
}

func (m PostModel) preflightCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := DbCtx()
		defer cancel()

		ids, err := postingCandidates(ctx, m.invoiceService)
		if err != nil {
			return postPreflightMsg{err: err}
		}

		if len(ids) == 0 {
			return postPreflightMsg{}
		}

		resp, err := m.engine.Check(ctx, ids)
		if err != nil {
			return postPreflightMsg{err: err}
		}

		return postPreflightMsg{
			readyIDs: resp.ReadyIDs,
			held:     len(ids) - len(resp.ReadyIDs),
		}
	}
}

type postResultMsg struct {
	result *poster.Result
	err    error
}

func (m PostModel) postCmd() tea.Cmd {
	ids := m.readyIDs

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
		defer cancel()

		result, err := m.posterService.PostBatch(ctx, ids)
		return postResultMsg{result: result, err: err}
	}
}
