package poster

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/caldervale/ledgerline/internal/auth"
	"github.com/caldervale/ledgerline/internal/invoice"
)

// FailureReason classifies why one invoice missed the ledger.
type FailureReason string

const (
	ReasonNotFound     FailureReason = "NotFound"
	ReasonStateChanged FailureReason = "StateChanged"
	ReasonSinkError    FailureReason = "SinkError"
)

type Success struct {
	ID          uuid.UUID `json:"id"`
	ExternalRef string    `json:"external_reference"`
}

type Failure struct {
	ID     uuid.UUID     `json:"id"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Result partitions a batch: every input id appears in exactly one list,
// in input order.
type Result struct {
	Posted []Success `json:"success"`
	Failed []Failure `json:"failed"`
}

// Receipt is the ledger's acknowledgement of one posted invoice.
type Receipt struct {
	Reference string
	Payload   json.RawMessage
}

//go:generate mockgen -source=poster.go -destination=poster_mock.go -package=poster
type Sink interface {
	Post(ctx context.Context, inv *invoice.Invoice) (*Receipt, error)
}

// InvoiceStore is the slice of the record store the poster needs.
// *invoice.Service satisfies it.
type InvoiceStore interface {
	Get(ctx context.Context, id uuid.UUID) (*invoice.Invoice, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expected, next invoice.Status) error
	RecordPosting(ctx context.Context, id uuid.UUID, rec invoice.PostingRecord) error
}

type Service struct {
	invoices    InvoiceStore
	sink        Sink
	concurrency int
}

func NewService(invoices InvoiceStore, sink Sink) *Service {
	return &Service{
		invoices:    invoices,
		sink:        sink,
		concurrency: 4,
	}
}

// PostBatch pushes each invoice to the ledger independently. The caller is
// expected to pass a preflight's readyIds, but every id is re-validated by
// claiming the ready_to_push -> pushed edge first: losing that claim means
// another actor moved the invoice since preflight, and the item fails with
// StateChanged instead of double-posting. Failures never roll back or block
// other items, and the call always runs the whole batch to completion.
func (s *Service) PostBatch(ctx context.Context, ids []uuid.UUID) (*Result, error) {
	type outcome struct {
		success *Success
		failure *Failure
	}

	outcomes := make([]outcome, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, id := range ids {
		g.Go(func() error {
			success, failure := s.postOne(gctx, id)
			outcomes[i] = outcome{success: success, failure: failure}

			return nil
		})
	}

	// Workers never return errors; failures are data.
	_ = g.Wait()

	result := &Result{Posted: []Success{}, Failed: []Failure{}}

	for _, o := range outcomes {
		if o.success != nil {
			result.Posted = append(result.Posted, *o.success)
		} else {
			result.Failed = append(result.Failed, *o.failure)
		}
	}

	return result, nil
}

func (s *Service) postOne(ctx context.Context, id uuid.UUID) (*Success, *Failure) {
	inv, err := s.invoices.Get(ctx, id)
	if err != nil {
		if errors.Is(err, invoice.ErrNotFound) {
			return nil, &Failure{ID: id, Reason: ReasonNotFound}
		}

		return nil, &Failure{ID: id, Reason: ReasonStateChanged, Detail: err.Error()}
	}

	// Claim the invoice. This is the race guard between preflight and post.
	err = s.invoices.UpdateStatus(ctx, id, invoice.StatusReadyToPush, invoice.StatusPushed)
	if err != nil {
		return nil, &Failure{ID: id, Reason: ReasonStateChanged, Detail: err.Error()}
	}

	receipt, err := s.sink.Post(ctx, inv)
	if err != nil {
		if updateErr := s.invoices.UpdateStatus(ctx, id, invoice.StatusPushed, invoice.StatusFailed); updateErr != nil {
			slog.Error("marking invoice failed", "invoice_id", id, "error", updateErr)
		}

		return nil, &Failure{ID: id, Reason: ReasonSinkError, Detail: err.Error()}
	}

	rec := invoice.PostingRecord{
		PostedAt:    time.Now().UTC(),
		ExternalRef: receipt.Reference,
		Response:    receipt.Payload,
	}

	if identity, ok := auth.FromContext(ctx); ok {
		rec.TenantID = identity.OrgID
	}

	// The ledger accepted the invoice; bookkeeping errors from here on are
	// logged but the item still reports success.
	if err := s.invoices.RecordPosting(ctx, id, rec); err != nil {
		slog.Error("recording posting metadata", "invoice_id", id, "error", err)
	}

	if err := s.invoices.UpdateStatus(ctx, id, invoice.StatusPushed, invoice.StatusPosted); err != nil {
		slog.Error("confirming posted status", "invoice_id", id, "error", err)
	}

	return &Success{ID: id, ExternalRef: receipt.Reference}, nil
}
