package ingest

import (
	"fmt"
	"io"

	"github.com/caldervale/ledgerline/internal/encoding"
	"github.com/caldervale/ledgerline/internal/ingest/extractfeed"
	"github.com/caldervale/ledgerline/internal/invoice"
)

// Feed names the upstream extraction export format.
type Feed string

const FeedExtract Feed = "extract"

type Parser interface {
	Parse(r io.Reader) ([]invoice.CreateParams, error)
}

type Service struct {
	extractParser Parser
}

func NewService() *Service {
	return &Service{
		extractParser: extractfeed.New(),
	}
}

// Parse decodes and parses an uploaded feed into invoice create params.
// The reader's charset is normalized to UTF-8 before parsing.
func (s *Service) Parse(feed Feed, r io.Reader) ([]invoice.CreateParams, error) {
	var parser Parser

	switch feed {
	case FeedExtract:
		parser = s.extractParser
	default:
		return nil, fmt.Errorf("unknown feed: %s", feed)
	}

	utf8r, err := encoding.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	return parser.Parse(utf8r)
}
