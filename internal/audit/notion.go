// Package audit exports reconciliation conflicts to a Notion database for
// manual review by the data team.
package audit

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/lotline/property-cli/internal/model"
)

// Client defines the Notion API operations the exporter uses.
type Client interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s).
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
}

// NewClient creates a Notion client with the given integration token.
// By default, API calls are throttled to 3 req/s (Notion's rate limit).
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "audit: rate limit")
		}
	}
	page, err := c.inner.Page.Create(ctx, req)
	if err != nil {
		return nil, eris.Wrap(err, "audit: create page")
	}
	return page, nil
}

// Exporter writes one Notion page per conflict so reviewers can see which
// sources disagreed and how the disagreement was resolved.
type Exporter struct {
	client Client
	dbID   string
}

func NewExporter(client Client, dbID string) *Exporter {
	return &Exporter{client: client, dbID: dbID}
}

// Export creates one page per conflict on the record. Pages that fail to
// create are logged and skipped; the first error is returned after all
// conflicts have been attempted.
func (e *Exporter) Export(ctx context.Context, rec *model.UnifiedPropertyRecord) error {
	var firstErr error
	for _, c := range rec.Conflicts {
		if _, err := e.client.CreatePage(ctx, e.conflictPage(rec, c)); err != nil {
			zap.L().Warn("conflict page create failed",
				zap.String("record_id", rec.ID),
				zap.String("field", c.Field),
				zap.Error(err))
			if firstErr == nil {
				firstErr = eris.Wrapf(err, "audit: export conflict %s", c.Field)
			}
		}
	}
	return firstErr
}

func (e *Exporter) conflictPage(rec *model.UnifiedPropertyRecord, c model.ConflictRecord) *notionapi.PageCreateRequest {
	created := notionapi.Date(rec.CreatedAt)
	return &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(e.dbID),
		},
		Properties: notionapi.Properties{
			"Name": notionapi.TitleProperty{
				Title: richText(fmt.Sprintf("%s — %s", rec.Address.Raw, c.Field)),
			},
			"Record ID": notionapi.RichTextProperty{
				RichText: richText(rec.ID),
			},
			"Field": notionapi.RichTextProperty{
				RichText: richText(c.Field),
			},
			"Candidates": notionapi.RichTextProperty{
				RichText: richText(formatCandidates(c.Candidates)),
			},
			"Resolved Value": notionapi.RichTextProperty{
				RichText: richText(fmt.Sprintf("%v", c.Resolved.Value)),
			},
			"Winning Source": notionapi.SelectProperty{
				Select: notionapi.Option{Name: string(c.Resolved.Source)},
			},
			"Strategy": notionapi.SelectProperty{
				Select: notionapi.Option{Name: string(c.Strategy)},
			},
			"Confidence": notionapi.NumberProperty{
				Number: c.Resolved.Confidence,
			},
			"Reconciled At": notionapi.DateProperty{
				Date: &notionapi.DateObject{Start: &created},
			},
		},
	}
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Text: &notionapi.Text{Content: s}},
	}
}

func formatCandidates(candidates []model.CandidateValue) string {
	var out string
	for i, cv := range candidates {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s=%v (%.2f)", cv.Source, cv.Value, cv.Confidence)
	}
	return out
}
