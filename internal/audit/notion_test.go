package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotline/property-cli/internal/model"
)

type mockNotionClient struct {
	pages   []*notionapi.PageCreateRequest
	failOn  string // field name that triggers an error
	created int
}

func (m *mockNotionClient) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if m.failOn != "" {
		if field, ok := req.Properties["Field"].(notionapi.RichTextProperty); ok {
			if len(field.RichText) > 0 && field.RichText[0].Text.Content == m.failOn {
				return nil, eris.New("boom")
			}
		}
	}
	m.pages = append(m.pages, req)
	m.created++
	return &notionapi.Page{}, nil
}

func auditRecord() *model.UnifiedPropertyRecord {
	return &model.UnifiedPropertyRecord{
		ID:        "rec-1",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Address:   model.Address{Raw: "123 Main St, Austin, TX 78704"},
		Conflicts: []model.ConflictRecord{
			{
				Field: "year_built",
				Candidates: []model.CandidateValue{
					{Source: model.SourceCounty, Value: 1998, Confidence: 0.9},
					{Source: model.SourceZenlist, Value: 1995, Confidence: 0.8},
				},
				Resolved: model.CandidateValue{Source: model.SourceCounty, Value: 1998, Confidence: 0.9},
				Strategy: model.ResolveHighestPriority,
			},
			{
				Field: "list_price",
				Candidates: []model.CandidateValue{
					{Source: model.SourceZenlist, Value: 450000.0, Confidence: 0.85},
					{Source: model.SourceHomescout, Value: 499000.0, Confidence: 0.8},
				},
				Resolved: model.CandidateValue{Source: model.SourceZenlist, Value: 450000.0, Confidence: 0.85},
				Strategy: model.ResolveHighestPriority,
			},
		},
	}
}

func TestExporter_Export(t *testing.T) {
	mock := &mockNotionClient{}
	exp := NewExporter(mock, "db-123")

	require.NoError(t, exp.Export(context.Background(), auditRecord()))
	require.Len(t, mock.pages, 2)

	props := mock.pages[0].Properties
	title := props["Name"].(notionapi.TitleProperty)
	assert.Equal(t, "123 Main St, Austin, TX 78704 — year_built", title.Title[0].Text.Content)

	source := props["Winning Source"].(notionapi.SelectProperty)
	assert.Equal(t, "county", source.Select.Name)

	candidates := props["Candidates"].(notionapi.RichTextProperty)
	assert.Contains(t, candidates.RichText[0].Text.Content, "county=1998 (0.90)")
	assert.Contains(t, candidates.RichText[0].Text.Content, "zenlist=1995 (0.80)")
}

func TestExporter_Export_NoConflicts(t *testing.T) {
	mock := &mockNotionClient{}
	exp := NewExporter(mock, "db-123")

	rec := auditRecord()
	rec.Conflicts = nil
	require.NoError(t, exp.Export(context.Background(), rec))
	assert.Zero(t, mock.created)
}

func TestExporter_Export_PartialFailure(t *testing.T) {
	mock := &mockNotionClient{failOn: "year_built"}
	exp := NewExporter(mock, "db-123")

	err := exp.Export(context.Background(), auditRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export conflict year_built")

	// The remaining conflict is still exported.
	assert.Equal(t, 1, mock.created)
}
