// Package gemini provides LLM-based extraction using Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/postmap"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.5-flash"

// DefaultMaxTokens is the largest page, in tokens, sent to the model.
const DefaultMaxTokens = 200_000

// AltSuffix is appended to an IMAGE field name to form its alt text field.
const AltSuffix = "/_alt"

var _ postmap.ExtractionService = (*ExtractionService)(nil)

// ExtractionService extracts records described by a connector's fields by
// asking Gemini for JSON that matches a schema built from those fields.
type ExtractionService struct {
	client     *genai.Client
	fetcher    postmap.Fetcher
	connectors postmap.ConnectorService

	// Model is the Gemini model name. Defaults to DefaultModel.
	Model string

	// Tokens, when set, rejects pages larger than MaxTokens before they
	// are sent to the model.
	Tokens    postmap.TokenCounter
	MaxTokens int
}

// NewExtractionService creates a new ExtractionService.
func NewExtractionService(client *genai.Client, fetcher postmap.Fetcher, connectors postmap.ConnectorService) *ExtractionService {
	return &ExtractionService{
		client:     client,
		fetcher:    fetcher,
		connectors: connectors,
		Model:      DefaultModel,
		MaxTokens:  DefaultMaxTokens,
	}
}

// Extract fetches pageURL and asks the model for the connector's fields.
func (s *ExtractionService) Extract(ctx context.Context, connectorID, pageURL string) (*postmap.ExtractionResult, error) {
	c, err := s.connectors.FindConnectorByID(ctx, connectorID)
	if err != nil {
		return nil, err
	}
	if c.Provider != postmap.ProviderGemini {
		return nil, postmap.Errorf(postmap.EINVALID, "connector %q uses provider %q", connectorID, c.Provider)
	}
	if len(c.Fields) == 0 {
		return nil, postmap.Errorf(postmap.EINVALID, "connector %q declares no fields", connectorID)
	}

	rawHTML, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	page, err := CleanHTML(rawHTML)
	if err != nil {
		return nil, err
	}

	if s.Tokens != nil && s.MaxTokens > 0 {
		n, err := s.Tokens.CountTokens(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("counting tokens: %w", err)
		}
		if n > s.MaxTokens {
			return nil, postmap.Errorf(postmap.EINVALID, "page has %d tokens, limit is %d", n, s.MaxTokens)
		}
	}

	result, err := s.client.Models.GenerateContent(ctx, s.Model,
		[]*genai.Content{{
			Parts: []*genai.Part{{Text: BuildUserPrompt(pageURL, page)}},
		}},
		BuildConfig(c.Fields),
	)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, postmap.Errorf(postmap.EINTERNAL, "gemini returned nil result")
	}

	records, err := ParseResponse(result.Text())
	if err != nil {
		return nil, err
	}

	return &postmap.ExtractionResult{
		Results:          records,
		OutputProperties: c.OutputProperties(),
	}, nil
}

// BuildConfig returns the GenerateContentConfig requesting JSON records
// shaped by fields.
func BuildConfig(fields []postmap.ConnectorField) *genai.GenerateContentConfig {
	temp := float32(0)
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{
				Text: "You extract structured records from web pages. Return every record on the page that has at least one of the requested fields. Copy values verbatim from the page. Image fields hold absolute image URLs and their alt fields hold the matching alt texts in the same order. Never invent values.",
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema:   BuildSchema(fields),
	}
}

// BuildSchema returns the response schema for fields. Every field is a list
// of strings; IMAGE fields get an additional alt text list.
func BuildSchema(fields []postmap.ConnectorField) *genai.Schema {
	props := make(map[string]*genai.Schema, len(fields))
	var order []string

	for _, f := range fields {
		desc := f.Description
		if desc == "" {
			desc = f.Name
		}
		if f.Type == postmap.PropertyImage {
			desc += " (absolute image URLs)"
		}
		props[f.Name] = &genai.Schema{
			Type:        genai.TypeArray,
			Description: desc,
			Items:       &genai.Schema{Type: genai.TypeString},
		}
		order = append(order, f.Name)

		if f.Type == postmap.PropertyImage {
			alt := f.Name + AltSuffix
			props[alt] = &genai.Schema{
				Type:        genai.TypeArray,
				Description: "alt texts of " + f.Name + ", aligned with its URLs",
				Items:       &genai.Schema{Type: genai.TypeString},
			}
			order = append(order, alt)
		}
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"results": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type:             genai.TypeObject,
					Properties:       props,
					PropertyOrdering: order,
				},
			},
		},
		Required: []string{"results"},
	}
}

// BuildUserPrompt builds the user prompt containing the page.
func BuildUserPrompt(pageURL, page string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<source>%s</source>\n", pageURL)
	sb.WriteString("<page>\n")
	sb.WriteString(page)
	sb.WriteString("\n</page>")
	return sb.String()
}

// ParseResponse decodes a {"results": [...]} response into records.
func ParseResponse(text string) ([]postmap.Record, error) {
	var resp struct {
		Results []postmap.Record `json:"results"`
	}
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return nil, fmt.Errorf("gemini: decoding response: %w", err)
	}
	return resp.Results, nil
}

// CleanHTML drops scripts, styles and other non-content elements and
// returns the remaining body markup.
func CleanHTML(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", postmap.Errorf(postmap.EINVALID, "empty HTML input")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", postmap.Errorf(postmap.EINVALID, "failed to parse HTML: %v", err)
	}
	doc.Find("script, style, noscript, svg, iframe, link, meta").Remove()

	body, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}
