// Package vision extracts structured facility data from page
// screenshots using the Anthropic API.
package vision

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/oasara/enrich-cli/internal/resilience"
)

// Client defines the vision operations used by the pipeline.
type Client interface {
	Extract(ctx context.Context, req Request) (*Extraction, error)
}

// Request carries facility context plus base64-encoded JPEG page
// sections, in top-to-bottom order.
type Request struct {
	FacilityName string
	City         string
	Country      string
	Website      string
	Images       []string
}

// Extraction is the structured output the model is asked to produce.
type Extraction struct {
	Doctors      []Doctor      `json:"doctors"`
	Pricing      []Price       `json:"pricing"`
	Testimonials []Testimonial `json:"testimonials"`
	Packages     []Package     `json:"packages"`
	Metadata     Metadata      `json:"metadata"`
}

// Doctor is one practitioner read off a screenshot.
type Doctor struct {
	Name           string `json:"name"`
	Specialty      string `json:"specialty"`
	Qualifications string `json:"qualifications"`
	Bio            string `json:"bio"`
}

// Price is one visible procedure price.
type Price struct {
	Procedure string  `json:"procedure"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency"`
	PriceType string  `json:"price_type"`
	PriceMax  float64 `json:"price_max"`
}

// Testimonial is one visible patient review.
type Testimonial struct {
	PatientName string  `json:"patient_name"`
	ReviewText  string  `json:"review_text"`
	Rating      float64 `json:"rating"`
}

// Package is one visible treatment bundle.
type Package struct {
	PackageName      string  `json:"package_name"`
	Description      string  `json:"description"`
	Price            float64 `json:"price"`
	IncludedServices string  `json:"included_services"`
}

// Metadata carries the model's self-assessment of the extraction.
type Metadata struct {
	DataFound  bool   `json:"data_found"`
	Confidence string `json:"confidence"`
	Notes      string `json:"notes"`
}

// Empty returns an extraction with no items and the given note.
func Empty(notes string) *Extraction {
	return &Extraction{Metadata: Metadata{Notes: notes}}
}

// Total is the item count across every kind.
func (e *Extraction) Total() int {
	return len(e.Doctors) + len(e.Pricing) + len(e.Testimonials) + len(e.Packages)
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
}

// NewClient creates a vision client backed by the SDK. Each Extract
// call is bounded by timeout independent of the batch deadline.
func NewClient(apiKey, model string, maxTokens int64, timeout time.Duration) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
		model:     model,
		maxTokens: maxTokens,
		timeout:   timeout,
	}
}

func (c *sdkClient) Extract(ctx context.Context, req Request) (*Extraction, error) {
	if len(req.Images) == 0 {
		return nil, eris.New("vision: no images")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	blocks := make([]sdk.ContentBlockParamUnion, 0, len(req.Images)+1)
	blocks = append(blocks, sdk.NewTextBlock(BuildPrompt(req)))
	for _, img := range req.Images {
		blocks = append(blocks, sdk.NewImageBlockBase64("image/jpeg", img))
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "vision_extract")
	msg, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*sdk.Message, error) {
		return c.client.Messages.New(ctx, sdk.MessageNewParams{
			Model:       sdk.Model(c.model),
			MaxTokens:   c.maxTokens,
			Temperature: sdk.Float(0.1),
			Messages: []sdk.MessageParam{
				sdk.NewUserMessage(blocks...),
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "vision: create message")
	}

	var sb strings.Builder
	for _, b := range msg.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}

	extraction := Parse(sb.String())
	if extraction.Total() == 0 && extraction.Metadata.Notes != "" {
		zap.L().Warn("vision: degraded to empty extraction",
			zap.String("facility", req.FacilityName),
			zap.String("notes", extraction.Metadata.Notes),
		)
	}

	zap.L().Debug("vision: extraction complete",
		zap.String("facility", req.FacilityName),
		zap.Int("items", extraction.Total()),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)

	return extraction, nil
}
