// Package oracle calls Claude to extract event facts from a caption. The
// model is treated as an opaque second opinion: one request per post, a
// strict JSON contract, and a hard deadline so a slow API never stalls
// consensus.
package oracle

import (
	"context"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/nightgrid/captiond/internal/config"
	"github.com/nightgrid/captiond/internal/model"
	"github.com/nightgrid/captiond/internal/resilience"
	"github.com/nightgrid/captiond/pkg/anthropic"
)

const maxResponseTokens = 1024

const systemText = `You are an expert at extracting event details from nightlife and music event social media captions. Captions mix English and Filipino freely. Return ONLY a valid JSON object with these keys:
{
  "isEvent": <bool, true if the post announces a specific upcoming event>,
  "eventDate": <"YYYY-MM-DD" or null>,
  "eventEndDate": <"YYYY-MM-DD" or null, for multi-day events or sets that cross midnight>,
  "eventTime": <"HH:MM" 24-hour start time or null>,
  "endTime": <"HH:MM" 24-hour end time or null>,
  "locationName": <venue name or null>,
  "isFree": <bool or null>,
  "price": <number in PHP or null>,
  "priceMin": <number or null, when tiers are listed>,
  "priceMax": <number or null>,
  "signupUrl": <RSVP/ticket URL or null>,
  "isRecurring": <bool, true for weekly/monthly series>,
  "recurrencePattern": <"weekly"/"monthly"/etc or null>,
  "availabilityStatus": <"available"/"sold_out"/"limited" or null>,
  "confidence": <0.0-1.0 overall confidence>,
  "reasoning": <brief explanation>
}
Use null for anything the caption does not state. Do not guess.`

const userPrompt = `Caption:
%s

Location hint: %s
Posted at: %s

Extract the event details. Return only the JSON object.`

// Extractor produces one source's answer for a post.
type Extractor interface {
	Extract(ctx context.Context, post model.Post) (*model.ExtractionResult, error)
}

// Claude implements Extractor against the Anthropic API.
type Claude struct {
	client  anthropic.Client
	model   string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewClaude creates a Claude extractor.
func NewClaude(client anthropic.Client, aiCfg config.AnthropicConfig, cfg config.OracleConfig) *Claude {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 2
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 4
	}

	retry := resilience.DefaultRetryConfig()
	if cfg.MaxRetries > 0 {
		retry.MaxAttempts = cfg.MaxRetries
	}
	retry.OnRetry = resilience.RetryLogger("anthropic", "extract")

	return &Claude{
		client:  client,
		model:   aiCfg.Model,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retry:   retry,
		timeout: cfg.Timeout(),
	}
}

// Extract sends the caption to the model and parses its JSON answer. The
// call carries its own deadline; callers see an error only when the
// API fails or the response is not salvageable JSON.
func (c *Claude) Extract(ctx context.Context, post model.Post) (*model.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "oracle: rate limit wait")
	}

	hint := post.LocationHint
	if hint == "" {
		hint = "none"
	}
	prompt := fmt.Sprintf(userPrompt, post.Caption, hint, post.PostedAt.Format(time.RFC3339))

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return c.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:     c.model,
			MaxTokens: maxResponseTokens,
			System:    anthropic.BuildCachedSystemBlocks(systemText),
			Messages: []anthropic.Message{
				{Role: "user", Content: prompt},
			},
		})
	})
	if err != nil {
		return nil, eris.Wrap(err, "oracle: create message")
	}

	resp.Usage.LogCost(c.model, "extract")

	result, err := parseAnswer(resp.Text())
	if err != nil {
		return nil, eris.Wrapf(err, "oracle: parse answer for post %s", post.ID)
	}
	return result, nil
}
