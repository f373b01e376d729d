// Package gemini talks to Google's Gemini API for product identification,
// enrichment, grounded price search and chat.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"veribuy/config"
	"veribuy/models"
	"veribuy/utils"
)

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini: empty response")

// Client wraps a genai client with the prompts and schemas VeriBuy uses.
type Client struct {
	client   *genai.Client
	model    string
	currency string
	market   string
	logger   *utils.Logger
}

// New creates a Client from cfg. The API key must be set.
func New(ctx context.Context, cfg *config.Config, logger *utils.Logger) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("gemini: GEMINI_API_KEY is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GeminiURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{
		client:   client,
		model:    cfg.GeminiModel,
		currency: cfg.Currency,
		market:   cfg.Market,
		logger:   logger.With("component", "gemini"),
	}, nil
}

// IdentifyImage asks the model what product a photo shows.
func (c *Client) IdentifyImage(ctx context.Context, img models.ImagePayload) (*models.ProductInfo, error) {
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil {
		return nil, fmt.Errorf("gemini: decode image payload: %w", err)
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText(c.identifyImagePrompt()),
		}, genai.RoleUser),
	}

	var product models.ProductInfo
	if err := c.generateJSON(ctx, "identify-image", contents, productSchema(), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// IdentifyQuery resolves a URL or free-text search to a product. page, when
// non-nil, adds what a browser saw at the URL.
func (c *Client) IdentifyQuery(ctx context.Context, query string, page *models.PageSnapshot) (*models.ProductInfo, error) {
	var product models.ProductInfo
	contents := genai.Text(c.identifyQueryPrompt(query, page))
	if err := c.generateJSON(ctx, "identify-query", contents, productSchema(), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) CheckAuthenticity(ctx context.Context, product models.ProductInfo) (*models.AuthenticityResult, error) {
	var result models.AuthenticityResult
	contents := genai.Text(c.authenticityPrompt(product))
	if err := c.generateJSON(ctx, "authenticity", contents, authenticitySchema(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) AnalyzeReviews(ctx context.Context, productName string) (*models.ReviewAnalysis, error) {
	var result models.ReviewAnalysis
	contents := genai.Text(c.reviewPrompt(productName))
	if err := c.generateJSON(ctx, "reviews", contents, reviewSchema(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchPrices runs a Google Search grounded request and returns the cited
// web pages. Price extraction from the titles happens downstream.
func (c *Client) SearchPrices(ctx context.Context, productName string) ([]models.GroundingSource, error) {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(c.pricePrompt(productName)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		})
	if err != nil {
		return nil, fmt.Errorf("gemini: price search: %w", err)
	}

	var sources []models.GroundingSource
	if len(resp.Candidates) > 0 && resp.Candidates[0].GroundingMetadata != nil {
		for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
			if chunk == nil || chunk.Web == nil {
				continue
			}
			sources = append(sources, models.GroundingSource{Title: chunk.Web.Title, URI: chunk.Web.URI})
		}
	}

	c.logger.Debug("price search for %q returned %d sources in %v", productName, len(sources), time.Since(start))
	return sources, nil
}

// StartChat opens a conversation primed with the assistant instruction.
func (c *Client) StartChat(ctx context.Context) (*Chat, error) {
	chat, err := c.client.Chats.Create(ctx, c.model, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.chatInstruction(), genai.RoleUser),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini: create chat: %w", err)
	}
	return &Chat{chat: chat}, nil
}

// Chat is one running conversation. The model sees the whole history on
// every turn. Not safe for concurrent use.
type Chat struct {
	chat *genai.Chat
}

// Send delivers one user turn and returns the reply text.
func (ch *Chat) Send(ctx context.Context, text string) (string, error) {
	resp, err := ch.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", fmt.Errorf("gemini: send chat message: %w", err)
	}
	return resp.Text(), nil
}

func (c *Client) generateJSON(ctx context.Context, op string, contents []*genai.Content, schema *genai.Schema, out any) error {
	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return fmt.Errorf("gemini: %s: %w", op, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return fmt.Errorf("gemini: %s: %w", op, ErrEmptyResponse)
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("gemini: %s: decode response: %w", op, err)
	}

	c.logger.Debug("%s completed in %v (%d bytes)", op, time.Since(start), len(text))
	return nil
}
