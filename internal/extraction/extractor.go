// Package extraction mediates calls to a remote multimodal document-analysis
// service and classifies its failures into a typed taxonomy.
package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fhuonder/belegscan/internal/application/port"
)

const (
	// DefaultTimeout is the hard bound around one extraction attempt.
	// Exceeding it is treated identically to the backend being unavailable.
	DefaultTimeout = 60 * time.Second

	// minOCRConfidence is the threshold below which an OCR enhancement
	// result is discarded.
	minOCRConfidence = 0.5
)

// Extractor implements port.DocumentExtractor against an OpenAI-compatible
// vision endpoint.
type Extractor struct {
	client   *openai.Client
	model    string
	enhancer port.OCREnhancer // optional
	timeout  time.Duration
	logger   *zap.Logger
}

// NewExtractor creates a vision-backed extractor. enhancer may be nil, in
// which case no OCR pre-processing is attempted.
func NewExtractor(apiKey, model string, timeout time.Duration, enhancer port.OCREnhancer, logger *zap.Logger) *Extractor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Extractor{
		client:   openai.NewClient(apiKey),
		model:    model,
		enhancer: enhancer,
		timeout:  timeout,
		logger:   logger,
	}
}

// Extract sends the document to the analysis backend and returns validated
// structured fields. Failures are one of ErrRateLimited, ErrQuotaExhausted,
// ErrMalformedResponse or ErrUnavailable.
func (e *Extractor) Extract(ctx context.Context, req port.ExtractionRequest) (*port.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	e.logger.Info("Extracting document fields",
		zap.String("file_name", req.FileName),
		zap.String("file_type", req.FileType),
		zap.Int("size_bytes", len(req.FileData)))

	images, mimeType, err := e.prepareImages(req)
	if err != nil {
		return nil, err
	}

	// OCR pre-processing is strictly additive: any failure or a low
	// confidence score leaves the primary call unaffected.
	ocrText := e.enhanceText(ctx, req)

	content, err := e.callVision(ctx, req.FileName, images, mimeType, ocrText)
	if err != nil {
		return nil, err
	}

	result, err := parseResponse(content)
	if err != nil {
		e.logger.Error("Extraction response failed validation",
			zap.String("file_name", req.FileName),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("Document fields extracted",
		zap.String("file_name", req.FileName),
		zap.String("document_type", result.DocumentType.String()))
	return result, nil
}

// prepareImages normalizes the upload into one or more JPEG/PNG payloads for
// the vision call. PDFs are rendered page by page.
func (e *Extractor) prepareImages(req port.ExtractionRequest) ([][]byte, string, error) {
	if strings.EqualFold(req.FileType, "application/pdf") {
		pages, err := renderPDFPages(req.FileData, e.logger)
		if err != nil {
			return nil, "", fmt.Errorf("failed to prepare PDF for analysis: %w", err)
		}
		return pages, "image/jpeg", nil
	}
	return [][]byte{req.FileData}, req.FileType, nil
}

func (e *Extractor) enhanceText(ctx context.Context, req port.ExtractionRequest) string {
	if e.enhancer == nil {
		return ""
	}

	res, err := e.enhancer.EnhanceText(ctx, req.FileData, req.FileType)
	if err != nil {
		e.logger.Warn("OCR enhancement failed, proceeding without it",
			zap.String("file_name", req.FileName),
			zap.Error(err))
		return ""
	}
	if res.Confidence < minOCRConfidence {
		e.logger.Debug("Discarding low-confidence OCR result",
			zap.String("file_name", req.FileName),
			zap.Float64("confidence", res.Confidence))
		return ""
	}
	return res.Text
}

func (e *Extractor) callVision(ctx context.Context, fileName string, images [][]byte, mimeType, ocrText string) (string, error) {
	contentParts := []openai.ChatMessagePart{
		{
			Type: openai.ChatMessagePartTypeText,
			Text: buildExtractionPrompt(fileName, ocrText),
		},
	}
	for _, img := range images {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		MaxTokens:   2048,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		classified := classifyAPIError(err)
		e.logger.Error("Vision API call failed",
			zap.String("file_name", fileName),
			zap.Error(err))
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrMalformedResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ port.DocumentExtractor = (*Extractor)(nil)
