// Package azure talks to the Azure Speech text-to-speech REST API.
package azure

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/book-expert/speech-desk/internal/core"
)

// API defaults.
const (
	DefaultEndpointTemplate = "https://{region}.tts.speech.microsoft.com/cognitiveservices/v1"
	DefaultOutputFormat     = "riff-24khz-16bit-mono-pcm"
	regionPlaceholder       = "{region}"
	userAgent               = "speech-desk"
	maxErrorBodyBytes       = 4096
)

// HTTP headers.
const (
	headerContentType     = "Content-Type"
	headerSubscriptionKey = "Ocp-Apim-Subscription-Key"
	headerOutputFormat    = "X-Microsoft-OutputFormat"
	headerUserAgent       = "User-Agent"
	contentTypeSSML       = "application/ssml+xml"
)

var (
	// ErrTextEmpty indicates there is nothing to synthesize.
	ErrTextEmpty = errors.New("text cannot be empty")
	// ErrReceivedEmptyAudio indicates the service answered 200 with no body.
	ErrReceivedEmptyAudio = errors.New("received empty audio data")
)

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return e.Status
	}

	return fmt.Sprintf("%s: %s", e.Status, e.Body)
}

// HTTPClient calls the synthesis endpoint for a region.
type HTTPClient struct {
	httpClient       *http.Client
	endpointTemplate string
	outputFormat     string
}

// NewHTTPClient creates a client. endpointTemplate must contain "{region}"
// unless every region shares one endpoint, as in tests.
func NewHTTPClient(endpointTemplate, outputFormat string, timeout time.Duration) *HTTPClient {
	if endpointTemplate == "" {
		endpointTemplate = DefaultEndpointTemplate
	}

	if outputFormat == "" {
		outputFormat = DefaultOutputFormat
	}

	return &HTTPClient{
		httpClient:       &http.Client{Timeout: timeout},
		endpointTemplate: endpointTemplate,
		outputFormat:     outputFormat,
	}
}

// Endpoint returns the synthesis URL for region.
func (c *HTTPClient) Endpoint(region string) string {
	return strings.ReplaceAll(c.endpointTemplate, regionPlaceholder, region)
}

// GenerateSpeech sends the text as SSML and returns the WAV response body.
func (c *HTTPClient) GenerateSpeech(ctx context.Context, req core.SpeechRequest) ([]byte, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrTextEmpty
	}

	ssml, err := BuildSSML(req.Voice, req.Text)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.Endpoint(req.Region),
		bytes.NewBufferString(ssml),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeSSML)
	httpReq.Header.Set(headerSubscriptionKey, req.Credential)
	httpReq.Header.Set(headerOutputFormat, c.outputFormat)
	httpReq.Header.Set(headerUserAgent, userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to speech service in %s: %w", req.Region, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrReceivedEmptyAudio
	}

	return audioData, nil
}

// BuildSSML wraps text in a speak/voice document. The language is taken from
// the voice code prefix, e.g. "en-US" for "en-US-JennyNeural".
func BuildSSML(voice, text string) (string, error) {
	var escaped bytes.Buffer

	err := xml.EscapeText(&escaped, []byte(text))
	if err != nil {
		return "", fmt.Errorf("failed to escape text: %w", err)
	}

	var voiceAttr bytes.Buffer

	err = xml.EscapeText(&voiceAttr, []byte(voice))
	if err != nil {
		return "", fmt.Errorf("failed to escape voice: %w", err)
	}

	return fmt.Sprintf(
		`<speak version="1.0" xmlns="http://www.w3.org/2001/10/synthesis" xml:lang="%s"><voice name="%s">%s</voice></speak>`,
		languageOf(voice), voiceAttr.String(), escaped.String(),
	), nil
}

func languageOf(voice string) string {
	parts := strings.SplitN(voice, "-", 3)
	if len(parts) < 3 {
		return "en-US"
	}

	return parts[0] + "-" + parts[1]
}

// parseErrorResponse keeps the status line and a bounded slice of the body.
func parseErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	return &StatusError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       strings.TrimSpace(string(body)),
	}
}
