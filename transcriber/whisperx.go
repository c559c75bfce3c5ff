package transcriber

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"strconv"
	"strings"
	"time"
)

const DefaultTimeout = 60 * time.Second

// WhisperX talks to a WhisperX FastAPI service (POST /transcribe, GET /health).
type WhisperX struct {
	client  *TracedClient
	baseURL string
	timeout time.Duration
}

func NewWhisperX(baseURL string, timeout time.Duration) *WhisperX {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WhisperX{
		client:  NewTracedClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (w *WhisperX) BaseURL() string { return w.baseURL }

type transcribeResponse struct {
	Transcript  *string   `json:"transcript"`
	Segments    []Segment `json:"segments"`
	Language    string    `json:"language"`
	HasSpeakers bool      `json:"has_speakers"`
}

func (w *WhisperX) Transcribe(ctx context.Context, path string, opts Options) (*Result, error) {
	body, contentType, err := buildForm(path, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"/transcribe", body)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, w.transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	var tr transcribeResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: "malformed response", Err: err}
	}

	var text string
	if tr.Transcript != nil {
		text = strings.TrimSpace(*tr.Transcript)
	}
	if text == "" {
		return nil, ErrEmptyTranscript
	}

	return &Result{
		Transcript:  text,
		Language:    tr.Language,
		HasSpeakers: tr.HasSpeakers,
		Segments:    tr.Segments,
		Metrics:     resp.Metrics,
	}, nil
}

func buildForm(path string, opts Options) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// CreateFormFile would label the part application/octet-stream,
	// which the service rejects.
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="recording.wav"`)
	h.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read recording: %w", err)
	}

	writer.WriteField("diarize", strconv.FormatBool(opts.Diarize))
	writer.WriteField("align", "true")
	if opts.Language != "" {
		writer.WriteField("language", opts.Language)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &body, writer.FormDataContentType(), nil
}

func (w *WhisperX) transportError(err error) error {
	if isConnRefused(err) {
		return fmt.Errorf("%w at %s: %v", ErrServiceUnreachable, w.baseURL, err)
	}
	if isTimeout(err) {
		return &ServiceError{Detail: fmt.Sprintf("no response within %s", w.timeout), Err: err}
	}
	return &ServiceError{Err: err}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// errorDetail pulls FastAPI's {"detail": ...} or falls back to a body excerpt.
func errorDetail(body []byte) string {
	var fe struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &fe) == nil && len(fe.Detail) > 0 {
		var s string
		if json.Unmarshal(fe.Detail, &s) == nil {
			return s
		}
		return string(fe.Detail)
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

// Health queries GET /health.
func (w *WhisperX) Health(ctx context.Context) (*Health, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/health", nil)
	if err != nil {
		return nil, err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return nil, w.transportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}
	var h Health
	if err := json.Unmarshal(resp.Body, &h); err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Detail: "malformed health response", Err: err}
	}
	return &h, nil
}
