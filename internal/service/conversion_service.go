package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"pdf-intake/internal/domain"
	apperrors "pdf-intake/pkg/errors"
)

// conversionConfig asks the service for plain text rather than HTML or answer units.
const conversionConfig = `{"conversion_target":"normalized_text"}`

// maxUpstreamErrorBody caps how much of a failed response is kept for the client.
const maxUpstreamErrorBody = 4 << 10

// ConversionService converts PDFs to text through the hosted document conversion API
type ConversionService struct {
	baseURL    string
	username   string
	password   string
	version    string
	httpClient *http.Client
	logger     domain.Logger
}

// NewConversionService creates a conversion client.
// baseURL is the API root, e.g. https://gateway.watsonplatform.net/document-conversion/api/
func NewConversionService(
	baseURL string,
	username string,
	password string,
	version string,
	timeout time.Duration,
	logger domain.Logger,
) *ConversionService {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &ConversionService{
		baseURL:    baseURL,
		username:   username,
		password:   password,
		version:    version,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Convert uploads the PDF and returns the normalized text answered by the service
func (s *ConversionService) Convert(ctx context.Context, name string, pdf []byte) (string, error) {
	body, contentType, err := conversionRequestBody(name, pdf)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to build conversion request", err)
	}

	endpoint := s.baseURL + "v1/convert_document?version=" + url.QueryEscape(s.version)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", apperrors.NewInternalError("Failed to build conversion request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	if s.username != "" || s.password != "" {
		req.SetBasicAuth(s.username, s.password)
	}

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewNetworkError("Document conversion service unavailable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBody))
		s.logger.Warn("Document conversion rejected", "name", name, "status", resp.StatusCode)
		return "", apperrors.NewUpstreamError(
			"Document conversion failed",
			strings.TrimSpace(string(detail)),
			fmt.Errorf("conversion API returned status %d", resp.StatusCode),
		)
	}

	text, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperrors.NewNetworkError("Failed to read conversion response", err)
	}

	s.logger.Info("Document converted",
		"name", name,
		"bytes_in", len(pdf),
		"chars_out", len(text),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return string(text), nil
}

func conversionRequestBody(name string, pdf []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("config", conversionConfig); err != nil {
		return nil, "", err
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(pdf); err != nil {
		return nil, "", err
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
