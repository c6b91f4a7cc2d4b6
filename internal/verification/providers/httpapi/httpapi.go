// Package httpapi implements the analyzer ports against REST providers. Each
// client wraps one provider base URL; payload shapes follow the providers'
// JSON contracts.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"vouch/internal/verification/models"
	"vouch/internal/verification/providers"
	dErrors "vouch/pkg/domain-errors"
)

// Client is the shared HTTP plumbing for one provider.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
}

// NewClient builds provider plumbing for a base URL. httpClient may be nil,
// in which case http.DefaultClient is used; timeouts are expected to come
// from the caller's context.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, http: httpClient, apiKey: apiKey}
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode provider request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.do(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build provider request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "provider unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("provider returned %d", resp.StatusCode))
	}
	if resp.StatusCode >= 400 {
		return dErrors.New(dErrors.CodeInternal, fmt.Sprintf("provider rejected request with %d", resp.StatusCode))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "malformed provider response")
	}
	return nil
}

// DocumentClient implements providers.DocumentAnalyzer.
type DocumentClient struct {
	*Client
}

func NewDocumentClient(c *Client) *DocumentClient { return &DocumentClient{Client: c} }

type documentAnalyzeRequest struct {
	DocumentType string `json:"document_type"`
	Image        []byte `json:"image"`
}

type extractedFieldPayload struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

type documentAnalysisPayload struct {
	Confidence      float64                 `json:"confidence"`
	Authenticity    float64                 `json:"authenticity"`
	Quality         float64                 `json:"quality"`
	FraudIndicators []string                `json:"fraud_indicators"`
	ExtractedFields []extractedFieldPayload `json:"extracted_fields"`
}

type documentAnalyzeResponse struct {
	JobID  string                   `json:"job_id,omitempty"`
	Result *documentAnalysisPayload `json:"result,omitempty"`
}

type documentPollResponse struct {
	State  string                   `json:"state"`
	Result *documentAnalysisPayload `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// Analyze submits a document image. The provider either answers inline or
// hands back a job ID for polling.
func (c *DocumentClient) Analyze(ctx context.Context, docType models.DocumentType, image []byte) (*models.DocumentAnalysis, string, error) {
	var resp documentAnalyzeResponse
	err := c.postJSON(ctx, "/v1/documents/analyze", documentAnalyzeRequest{
		DocumentType: string(docType),
		Image:        image,
	}, &resp)
	if err != nil {
		return nil, "", err
	}
	if resp.Result != nil {
		return toDocumentAnalysis(resp.Result), "", nil
	}
	if resp.JobID == "" {
		return nil, "", dErrors.New(dErrors.CodeUnavailable, "provider returned neither result nor job id")
	}
	return nil, resp.JobID, nil
}

// Poll checks the state of an asynchronous analysis job.
func (c *DocumentClient) Poll(ctx context.Context, jobID string) (*providers.JobStatus, error) {
	var resp documentPollResponse
	if err := c.getJSON(ctx, "/v1/documents/jobs/"+jobID, &resp); err != nil {
		return nil, err
	}
	switch resp.State {
	case "processing", "queued":
		return &providers.JobStatus{State: providers.JobProcessing}, nil
	case "succeeded":
		if resp.Result == nil {
			return nil, dErrors.New(dErrors.CodeUnavailable, "provider reported success without a result")
		}
		return &providers.JobStatus{State: providers.JobSucceeded, Result: toDocumentAnalysis(resp.Result)}, nil
	case "failed":
		return &providers.JobStatus{State: providers.JobFailed, Error: resp.Error}, nil
	}
	return nil, dErrors.New(dErrors.CodeUnavailable, fmt.Sprintf("provider reported unknown job state %q", resp.State))
}

func toDocumentAnalysis(p *documentAnalysisPayload) *models.DocumentAnalysis {
	analysis := &models.DocumentAnalysis{
		Confidence:      p.Confidence,
		Authenticity:    p.Authenticity,
		Quality:         p.Quality,
		FraudIndicators: p.FraudIndicators,
	}
	for _, f := range p.ExtractedFields {
		analysis.ExtractedFields = append(analysis.ExtractedFields, models.ExtractedField{
			Key:        f.Key,
			Value:      f.Value,
			Confidence: f.Confidence,
		})
	}
	return analysis
}

// AddressClient implements providers.AddressValidator.
type AddressClient struct {
	*Client
}

func NewAddressClient(c *Client) *AddressClient { return &AddressClient{Client: c} }

type addressCompareRequest struct {
	UserAddress      string `json:"user_address,omitempty"`
	ExtractedAddress string `json:"extracted_address,omitempty"`
}

type addressCompareResponse struct {
	MatchScore            float64  `json:"match_score"`
	Confidence            float64  `json:"confidence"`
	IsMatch               bool     `json:"is_match"`
	UserAddressValid      *bool    `json:"user_address_valid,omitempty"`
	ExtractedAddressValid *bool    `json:"extracted_address_valid,omitempty"`
	Differences           []string `json:"differences,omitempty"`
}

// Compare validates and compares the two address strings.
func (c *AddressClient) Compare(ctx context.Context, userAddress, extractedAddress string) (*models.AddressValidation, error) {
	var resp addressCompareResponse
	err := c.postJSON(ctx, "/v1/addresses/compare", addressCompareRequest{
		UserAddress:      userAddress,
		ExtractedAddress: extractedAddress,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &models.AddressValidation{
		MatchScore:            resp.MatchScore,
		Confidence:            resp.Confidence,
		IsMatch:               resp.IsMatch,
		UserAddressValid:      resp.UserAddressValid,
		ExtractedAddressValid: resp.ExtractedAddressValid,
		Differences:           resp.Differences,
	}, nil
}

// FaceClient implements providers.FaceComparer.
type FaceClient struct {
	*Client
}

func NewFaceClient(c *Client) *FaceClient { return &FaceClient{Client: c} }

type faceCompareRequest struct {
	SourceImage []byte `json:"source_image"`
	TargetImage []byte `json:"target_image"`
	Strict      bool   `json:"strict"`
}

type faceCompareResponse struct {
	Similarity         float64 `json:"similarity"`
	Confidence         float64 `json:"confidence"`
	SourceFaceCount    int     `json:"source_face_count"`
	TargetFaceCount    int     `json:"target_face_count"`
	SourceQuality      float64 `json:"source_quality"`
	TargetQuality      float64 `json:"target_quality"`
	ContentAppropriate bool    `json:"content_appropriate"`
}

// Compare runs facial comparison between the document portrait and selfie.
func (c *FaceClient) Compare(ctx context.Context, sourceImage, targetImage []byte, strict bool) (*models.FaceComparison, error) {
	var resp faceCompareResponse
	err := c.postJSON(ctx, "/v1/faces/compare", faceCompareRequest{
		SourceImage: sourceImage,
		TargetImage: targetImage,
		Strict:      strict,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &models.FaceComparison{
		Similarity:         resp.Similarity,
		Confidence:         resp.Confidence,
		SourceFaceCount:    resp.SourceFaceCount,
		TargetFaceCount:    resp.TargetFaceCount,
		SourceQuality:      resp.SourceQuality,
		TargetQuality:      resp.TargetQuality,
		ContentAppropriate: resp.ContentAppropriate,
		Strict:             strict,
	}, nil
}
