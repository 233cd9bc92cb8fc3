// Package analyzer is the HTTP adapter for the external analysis service.
// It implements both collaborator interfaces the core depends on; the actual
// computation lives out of process.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/Impersonality/daily-stock-analysis/pkg/models"
)

// DefaultTimeout bounds a single collaborator call. Full analysis runs are
// slow, so this is generous.
const DefaultTimeout = 10 * time.Minute

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

type analyzeRequest struct {
	Code   string `json:"code"`
	Notify bool   `json:"notify"`
}

// AnalyzeStock runs the analysis pipeline for one code. A 204 response means
// the pipeline produced no result, reported as (nil, nil).
func (c *Client) AnalyzeStock(ctx context.Context, code string, notify bool) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	empty, err := c.post(ctx, "/analyze", analyzeRequest{Code: code, Notify: notify}, &result)
	if err != nil {
		return nil, err
	}
	if empty {
		return nil, nil
	}
	return &result, nil
}

// MarketOverview fetches the aggregate market snapshot.
func (c *Client) MarketOverview(ctx context.Context) (*models.MarketOverview, error) {
	var overview models.MarketOverview
	if err := c.get(ctx, "/market/overview", &overview); err != nil {
		return nil, err
	}
	return &overview, nil
}

// SearchMarketNews fetches recent market news as a single text blob.
func (c *Client) SearchMarketNews(ctx context.Context) (string, error) {
	var body struct {
		News string `json:"news"`
	}
	if err := c.get(ctx, "/market/news", &body); err != nil {
		return "", err
	}
	return body.News, nil
}

type reviewRequest struct {
	Overview *models.MarketOverview `json:"overview"`
	News     string                 `json:"news"`
}

// GenerateReview synthesizes the review text from overview and news.
func (c *Client) GenerateReview(ctx context.Context, overview *models.MarketOverview, news string) (string, error) {
	var body struct {
		Report string `json:"report"`
	}
	if _, err := c.post(ctx, "/market/review", reviewRequest{Overview: overview, News: news}, &body); err != nil {
		return "", err
	}
	return body.Report, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return errors.Wrapf(err, "build request %s", path)
	}
	return c.do(req, out)
}

// post returns empty=true when the server answered 204 No Content.
func (c *Client) post(ctx context.Context, path string, in, out interface{}) (empty bool, err error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return false, errors.Wrapf(err, "encode request %s", path)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return false, errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, errors.Wrapf(err, "POST %s", path)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("POST %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, errors.Wrapf(err, "decode response %s", path)
	}
	return false, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: unexpected status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode response %s", req.URL.Path)
	}
	return nil
}
