package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/tradelens/internal/analysis"
	"github.com/wonny/tradelens/internal/api/handlers"
	"github.com/wonny/tradelens/internal/breakdown"
	"github.com/wonny/tradelens/internal/metrics"
	"github.com/wonny/tradelens/internal/table"
	"github.com/wonny/tradelens/pkg/httputil"
)

// Client calls a remote analysis API
type Client struct {
	http    *httputil.Client
	baseURL string
}

// NewClient creates a client for the server at baseURL
func NewClient(httpClient *httputil.Client, baseURL string) *Client {
	return &Client{http: httpClient, baseURL: strings.TrimRight(baseURL, "/")}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func records(t *table.Table) handlers.Records {
	if t == nil {
		return nil
	}
	return handlers.Records(t.Records())
}

func columns(t *table.Table) []string {
	if t == nil {
		return nil
	}
	return t.Names()
}

// Health checks that the server answers
func (c *Client) Health(ctx context.Context) error {
	return c.http.DoJSON(ctx, http.MethodGet, c.url("/health"), nil, nil)
}

// RankFeatures ranks the feature columns of t remotely
func (c *Client) RankFeatures(ctx context.Context, req analysis.FeatureRequest) (*analysis.FeatureReport, error) {
	body := handlers.FeaturesRequest{
		TableRequest: c.tableBody(req.Request),
		SourceFile:   req.SourceFile,
		GainColumn:   req.GainColumn,
		Exclude:      req.Exclude,
	}
	var out analysis.FeatureReport
	if err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/features"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PortfolioReport computes the single-curve metrics remotely
func (c *Client) PortfolioReport(ctx context.Context, req analysis.Request) (metrics.PortfolioMetrics, error) {
	var out metrics.PortfolioMetrics
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/metrics"), c.tableBody(req), &out)
	return out, err
}

// Compare runs the baseline vs. combined comparison remotely
func (c *Client) Compare(ctx context.Context, req analysis.CompareRequest) (metrics.Comparison, error) {
	body := handlers.CompareRequest{
		Baseline:        records(req.Baseline),
		BaselineColumns: columns(req.Baseline),
		Combined:        records(req.Combined),
		CombinedColumns: columns(req.Combined),
		StartingCapital: req.StartingCapital,
	}
	var out metrics.Comparison
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/compare"), body, &out)
	return out, err
}

// Yearly summarizes each calendar year remotely
func (c *Client) Yearly(ctx context.Context, req analysis.Request) ([]breakdown.Summary, error) {
	var out []breakdown.Summary
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/breakdown/yearly"), c.tableBody(req), &out)
	return out, err
}

// Monthly summarizes each month of year remotely
func (c *Client) Monthly(ctx context.Context, req analysis.Request, year int) ([]breakdown.Summary, error) {
	body := handlers.MonthlyRequest{TableRequest: c.tableBody(req), Year: year}
	var out []breakdown.Summary
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/breakdown/monthly"), body, &out)
	return out, err
}

// Years lists the years present in the table remotely
func (c *Client) Years(ctx context.Context, req analysis.Request) ([]int, error) {
	var out handlers.YearsResponse
	err := c.http.DoJSON(ctx, http.MethodPost, c.url("/api/breakdown/years"), c.tableBody(req), &out)
	return out.Years, err
}

// Exclusions returns the exclusions the server saved for sourceFile
func (c *Client) Exclusions(ctx context.Context, sourceFile string) ([]string, error) {
	var out handlers.ExclusionsResponse
	err := c.http.DoJSON(ctx, http.MethodGet, c.url("/api/exclusions?source="+url.QueryEscape(sourceFile)), nil, &out)
	return out.Exclusions, err
}

// SaveExclusions replaces the server's exclusions for sourceFile
func (c *Client) SaveExclusions(ctx context.Context, sourceFile string, names []string) error {
	body := handlers.ExclusionsRequest{SourceFile: sourceFile, Exclusions: names}
	return c.http.DoJSON(ctx, http.MethodPut, c.url("/api/exclusions"), body, nil)
}

// ClearExclusions removes the server's exclusions for sourceFile
func (c *Client) ClearExclusions(ctx context.Context, sourceFile string) error {
	return c.http.DoJSON(ctx, http.MethodDelete, c.url("/api/exclusions?source="+url.QueryEscape(sourceFile)), nil, nil)
}

func (c *Client) tableBody(req analysis.Request) handlers.TableRequest {
	return handlers.TableRequest{Records: records(req.Table), Columns: columns(req.Table), StartingCapital: req.StartingCapital}
}
