package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"PortfolioAnalysis/internal/model"
)

const (
	yahooProfileURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary/"
	clearbitLogoURL = "https://logo.clearbit.com/"
)

// LogoResolver turns a symbol into a logo image URL via the company website.
type LogoResolver struct {
	Client     *http.Client
	ProfileURL string
	LogoURL    string
}

// NewLogoResolver creates a resolver with optional proxy support.
func NewLogoResolver(proxyURL, logoBaseURL string) *LogoResolver {
	if logoBaseURL == "" {
		logoBaseURL = clearbitLogoURL
	}
	return &LogoResolver{
		Client:     newHTTPClient(proxyURL),
		ProfileURL: yahooProfileURL,
		LogoURL:    logoBaseURL,
	}
}

type quoteSummary struct {
	QuoteSummary struct {
		Result []struct {
			AssetProfile struct {
				Website string `json:"website"`
			} `json:"assetProfile"`
		} `json:"result"`
	} `json:"quoteSummary"`
}

// Resolve never fails: any lookup problem yields a text fallback.
func (r *LogoResolver) Resolve(ctx context.Context, symbol string) model.Logo {
	img, err := r.lookup(ctx, symbol)
	if err != nil {
		log.Printf("[INFO] logo fallback for %s: %v", symbol, err)
		return model.Logo{Symbol: symbol, Fallback: true}
	}
	return model.Logo{Symbol: symbol, ImageURL: img}
}

func (r *LogoResolver) lookup(ctx context.Context, symbol string) (string, error) {
	u := fmt.Sprintf("%s%s?modules=assetProfile", r.ProfileURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrLogoLookup, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrLogoLookup, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", model.ErrLogoLookup, resp.StatusCode)
	}

	var qs quoteSummary
	if err := json.NewDecoder(resp.Body).Decode(&qs); err != nil {
		return "", fmt.Errorf("%w: decode: %v", model.ErrLogoLookup, err)
	}
	if len(qs.QuoteSummary.Result) == 0 {
		return "", fmt.Errorf("%w: unknown symbol", model.ErrLogoLookup)
	}
	domain := websiteDomain(qs.QuoteSummary.Result[0].AssetProfile.Website)
	if domain == "" {
		return "", fmt.Errorf("%w: no website", model.ErrLogoLookup)
	}
	return r.LogoURL + domain, nil
}

// websiteDomain reduces "https://www.apple.com/investor" to "apple.com".
func websiteDomain(site string) string {
	site = strings.TrimSpace(site)
	if site == "" {
		return ""
	}
	if !strings.Contains(site, "://") {
		site = "https://" + site
	}
	u, err := url.Parse(site)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
