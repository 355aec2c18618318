// Package mw is a client for the Merriam-Webster dictionary and thesaurus
// reference APIs.
package mw

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"resty.dev/v3"
)

// Config carries the endpoints, credentials and retry policy for both
// services.
type Config struct {
	DictionaryBaseURL string
	DictionaryKey     string
	ThesaurusBaseURL  string
	ThesaurusKey      string

	Timeout        time.Duration
	RetryAttempts  uint
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
}

type Client struct {
	httpClient *resty.Client
	config     Config
}

func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 4
	}
	if config.RetryBaseDelay == 0 {
		config.RetryBaseDelay = time.Second
	}
	if config.RetryMaxDelay == 0 {
		config.RetryMaxDelay = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(config.Timeout)

	return &Client{
		httpClient: client,
		config:     config,
	}
}

func (c *Client) Close() error {
	return c.httpClient.Close()
}

// LookupDictionary fetches the collegiate dictionary entry for a word.
func (c *Client) LookupDictionary(ctx context.Context, word string) Result {
	return c.lookup(ctx, c.config.DictionaryBaseURL, c.config.DictionaryKey, word)
}

// LookupThesaurus fetches the thesaurus entry for a word.
func (c *Client) LookupThesaurus(ctx context.Context, word string) Result {
	return c.lookup(ctx, c.config.ThesaurusBaseURL, c.config.ThesaurusKey, word)
}

// lookup performs one call with retry on transient failures. Terminal
// outcomes (a parsed body, 404, 429) end the retry loop immediately.
func (c *Client) lookup(ctx context.Context, baseURL, key, word string) Result {
	requestURL := strings.TrimSuffix(baseURL, "/") + "/" + url.PathEscape(strings.ToLower(word))

	var result Result
	err := retry.Do(
		func() error {
			res, err := c.httpClient.R().
				SetContext(ctx).
				SetQueryParam("key", key).
				Get(requestURL)
			if err != nil {
				return fmt.Errorf("httpClient.Get > %w", err)
			}

			switch {
			case res.StatusCode() == http.StatusOK:
				result = classifyBody(res.Bytes())
				return nil
			case res.StatusCode() == http.StatusNotFound:
				result = Result{Kind: KindNotFound, Detail: "no entry found (404)"}
				return nil
			case res.StatusCode() == http.StatusTooManyRequests:
				result = Result{Kind: KindRateLimited, Detail: "rate limit exceeded (429)"}
				return nil
			case res.StatusCode() >= http.StatusInternalServerError:
				return fmt.Errorf("server error: status %d", res.StatusCode())
			default:
				return retry.Unrecoverable(
					fmt.Errorf("unexpected status %d: %s", res.StatusCode(), res.String()))
			}
		},
		retry.Context(ctx),
		retry.Attempts(c.config.RetryAttempts),
		retry.Delay(c.config.RetryBaseDelay),
		retry.MaxDelay(c.config.RetryMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			slog.Default().Info("retrying lookup",
				"word", word,
				"attempt", attempt+1,
				"error", err)
		}),
	)
	if err != nil {
		return Result{Kind: KindNetworkError, Detail: err.Error()}
	}
	return result
}

// classifyBody distinguishes a real entry from the bare array of suggestion
// strings the API returns when a word has no exact match.
func classifyBody(body []byte) Result {
	var suggestions []string
	if err := json.Unmarshal(body, &suggestions); err == nil && len(suggestions) > 0 {
		return Result{
			Kind:        KindNotFound,
			Detail:      "no exact match, suggestions available",
			Suggestions: suggestions,
		}
	}
	if !json.Valid(body) {
		return Result{Kind: KindNetworkError, Detail: "response body is not valid JSON"}
	}
	payload := make(json.RawMessage, len(body))
	copy(payload, body)
	return Result{Kind: KindSuccess, Payload: payload}
}
