// Package jobsource fetches job descriptions from the hh.ru API.
package jobsource

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ats-scorer/internal/logger"
)

const (
	apiURL          = "https://api.hh.ru"
	userAgent       = "spigell/ats-scorer (spigelly@gmail.com)"
	contentType     = "application/json"
	contentEncoding = "gzip"
)

var ErrNotFound = errors.New("vacancy not found")

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a client. The token is optional: public vacancies are readable
// anonymously.
func New(log *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:    logger.WithFields(log, zap.String("component", "jobsource")),
		UserAgent: userAgent,
	}
}

// GetVacancy fetches a single vacancy with its full description.
func (c *Client) GetVacancy(ctx context.Context, id string) (*Vacancy, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("vacancy id is empty")
	}

	var v Vacancy
	endpoint := fmt.Sprintf("%s/vacancies/%s", strings.TrimRight(c.APIURL, "/"), url.PathEscape(id))
	if err := c.getJSON(ctx, endpoint, nil, &v); err != nil {
		return nil, fmt.Errorf("get vacancy %s: %w", id, err)
	}

	c.logger.Debug("vacancy fetched",
		zap.String("vacancy_id", v.ID),
		zap.String("name", v.Name),
		zap.Int("key_skills", len(v.KeySkills)),
	)
	return &v, nil
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	if c.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)

	return req
}

func (c *Client) getJSON(ctx context.Context, endpoint string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return err
		}
		defer gzipReader.Close()
		reader = gzipReader
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("bad status: %s: %s", resp.Status, logger.TruncateForLog(string(data), 200))
	}

	if target == nil {
		return nil
	}

	return json.Unmarshal(data, target)
}
