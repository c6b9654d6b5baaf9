package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"bertd/pkg/types"
)

// client is a minimal HTTP client for the bertd API.
type client struct {
	endpoint string
	http     *http.Client
}

func newClientWith(endpoint string, timeoutSec int) *client {
	return &client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
	}
}

func (c *client) getJSON(path string, out any) error {
	resp, err := c.http.Get(c.endpoint + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) health() (types.HealthResponse, error) {
	var h types.HealthResponse
	err := c.getJSON("/health", &h)
	return h, err
}

func (c *client) modelInfo() (types.ModelMetadata, error) {
	var md types.ModelMetadata
	err := c.getJSON("/v1/models/bert", &md)
	return md, err
}

func (c *client) metrics() (string, error) {
	resp, err := c.http.Get(c.endpoint + "/metrics")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET /metrics: status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	return string(b), err
}

func (c *client) predict(text string, texts []string, includeEmbeddings bool) (types.PredictResponse, error) {
	req := types.PredictRequest{IncludeEmbeddings: includeEmbeddings}
	if len(texts) > 0 {
		req.Texts = texts
	} else {
		req.Text = text
	}
	body, err := json.Marshal(req)
	if err != nil {
		return types.PredictResponse{}, err
	}
	resp, err := c.http.Post(c.endpoint+"/v1/models/bert:predict", "application/json", bytes.NewReader(body))
	if err != nil {
		return types.PredictResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		var er types.ErrorResponse
		if jerr := json.NewDecoder(resp.Body).Decode(&er); jerr == nil && er.Error != "" {
			return types.PredictResponse{}, fmt.Errorf("predict: status %d: %s", resp.StatusCode, er.Error)
		}
		return types.PredictResponse{}, fmt.Errorf("predict: status %d", resp.StatusCode)
	}
	var out types.PredictResponse
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out, err
}
