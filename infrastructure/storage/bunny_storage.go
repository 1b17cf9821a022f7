package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type BunnyConfig struct {
	StorageZone string
	AccessKey   string
	BaseURL     string // storage API endpoint, e.g. https://storage.bunnycdn.com
	CDNUrl      string // public pull zone
}

// BunnyStorage talks to the Bunny Storage HTTP API.
type BunnyStorage struct {
	config     BunnyConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewBunnyStorage(config BunnyConfig) *BunnyStorage {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.CDNUrl = strings.TrimRight(config.CDNUrl, "/")
	return &BunnyStorage{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // videos can be large
		},
		now: time.Now,
	}
}

func (s *BunnyStorage) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/%s/%s", s.config.BaseURL, s.config.StorageZone, objectPath)
}

// Store uploads data and returns the CDN URL of the new object.
func (s *BunnyStorage) Store(ctx context.Context, data []byte, meta BlobMetadata) (string, error) {
	objectPath := objectPath(meta, s.now())

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(objectPath), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call bunny storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("bunny storage upload error (status %d): %s", resp.StatusCode, string(body))
	}

	return s.config.CDNUrl + "/" + objectPath, nil
}

// Delete removes the object behind a CDN URL. A missing object is not an error.
func (s *BunnyStorage) Delete(ctx context.Context, url string) error {
	objectPath, err := pathFromURL(url, s.config.CDNUrl)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.objectURL(objectPath), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("AccessKey", s.config.AccessKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call bunny storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("bunny storage delete error (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}
