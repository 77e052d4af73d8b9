package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

const (
	metadataTokenTTLHeader = "X-aws-ec2-metadata-token-ttl-seconds"
	metadataTokenHeader    = "X-aws-ec2-metadata-token"
)

// PublicIPResolver finds the public ipv4 address of the host from the
// instance metadata service, using the session token flow.
type PublicIPResolver struct {
	client  *http.Client
	baseURL string
	ttl     int
}

// NewPublicIPResolver returns a resolver bound to the configured metadata endpoint.
func NewPublicIPResolver(config *MetadataConfig) *PublicIPResolver {
	return &PublicIPResolver{
		client:  &http.Client{Timeout: config.Timeout},
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		ttl:     config.TokenTTL,
	}
}

// Resolve requests a session token then uses it to read the public ipv4.
func (p *PublicIPResolver) Resolve(ctx context.Context) (string, error) {
	token, err := p.do(ctx, http.MethodPut, "/api/token", map[string]string{
		metadataTokenTTLHeader: strconv.Itoa(p.ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get metadata token: %w", err)
	}

	ip, err := p.do(ctx, http.MethodGet, "/meta-data/public-ipv4", map[string]string{
		metadataTokenHeader: token,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get public ip: %w", err)
	}
	if ip == "" {
		return "", fmt.Errorf("no public ip assigned to this instance")
	}
	return ip, nil
}

func (p *PublicIPResolver) do(ctx context.Context, method, path string, headers map[string]string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, nil)
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}
