package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ceyewan/marketdata/xerrors"
)

// HTTPConfig HTTP Provider 配置
type HTTPConfig struct {
	// BaseURL 远程服务地址，如 http://127.0.0.1:5000
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Paths key 到请求路径的映射，未配置的 key 默认使用 /api/<key>
	Paths map[string]string `json:"paths" yaml:"paths" mapstructure:"paths"`
}

func (c *HTTPConfig) validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLRequired
	}
	return nil
}

// httpProvider 基于 net/http 的 Provider 实现，每个 key 一次 GET 请求。
// 超时由调用方传入的 ctx 控制，client 本身不设超时
type httpProvider struct {
	cfg    *HTTPConfig
	client *http.Client
}

// NewHTTPProvider 创建 HTTP Provider
//
// client 为 nil 时使用 http.DefaultClient。返回的 Provider 并发安全
func NewHTTPProvider(cfg *HTTPConfig, client *http.Client) (Provider, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &httpProvider{cfg: cfg, client: client}, nil
}

func (p *httpProvider) url(key string) string {
	path, ok := p.cfg.Paths[key]
	if !ok {
		path = "/api/" + key
	}
	return strings.TrimRight(p.cfg.BaseURL, "/") + path
}

func (p *httpProvider) Fetch(ctx context.Context, key string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url(key), nil)
	if err != nil {
		return nil, xerrors.Wrapf(err, "fetch: build request for %s", key)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, xerrors.Wrapf(err, "fetch: request %s", key)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, xerrors.Wrapf(err, "fetch: read response for %s", key)
	}

	switch {
	case resp.StatusCode >= 500:
		// 服务端暂时性故障，按瞬时错误重试
		return nil, fmt.Errorf("fetch: %s returned status %d", key, resp.StatusCode)
	case resp.StatusCode >= 400:
		// 客户端错误重试不会好转
		return nil, xerrors.Wrapf(ErrPermanentData, "%s returned status %d", key, resp.StatusCode)
	}

	if !json.Valid(body) {
		return nil, xerrors.Wrapf(ErrPermanentData, "%s returned invalid json", key)
	}
	return body, nil
}
