package profile

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/aeolive/competitor-cli/internal/model"
)

// FetchError records why a homepage could not be used.
type FetchError struct {
	Kind       model.FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type page struct {
	html       string
	statusCode int
	header     http.Header
}

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset\s*=\s*["']?\s*([a-zA-Z0-9_\-:.]+)`)

// fetch GETs the target and returns the decoded HTML. A non-nil page is
// returned alongside an http_status error so callers can keep the code.
func (p *Profiler) fetch(ctx context.Context, target string) (*page, model.FailureKind, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		if err == nil {
			err = eris.Errorf("profile: missing host in %q", target)
		}
		return nil, model.FailureInvalidURL, &FetchError{Kind: model.FailureInvalidURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, model.FailureInvalidURL, &FetchError{Kind: model.FailureInvalidURL, Err: eris.Wrap(err, "profile: create request")}
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		kind := classifyTransportError(err)
		return nil, kind, &FetchError{Kind: kind, Err: eris.Wrap(err, "profile: fetch")}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &page{statusCode: resp.StatusCode, header: resp.Header}, model.FailureHTTPStatus, &FetchError{
			Kind:       model.FailureHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        eris.Errorf("profile: status %d", resp.StatusCode),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, p.opts.MaxBodyBytes))
	if err != nil {
		kind := classifyTransportError(err)
		if kind == model.FailureNetwork {
			kind = model.FailureRead
		}
		return nil, kind, &FetchError{Kind: kind, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "profile: read body")}
	}

	return &page{
		html:       decodeBody(raw, resp.Header.Get("Content-Type")),
		statusCode: resp.StatusCode,
		header:     resp.Header,
	}, model.FailureNone, nil
}

// classifyTransportError separates timeouts from other network failures.
func classifyTransportError(err error) model.FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return model.FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return model.FailureTimeout
	}
	return model.FailureNetwork
}

// decodeBody converts the body to UTF-8 using the Content-Type charset, or a
// <meta charset> declaration when the header has none. Unknown charsets are
// passed through unchanged.
func decodeBody(raw []byte, contentType string) string {
	charset := ""
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			charset = params["charset"]
		}
	}
	if charset == "" {
		head := raw
		if len(head) > 4096 {
			head = head[:4096]
		}
		if m := metaCharsetRe.FindSubmatch(head); len(m) > 1 {
			charset = string(m[1])
		}
	}

	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(raw)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(raw)
	}
	decoded, err := io.ReadAll(enc.NewDecoder().Reader(bytes.NewReader(raw)))
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
