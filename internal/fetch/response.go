package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

const (
	maxBodyBytes  = 8 << 20
	maxDrainBytes = 256 << 10
)

// Response exposes the status eagerly and reads the body only on demand.
type Response struct {
	StatusCode int
	Header     http.Header

	body    io.ReadCloser
	raw     []byte
	readErr error
	read    bool
}

func NewResponse(statusCode int, header http.Header, body io.ReadCloser) *Response {
	if header == nil {
		header = http.Header{}
	}
	if body == nil {
		body = io.NopCloser(bytes.NewReader(nil))
	}
	return &Response{StatusCode: statusCode, Header: header, body: body}
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) Bytes() ([]byte, error) {
	if r.read {
		return r.raw, r.readErr
	}
	r.read = true

	raw, err := io.ReadAll(io.LimitReader(r.body, maxBodyBytes))
	if err != nil {
		r.readErr = fmt.Errorf("read response body: %w", err)
		return nil, r.readErr
	}
	r.raw = raw
	return r.raw, nil
}

// Text returns the body decoded to UTF-8 using the declared or sniffed charset.
func (r *Response) Text() (string, error) {
	raw, err := r.Bytes()
	if err != nil {
		return "", err
	}

	reader, err := charset.NewReader(bytes.NewReader(raw), r.Header.Get("Content-Type"))
	if err != nil {
		return string(raw), nil
	}
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return string(raw), nil
	}
	return string(decoded), nil
}

func (r *Response) DecodeJSON(target any) error {
	raw, err := r.Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode json body: %w", err)
	}
	return nil
}

// Discard drains a bounded amount of an unread body and closes it, so the
// connection can go back to the keep-alive pool.
func (r *Response) Discard() error {
	if r.body == nil {
		return nil
	}
	if !r.read {
		r.read = true
		_, _ = io.Copy(io.Discard, io.LimitReader(r.body, maxDrainBytes))
	}
	return r.body.Close()
}

func (r *Response) Close() error {
	if r.body == nil {
		return nil
	}
	return r.body.Close()
}
