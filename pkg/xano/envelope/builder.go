// Package envelope turns operation intents into transport-ready HTTP requests
// for the Xano metadata API: standard headers, JSON or multipart bodies,
// ordered query strings and omit-if-absent partial updates.
package envelope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// HeaderDataSource selects draft or live table data. The service defaults
	// to draft data when it is missing.
	HeaderDataSource = "X-Data-Source"

	// DataSourceLive is the only data source value this package sends.
	DataSourceLive = "live"

	contentTypeJSON = "application/json"
)

// Builder renders intents into *http.Request values. It is safe for
// concurrent use; it holds only the immutable credential and configuration.
type Builder struct {
	token        string
	domainSuffix string
	baseURL      string
	fs           afero.Fs
}

// NewBuilder returns a Builder. Attachments are read from fs; a nil fs means
// the operating system filesystem.
func NewBuilder(token, domainSuffix string, fs afero.Fs) *Builder {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Builder{
		token:        token,
		domainSuffix: domainSuffix,
		fs:           fs,
	}
}

// WithBaseURL returns a copy of b that sends every instance-scoped intent to
// baseURL instead of the instance's own metadata API root. Intents with their
// own BaseURL are unaffected.
func (b *Builder) WithBaseURL(baseURL string) *Builder {
	c := *b
	c.baseURL = strings.TrimRight(baseURL, "/")
	return &c
}

// URL returns the absolute URL an intent targets.
func (b *Builder) URL(i Intent) string {
	if b.baseURL != "" && i.BaseURL == "" {
		i.BaseURL = b.baseURL
	}
	return i.URL(b.domainSuffix)
}

// Headers returns the header set for an intent. Content-Type is only set for
// JSON bodies; multipart content types are added by Build because they carry
// the boundary.
func (b *Builder) Headers(i Intent) http.Header {
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+b.token)
	h.Set("Accept", contentTypeJSON)
	if i.HasJSONBody() {
		h.Set("Content-Type", contentTypeJSON)
	}
	if i.Live {
		h.Set(HeaderDataSource, DataSourceLive)
	}
	return h
}

// Body encodes the intent body and returns it with its content type. Both are
// empty when the intent has no body.
func (b *Builder) Body(i Intent) ([]byte, string, error) {
	switch {
	case i.IsMultipart():
		return b.multipartBody(i)
	case i.JSON != nil:
		data, err := json.Marshal(i.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, contentTypeJSON, nil
	default:
		return nil, "", nil
	}
}

// Build renders an intent into a request bound to ctx.
func (b *Builder) Build(ctx context.Context, i Intent) (*http.Request, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}

	body, contentType, err := b.Body(i)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, i.Method, b.URL(i), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = b.Headers(i)
	if i.IsMultipart() {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (b *Builder) multipartBody(i Intent) ([]byte, string, error) {
	content, err := afero.ReadFile(b.fs, i.Attachment.Path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read attachment %s: %w", i.Attachment.Path, err)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range i.Form {
		if err := w.WriteField(p.Key, p.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", p.Key, err)
		}
	}

	part, err := w.CreateFormFile(i.Attachment.Field, filepath.Base(i.Attachment.Path))
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}
