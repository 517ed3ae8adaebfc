// Package http provides the JSON API over the expense services.
//
// This file implements parsing of request bodies and query parameters into
// domain values. Bodies may be JSON or form-encoded; both go through
// RequestBodyParser so handlers read fields the same way.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"expenses/internal/core"
)

// maxBodyBytes bounds request bodies; a note is at most 500 characters.
const maxBodyBytes = 16 << 10

// dateOnlyLayout is the layout of an HTML date input.
const dateOnlyLayout = "2006-01-02"

var errInvalidID = errors.New("invalid expense id")

// FieldError reports which input field was rejected.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = fmt.Errorf("request body exceeds %d bytes", maxBodyBytes)
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := bytes.TrimSpace(p.body)
	if len(trimmed) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		p.jsonData = make(map[string]interface{})
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(trimmed))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseExpenseInput reads amount, category, date and note from the body.
// Field checks beyond syntax are left to core.ExpenseInput.Validate.
func ParseExpenseInput(r *http.Request) (core.ExpenseInput, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.ExpenseInput{}, fmt.Errorf("parse request body: %w", err)
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.ExpenseInput{}, &FieldError{Field: "amount", Err: err}
	}

	date, err := parseDate(p.Get("date"))
	if err != nil {
		return core.ExpenseInput{}, &FieldError{Field: "date", Err: err}
	}

	return core.ExpenseInput{
		Amount:   amount,
		Category: p.Get("category"),
		Date:     date,
		Note:     p.Get("note"),
	}, nil
}

// parseDate accepts a full timestamp (RFC 3339 or the storage layout) or a
// bare YYYY-MM-DD, which is taken as local midnight.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, core.ErrEmptyDate
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, s, time.Local); err == nil {
		return t, nil
	}
	if t, err := core.ParseTimestamp(s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseID reads the {id} URL parameter.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parsePeriod reads the period query parameter; absent means all.
func parsePeriod(r *http.Request) (core.Period, error) {
	return core.ParsePeriod(r.URL.Query().Get("period"))
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
