package acl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jsamuelsen/quotebook/internal/domain"
)

// quoteResponse is the wire DTO. Pointers tell a missing key from an empty
// value: every key must be present, values may be empty.
type quoteResponse struct {
	QuoteText   *string `json:"quoteText"`
	QuoteAuthor *string `json:"quoteAuthor"`
	SenderName  *string `json:"senderName"`
	SenderLink  *string `json:"senderLink"`
	QuoteLink   *string `json:"quoteLink"`
}

var errTrailingData = errors.New("trailing data after JSON value")

// DecodeResponse decodes a body holding exactly one JSON value and closes
// it. Whitespace may follow the value; anything else is an error.
func DecodeResponse[T any](body io.ReadCloser) (*T, error) {
	if body == nil {
		return nil, errors.New("decoding response: no body")
	}
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)

	var result T
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding response: %w", errTrailingData)
	}

	return &result, nil
}

// translateQuote converts the wire DTO to a domain Quote, naming every
// missing key.
func translateQuote(ext *quoteResponse) (domain.Quote, error) {
	var errs []error

	field := func(key string, v *string) string {
		if v == nil {
			errs = append(errs, domain.NewValidationError(key, "missing from response"))
			return ""
		}

		return *v
	}

	q := domain.Quote{
		Text:       field("quoteText", ext.QuoteText),
		Author:     field("quoteAuthor", ext.QuoteAuthor),
		SenderName: field("senderName", ext.SenderName),
		SenderLink: field("senderLink", ext.SenderLink),
		Link:       field("quoteLink", ext.QuoteLink),
	}

	if len(errs) > 0 {
		return domain.Quote{}, errors.Join(errs...)
	}

	return q, nil
}
