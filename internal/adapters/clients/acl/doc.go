// Package acl is the Anti-Corruption Layer between the quote endpoint and
// the domain model.
//
// The endpoint answers GET /en/22b6b234e5/ with a JSON object:
//
//	{
//	  "quoteText":   "...",
//	  "quoteAuthor": "...",
//	  "senderName":  "",
//	  "senderLink":  "",
//	  "quoteLink":   "http://forismatic.com/en/..."
//	}
//
// All five keys must be present; values may be empty strings. The wire DTO
// never leaves this package. [QuoteClient] translates it to [domain.Quote]
// and reports every failure as a [domain.FetchError], whose cause chain
// keeps the underlying domain error from [MapHTTPError]:
//
//   - transport failure or retries exhausted: [domain.ErrUnavailable]
//   - circuit open: [domain.ErrUnavailable]
//   - 404: [domain.ErrNotFound]
//   - other 4xx: [domain.ErrValidation] or [domain.ErrForbidden]
//   - 5xx: [domain.ErrUnavailable]
//   - malformed body or missing key: decode or [domain.ErrValidation] error
//
// Cancellation is not mapped, so errors.Is(err, context.Canceled) holds for
// a fetch abandoned by its caller.
package acl
