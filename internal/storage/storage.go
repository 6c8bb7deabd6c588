package storage

import (
	"context"
	"strconv"
	"strings"
)

// UserRecord is a registered user. History is kept in its serialized form,
// see EncodeHistory and ParseHistory.
type UserRecord struct {
	Email   string
	Name    string
	Token   string
	History string
}

// CreateResult reports how an insert resolved against the unique columns.
type CreateResult int

const (
	Created CreateResult = iota
	EmailTaken
	TokenTaken
)

func (r CreateResult) String() string {
	switch r {
	case Created:
		return "created"
	case EmailTaken:
		return "email_taken"
	case TokenTaken:
		return "token_taken"
	default:
		return "unknown"
	}
}

// Store persists user records keyed by email.
// Create must rely on the storage layer's unique constraints so that two
// concurrent registrations of the same email cannot both succeed.
// AppendHistory is a read-then-write and is only safe when messages of one
// conversation are delivered sequentially.
type Store interface {
	Create(ctx context.Context, rec UserRecord) (CreateResult, error)
	AppendHistory(ctx context.Context, email, message string) error
	Ping(ctx context.Context) error
	Close() error
}

const historySep = ", "

// EncodeHistory appends message to an existing serialized history.
func EncodeHistory(history, message string) string {
	seg := strconv.Quote(message)
	if history == "" {
		return seg
	}
	return history + historySep + seg
}

// ParseHistory splits a serialized history back into its messages.
// Segments that are not valid quoted strings are returned verbatim.
func ParseHistory(history string) []string {
	var out []string
	rest := history
	for rest != "" {
		if rest[0] != '"' {
			// not produced by EncodeHistory; keep the remainder as one item
			out = append(out, rest)
			break
		}
		end := closingQuote(rest)
		if end < 0 {
			out = append(out, rest)
			break
		}
		s, err := strconv.Unquote(rest[:end+1])
		if err != nil {
			s = rest[:end+1]
		}
		out = append(out, s)
		rest = strings.TrimPrefix(rest[end+1:], historySep)
	}
	return out
}

// closingQuote returns the index of the quote that closes the segment
// starting at s[0], honouring backslash escapes.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
