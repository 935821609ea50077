package remote

import (
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// UnavailableError wraps transport failures: DNS errors, refused
// connections, timeouts. The repository may be fine a minute later, and
// nothing was transferred.
type UnavailableError struct {
	Err error
}

func (err UnavailableError) Error() string {
	return fmt.Sprintf("remote unreachable: %s", err.Err)
}

func (err UnavailableError) Unwrap() error {
	return err.Err
}

func (err UnavailableError) FriendlyMessage() string {
	return fmt.Sprintf("Could not reach the skills repository:\n%s\n\n"+
		"Check your network connection and try again.", err.Err)
}

// AuthError is a 401, or a 403 that isn't a rate limit: the credential was
// rejected or doesn't grant access to the repository.
type AuthError struct {
	StatusCode int
}

func (err AuthError) Error() string {
	return fmt.Sprintf("authorization failed (HTTP %d)", err.StatusCode)
}

func (err AuthError) FriendlyMessage() string {
	return fmt.Sprintf("GitHub rejected the request (HTTP %d).\n"+
		"If %s is set, check that the token is valid and can read the "+
		"skills repository.", err.StatusCode, TokenEnv)
}

// RateLimitError means the API quota is exhausted. ResetAt is when the
// quota refills; it's zero when the response didn't say.
type RateLimitError struct {
	ResetAt time.Time
}

func (err RateLimitError) Error() string {
	if err.ResetAt.IsZero() {
		return "rate limited"
	}
	return fmt.Sprintf("rate limited until %s", err.ResetAt.Format(time.RFC3339))
}

func (err RateLimitError) FriendlyMessage() string {
	reset := "soon"
	if !err.ResetAt.IsZero() {
		reset = "at " + err.ResetAt.Local().Format("3:04:05 PM")
	}
	return fmt.Sprintf("GitHub API rate limit exceeded. The limit resets %s.\n"+
		"Tip: set %s for a higher limit (5,000 requests/hour instead of 60).",
		reset, TokenEnv)
}

// StatusError is any other non-200 response.
type StatusError struct {
	StatusCode int
	URL        string
}

func (err StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", err.StatusCode, err.URL)
}

func checkResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return AuthError{StatusCode: resp.StatusCode}
	case isRateLimited(resp):
		return RateLimitError{ResetAt: rateLimitReset(resp)}
	case resp.StatusCode == http.StatusForbidden:
		return AuthError{StatusCode: resp.StatusCode}
	default:
		return StatusError{StatusCode: resp.StatusCode, URL: resp.Request.URL.String()}
	}
}

func isRateLimited(resp *http.Response) bool {
	if resp.StatusCode != http.StatusForbidden &&
		resp.StatusCode != http.StatusTooManyRequests {
		return false
	}
	return resp.Header.Get("X-RateLimit-Remaining") == "0"
}

func rateLimitReset(resp *http.Response) time.Time {
	unix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}
