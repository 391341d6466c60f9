package rd

import "time"

// Account is the subset of the provider's user endpoint the
// coordinator cares about.
type Account struct {
	Username  string
	Premium   bool
	ExpiresAt *time.Time
}

// Unrestricted is a direct-download link produced by the provider's
// unrestrict endpoint.
type Unrestricted struct {
	URL      string
	Filename string
	Filesize int64
}

type userResponse struct {
	Username   string `json:"username"`
	Type       string `json:"type"` // "premium"
	Expiration string `json:"expiration"`
}

type unrestrictResponse struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
	Error    string `json:"error"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}
