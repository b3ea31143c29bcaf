package dto

import "time"

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// AccountResponse represents an account in API responses. Account numbers are
// never included, only the count of hashes on file.
type AccountResponse struct {
	ID          string `json:"id"`
	Institution string `json:"institution"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	NumberCount int    `json:"number_count"`
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	AccountID    string   `json:"account_id"`
	ID           string   `json:"id"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Address      string   `json:"address,omitempty"`
	Cents        int      `json:"cents"`
	Note         string   `json:"note,omitempty"`
	DetectorID   string   `json:"detector_id"`
	CategoryID   string   `json:"category_id,omitempty"`
	CategoryName string   `json:"category_name,omitempty"`
	Candidates   []string `json:"candidates,omitempty"`
	MatchedWith  string   `json:"matched_with,omitempty"`
}

// TransactionListResponse is a list of transactions.
type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
	TotalCount   int                   `json:"total_count"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	HasMore      bool                  `json:"has_more"`
}

// DetectorResponse represents a detector in API responses.
type DetectorResponse struct {
	ID              string `json:"id"`
	CategoryID      string `json:"category_id"`
	Vendor          string `json:"vendor,omitempty"`
	Description     string `json:"description,omitempty"`
	Pattern         string `json:"pattern"`
	CentsMin        int    `json:"cents_min"`
	CentsMax        int    `json:"cents_max"`
	MatchingPattern string `json:"matching_pattern,omitempty"`
	MirrorID        string `json:"mirror_id,omitempty"`
	Derived         bool   `json:"derived,omitempty"`
}

// CategoryResponse represents a category with its detectors.
type CategoryResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Type      string             `json:"type"`
	Color     string             `json:"color"`
	Detectors []DetectorResponse `json:"detectors"`
}

// CategoryListResponse is a list of categories.
type CategoryListResponse struct {
	Categories []CategoryResponse `json:"categories"`
}

// ImportResponse describes the outcome of a statement import.
type ImportResponse struct {
	AccountID  string `json:"account_id"`
	NewAccount bool   `json:"new_account"`
	Read       int    `json:"read"`
	Added      int    `json:"added"`
}
