package dto

// CreateAccountRequest creates a bank account. Numbers are hashed server-side
// and never stored or echoed back.
type CreateAccountRequest struct {
	Institution string   `json:"institution"`
	Numbers     []string `json:"numbers,omitempty"`
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	ShortName   string   `json:"short_name"`
}

// CreateCategoryRequest creates a category. The type is fixed once created.
type CreateCategoryRequest struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
}

// UpdateCategoryRequest updates a category's mutable metadata.
type UpdateCategoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// CreateDetectorRequest creates a detector. MatchingPattern is required for
// detectors in balanced categories and forbidden elsewhere.
type CreateDetectorRequest struct {
	ID              string `json:"id,omitempty"`
	CategoryID      string `json:"category_id"`
	Vendor          string `json:"vendor,omitempty"`
	Description     string `json:"description,omitempty"`
	Pattern         string `json:"pattern"`
	CentsMin        int    `json:"cents_min,omitempty"`
	CentsMax        int    `json:"cents_max,omitempty"`
	MatchingPattern string `json:"matching_pattern,omitempty"`
}

// UpdateDetectorRequest edits detector fields. Absent fields stay unchanged;
// edits propagate to the detector's mirror.
type UpdateDetectorRequest struct {
	Vendor          *string `json:"vendor,omitempty"`
	Description     *string `json:"description,omitempty"`
	Pattern         *string `json:"pattern,omitempty"`
	CentsMin        *int    `json:"cents_min,omitempty"`
	CentsMax        *int    `json:"cents_max,omitempty"`
	MatchingPattern *string `json:"matching_pattern,omitempty"`
}

// AssignDetectorRequest manually assigns a detector to a transaction. An empty
// detector ID clears the assignment.
type AssignDetectorRequest struct {
	DetectorID string `json:"detector_id"`
}

// SetNoteRequest sets a transaction's note.
type SetNoteRequest struct {
	Note string `json:"note"`
}
