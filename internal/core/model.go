package core

import (
	"time"
)

// Outcome is the classification result of a single mail item
type Outcome string

const (
	OutcomeAdmitted Outcome = "admitted"
	OutcomeExcluded Outcome = "excluded"
	OutcomeErrored  Outcome = "errored"
)

// EmailCategory is the model-derived kind of request
type EmailCategory string

const (
	CategorySolution EmailCategory = "Solution"
	CategoryProducts EmailCategory = "Products"
)

// Valid reports whether the category is one of the known values
func (c EmailCategory) Valid() bool {
	return c == CategorySolution || c == CategoryProducts
}

// RawItem represents a mail item as read from the mail source
type RawItem struct {
	ID            string    `json:"id" yaml:"id"`
	Index         int       `json:"index" yaml:"index"`
	SenderName    string    `json:"sender_name" yaml:"sender_name"`
	SenderAddress string    `json:"sender_address" yaml:"sender_address"`
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	RawDate       string    `json:"raw_date,omitempty" yaml:"raw_date,omitempty"`
	Subject       string    `json:"subject" yaml:"subject"`
	Body          string    `json:"body" yaml:"body"`
	To            []string  `json:"to,omitempty" yaml:"to,omitempty"`
	Cc            []string  `json:"cc,omitempty" yaml:"cc,omitempty"`
	Attachments   []string  `json:"attachments,omitempty" yaml:"attachments,omitempty"`
	// BodyFault describes why the body could not be decoded. The headers
	// are still populated.
	BodyFault string `json:"-" yaml:"-"`
}

// ExtractionRecord is the outcome of classifying one RawItem
type ExtractionRecord struct {
	RawItem         `yaml:",inline"`
	Location        string  `json:"location,omitempty" yaml:"location,omitempty"`
	Outcome         Outcome `json:"outcome" yaml:"outcome"`
	ExclusionReason string  `json:"exclusion_reason,omitempty" yaml:"exclusion_reason,omitempty"`
	ErrorDetail     string  `json:"error_detail,omitempty" yaml:"error_detail,omitempty"`
}

// Attributes holds the model-derived fields of an enriched record
type Attributes struct {
	CompanyName             string        `json:"company_name" yaml:"company_name"`
	CompanyWebsite          string        `json:"company_website" yaml:"company_website"`
	CompanyCountry          string        `json:"company_country" yaml:"company_country"`
	EmailCategory           EmailCategory `json:"email_category" yaml:"email_category"`
	ProductCategory         string        `json:"product_category" yaml:"product_category"`
	EquipmentRequested      string        `json:"equipment_requested" yaml:"equipment_requested"`
	TechnicalSpecifications string        `json:"technical_specifications" yaml:"technical_specifications"`
	SubjectBodyConsistent   bool          `json:"subject_body_consistent" yaml:"subject_body_consistent"`
	CorrelationNote         string        `json:"correlation_note,omitempty" yaml:"correlation_note,omitempty"`
}

// EnrichmentRecord extends an admitted ExtractionRecord with model-derived attributes.
// The embedded record is never modified by enrichment.
type EnrichmentRecord struct {
	ExtractionRecord `yaml:",inline"`
	Attributes       `yaml:",inline"`
	Model            string    `json:"model" yaml:"model"`
	Attempts         int       `json:"attempts" yaml:"attempts"`
	FromCache        bool      `json:"from_cache" yaml:"from_cache"`
	EnrichedAt       time.Time `json:"enriched_at" yaml:"enriched_at"`
}

// EnrichmentFailure is an admitted record whose enrichment reached retry exhaustion
type EnrichmentFailure struct {
	ExtractionRecord `yaml:",inline"`
	Kind             CallKind `json:"kind" yaml:"kind"`
	Attempts         int      `json:"attempts" yaml:"attempts"`
	Detail           string   `json:"detail" yaml:"detail"`
}

// ExtractionStats counts what the extraction pipeline saw
type ExtractionStats struct {
	Total          int `json:"total" yaml:"total"`
	FilteredByDate int `json:"filtered_by_date" yaml:"filtered_by_date"`
	Admitted       int `json:"admitted" yaml:"admitted"`
	Excluded       int `json:"excluded" yaml:"excluded"`
	Errored        int `json:"errored" yaml:"errored"`
}

// Considered returns the number of items that passed the date filter
func (s ExtractionStats) Considered() int {
	return s.Total - s.FilteredByDate
}

// CacheEntry represents a cached enrichment result
type CacheEntry struct {
	Key        string
	Model      string
	Attributes Attributes
	StoredAt   time.Time
	ExpiresAt  time.Time
}
