package enrichment

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/mikey/rfq-workflow/internal/core"
)

//go:embed products.txt
var defaultProducts string

const systemPrompt = `You are an analyst for a water treatment equipment supplier.
You read inbound business emails and return structured data as a single JSON object.`

const userPromptFormat = `Analyze the email below.

<email>
Record ID: %s
From: %s <%s>
Date: %s
Subject: %s
Location hint: %s
Attachments: %s
Body:
%s
</email>

Product categories (use one of these whenever possible, otherwise "Other"):
%s

Instructions:
1. Decide whether the request needs a complex treatment solution ("Solution") or specific products ("Products").
2. Identify the sender's company from the body and signature.
3. Describe the equipment or solution requested and any technical requirements.
4. Compare the subject with the body and say whether they are consistent.

Respond only with a JSON object of this shape:
{
  "record_id": "the Record ID above",
  "company_info": {
    "name": "company name or \"Not specified\"",
    "website": "website or \"Not mentioned\"",
    "country": "country or \"Not specified\""
  },
  "email_category": "Solution" or "Products",
  "product_category": "a category from the list or \"Other\"",
  "equipment_requested": "description of the equipment or solution",
  "technical_specifications": "technical requirements or \"None specified\"",
  "subject_body_consistent": true or false,
  "subject_body_correlation": "short note on how subject and body relate"
}`

// DefaultProducts returns the built-in product categorisation list
func DefaultProducts() []string {
	return splitProducts(defaultProducts)
}

// LoadProductList reads a product list file with one category per line or comma separated
func LoadProductList(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read product list: %w", err)
	}
	products := splitProducts(string(data))
	if len(products) == 0 {
		return nil, fmt.Errorf("product list %s is empty", path)
	}
	return products, nil
}

func splitProducts(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// PromptBuilder renders the model prompt for one admitted record
type PromptBuilder struct {
	products string
}

// NewPromptBuilder creates a prompt builder. An empty list uses the built-in categories.
func NewPromptBuilder(products []string) *PromptBuilder {
	if len(products) == 0 {
		products = DefaultProducts()
	}
	return &PromptBuilder{products: strings.Join(products, ", ")}
}

// Build returns the system and user prompts for the record
func (b *PromptBuilder) Build(rec core.ExtractionRecord) (string, string) {
	date := ""
	if !rec.Timestamp.IsZero() {
		date = rec.Timestamp.Format("2006-01-02 15:04")
	}
	location := rec.Location
	if location == "" {
		location = "unknown"
	}
	attachments := "none"
	if len(rec.Attachments) > 0 {
		attachments = strings.Join(rec.Attachments, ", ")
	}
	user := fmt.Sprintf(userPromptFormat,
		recordID(rec), rec.SenderName, rec.SenderAddress, date, rec.Subject, location, attachments, rec.Body, b.products)
	return systemPrompt, user
}

func recordID(rec core.ExtractionRecord) string {
	if rec.ID != "" {
		return rec.ID
	}
	return fmt.Sprintf("record-%d", rec.Index)
}
