package enrichment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonschema"
	"github.com/mikey/rfq-workflow/internal/core"
	"github.com/mikey/rfq-workflow/internal/utils"
)

const responseSchema = `{
  "type": "object",
  "required": ["company_info", "email_category", "product_category", "equipment_requested", "subject_body_consistent"],
  "properties": {
    "record_id": {"type": "string"},
    "company_info": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": {"type": "string"},
        "website": {"type": "string"},
        "country": {"type": "string"}
      }
    },
    "email_category": {"type": "string", "minLength": 1},
    "product_category": {"type": "string"},
    "equipment_requested": {"type": "string"},
    "technical_specifications": {"type": "string"},
    "subject_body_consistent": {"type": "boolean"},
    "subject_body_correlation": {"type": "string"}
  }
}`

type modelResponse struct {
	RecordID    string `json:"record_id"`
	CompanyInfo struct {
		Name    string `json:"name"`
		Website string `json:"website"`
		Country string `json:"country"`
	} `json:"company_info"`
	EmailCategory           string `json:"email_category"`
	ProductCategory         string `json:"product_category"`
	EquipmentRequested      string `json:"equipment_requested"`
	TechnicalSpecifications string `json:"technical_specifications"`
	SubjectBodyConsistent   bool   `json:"subject_body_consistent"`
	SubjectBodyCorrelation  string `json:"subject_body_correlation"`
}

// categoryAliases maps folded category spellings a model may return to the enum
var categoryAliases = []struct {
	alias    string
	category core.EmailCategory
}{
	{"solution", core.CategorySolution},
	{"solucion", core.CategorySolution},
	{"solucion de tratamiento compleja", core.CategorySolution},
	{"complex treatment solution", core.CategorySolution},
	{"products", core.CategoryProducts},
	{"product", core.CategoryProducts},
	{"productos", core.CategoryProducts},
}

// Parser turns raw model output into validated attributes
type Parser struct {
	schema *jsonschema.Schema
}

// NewParser compiles the response schema
func NewParser() (*Parser, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile([]byte(responseSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile response schema: %w", err)
	}
	return &Parser{schema: schema}, nil
}

// Parse extracts, validates and maps the model response. Every failure is a
// MalformedResponse call error; no partial attributes are returned.
func (p *Parser) Parse(text string) (core.Attributes, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return core.Attributes{}, core.NewCallError(core.KindMalformedResponse, err)
	}

	result := p.schema.ValidateJSON(raw)
	if !result.IsValid() {
		return core.Attributes{}, core.NewCallError(core.KindMalformedResponse,
			fmt.Errorf("response does not match schema: %v", result.Errors))
	}

	var resp modelResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return core.Attributes{}, core.NewCallError(core.KindMalformedResponse,
			fmt.Errorf("failed to decode response: %w", err))
	}

	category := mapCategory(resp.EmailCategory)
	if !category.Valid() {
		return core.Attributes{}, core.NewCallError(core.KindMalformedResponse,
			fmt.Errorf("unknown email category %q", resp.EmailCategory))
	}

	return core.Attributes{
		CompanyName:             strings.TrimSpace(resp.CompanyInfo.Name),
		CompanyWebsite:          strings.TrimSpace(resp.CompanyInfo.Website),
		CompanyCountry:          strings.TrimSpace(resp.CompanyInfo.Country),
		EmailCategory:           category,
		ProductCategory:         strings.TrimSpace(resp.ProductCategory),
		EquipmentRequested:      strings.TrimSpace(resp.EquipmentRequested),
		TechnicalSpecifications: strings.TrimSpace(resp.TechnicalSpecifications),
		SubjectBodyConsistent:   resp.SubjectBodyConsistent,
		CorrelationNote:         strings.TrimSpace(resp.SubjectBodyCorrelation),
	}, nil
}

func mapCategory(s string) core.EmailCategory {
	folded := strings.Trim(utils.Fold(strings.TrimSpace(s)), `'".`)
	for _, a := range categoryAliases {
		if folded == a.alias {
			return a.category
		}
	}
	return core.EmailCategory(s)
}

// extractJSON returns the JSON object in the text, tolerating code fences and
// prose around it
func extractJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("empty response")
	}
	if json.Valid([]byte(text)) && strings.HasPrefix(text, "{") {
		return []byte(text), nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, errors.New("no JSON object in response")
	}
	candidate := []byte(text[start : end+1])
	if !json.Valid(candidate) {
		return nil, errors.New("response contains invalid JSON")
	}
	return candidate, nil
}
