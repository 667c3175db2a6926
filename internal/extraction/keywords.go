package extraction

import (
	"regexp"
	"strings"

	"github.com/mikey/rfq-workflow/internal/utils"
)

// DefaultRFQKeywords signal a request for quote, in English and Spanish
var DefaultRFQKeywords = []string{
	"rfq", "request for quote", "request for quotation", "quote", "quotation", "cotizacion", "cotizar",
	"presupuesto", "precio", "precios", "price", "pricing", "coste", "cost", "oferta", "offer", "propuesta",
	"proposal", "inquiry", "enquiry", "consulta", "informacion", "information", "interesado", "interesados",
	"interested", "necesito", "necesitamos", "need", "require", "requerimos", "solicitud", "request",
}

// DefaultExclusionKeywords mark automatic replies and bulk mail
var DefaultExclusionKeywords = []string{
	"out of office", "automatic reply", "auto-reply", "autoreply", "respuesta automatica",
	"fuera de la oficina", "unsubscribe", "darse de baja", "newsletter", "boletin", "do not reply",
	"no responder", "noreply", "no-reply", "delivery status notification", "undeliverable",
}

type keyword struct {
	word string
	re   *regexp.Regexp
}

func compileKeywords(words []string) []keyword {
	out := make([]keyword, 0, len(words))
	for _, w := range words {
		folded := utils.Fold(strings.TrimSpace(w))
		if folded == "" {
			continue
		}
		parts := strings.Fields(folded)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		out = append(out, keyword{
			word: folded,
			re:   regexp.MustCompile(`\b` + strings.Join(parts, `\s+`) + `\b`),
		})
	}
	return out
}

// firstMatch returns the first keyword, in list order, found in folded text
func firstMatch(keywords []keyword, folded string) (string, bool) {
	for _, k := range keywords {
		if k.re.MatchString(folded) {
			return k.word, true
		}
	}
	return "", false
}
