package textindex

import (
	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/unicode"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/registry"
)

const (
	// LongTokenFilterName drops tokens over maxTokenRunes runes, the
	// teacher's own defensive pattern against pathological single
	// "words" (e.g. a minified blob with no whitespace).
	LongTokenFilterName = "docbert_long_token"

	// ProseAnalyzerName is the default analyzer for title/body fields:
	// Bleve's built-in English pipeline (possessive strip, lowercase,
	// stopword removal, stemming) plus the long-token filter.
	ProseAnalyzerName = "docbert_prose"

	maxTokenRunes = 40
)

func init() {
	_ = registry.RegisterTokenFilter(LongTokenFilterName, longTokenFilterConstructor)
}

// registerProseAnalyzer wires ProseAnalyzerName into m, composing
// Bleve's English-language filters with the long-token filter.
func registerProseAnalyzer(m *mapping.IndexMappingImpl) error {
	return m.AddCustomAnalyzer(ProseAnalyzerName, map[string]interface{}{
		"type":      custom.Name,
		"tokenizer": unicode.Name,
		"token_filters": []string{
			en.PossessiveName,
			lowercase.Name,
			LongTokenFilterName,
			en.StopName,
			en.StemmerName,
		},
	})
}

func longTokenFilterConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	return &longTokenFilter{max: maxTokenRunes}, nil
}

type longTokenFilter struct {
	max int
}

func (f *longTokenFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	result := make(analysis.TokenStream, 0, len(input))
	for _, token := range input {
		if len([]rune(string(token.Term))) > f.max {
			continue
		}
		result = append(result, token)
	}
	return result
}
