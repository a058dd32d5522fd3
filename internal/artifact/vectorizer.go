package artifact

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/dlclark/regexp2"
	"github.com/mikey/spam-detector/internal/core"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token pattern used by the training pipeline by default. Patterns run on
// regexp2 so \w and \b are Unicode aware as they are during training.
const defaultTokenPattern = `(?u)\b\w\w+\b`

// tokenTimeout bounds a single token scan of a backtracking pattern
const tokenTimeout = 2 * time.Second

// TfidfVectorizer is a bag of words vectorizer with optional idf weighting.
// With use_idf false, or as a count_vectorizer artifact, idf weights are ignored.
type TfidfVectorizer struct {
	Kind         string         `json:"kind"`
	Vocabulary   map[string]int `json:"vocabulary"`
	IDF          []float64      `json:"idf,omitempty"`
	UseIDF       *bool          `json:"use_idf,omitempty"`
	Lowercase    *bool          `json:"lowercase,omitempty"`
	StripAccents string         `json:"strip_accents,omitempty"`
	TokenPattern string         `json:"token_pattern,omitempty"`
	NgramRange   [2]int         `json:"ngram_range,omitempty"`
	StopWords    []string       `json:"stop_words,omitempty"`
	Binary       bool           `json:"binary,omitempty"`
	SublinearTF  bool           `json:"sublinear_tf,omitempty"`
	Norm         string         `json:"norm,omitempty"`

	tokenRe *regexp2.Regexp
	stop    map[string]struct{}
}

var _ core.Vectorizer = (*TfidfVectorizer)(nil)

func (v *TfidfVectorizer) init() error {
	n := len(v.Vocabulary)
	if n == 0 {
		return fmt.Errorf("empty vocabulary")
	}

	seen := make([]bool, n)
	for term, idx := range v.Vocabulary {
		if idx < 0 || idx >= n {
			return fmt.Errorf("vocabulary index %d for %q out of range", idx, term)
		}
		if seen[idx] {
			return fmt.Errorf("vocabulary index %d used twice", idx)
		}
		seen[idx] = true
	}

	useIDF := v.Kind == KindTfidfVectorizer && (v.UseIDF == nil || *v.UseIDF)
	if !useIDF {
		v.IDF = nil
	} else if len(v.IDF) != n {
		return fmt.Errorf("idf has %d weights for %d terms", len(v.IDF), n)
	}

	if v.NgramRange == [2]int{} {
		v.NgramRange = [2]int{1, 1}
	}
	if v.NgramRange[0] < 1 || v.NgramRange[1] < v.NgramRange[0] {
		return fmt.Errorf("invalid ngram range %v", v.NgramRange)
	}

	switch v.Norm {
	case "":
		if v.Kind == KindTfidfVectorizer {
			v.Norm = "l2"
		} else {
			v.Norm = "none"
		}
	case "l1", "l2", "none":
	default:
		return fmt.Errorf("unsupported norm %q", v.Norm)
	}

	switch v.StripAccents {
	case "", "unicode", "ascii":
	default:
		return fmt.Errorf("unsupported strip_accents %q", v.StripAccents)
	}

	pattern := v.TokenPattern
	if pattern == "" {
		pattern = defaultTokenPattern
	}
	// Unicode matching is the default in regexp2, which rejects the (?u) flag
	re, err := regexp2.Compile(strings.TrimPrefix(pattern, "(?u)"), regexp2.None)
	if err != nil {
		return fmt.Errorf("invalid token pattern: %w", err)
	}
	re.MatchTimeout = tokenTimeout
	v.tokenRe = re

	v.stop = make(map[string]struct{}, len(v.StopWords))
	for _, w := range v.StopWords {
		v.stop[w] = struct{}{}
	}
	return nil
}

// Transform converts each document into a feature row
func (v *TfidfVectorizer) Transform(docs []string) ([]core.SparseVector, error) {
	rows := make([]core.SparseVector, 0, len(docs))
	for _, doc := range docs {
		row, err := v.transformOne(doc)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (v *TfidfVectorizer) transformOne(doc string) (core.SparseVector, error) {
	text, err := v.preprocess(doc)
	if err != nil {
		return core.SparseVector{}, err
	}

	terms, err := v.terms(text)
	if err != nil {
		return core.SparseVector{}, err
	}

	counts := make(map[int]float64)
	for _, term := range terms {
		if idx, ok := v.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	row := core.SparseVector{
		Dim:     len(v.Vocabulary),
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		row.Indices = append(row.Indices, idx)
	}
	sort.Ints(row.Indices)

	for _, idx := range row.Indices {
		tf := counts[idx]
		switch {
		case v.Binary:
			tf = 1
		case v.SublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.IDF != nil {
			tf *= v.IDF[idx]
		}
		row.Values = append(row.Values, tf)
	}

	normalize(row.Values, v.Norm)
	return row, nil
}

// preprocess lowercases then strips accents, in the training pipeline's order
func (v *TfidfVectorizer) preprocess(doc string) (string, error) {
	if v.Lowercase == nil || *v.Lowercase {
		doc = strings.ToLower(doc)
	}
	if t := accentStripper(v.StripAccents); t != nil {
		stripped, _, err := transform.String(t, doc)
		if err != nil {
			return "", fmt.Errorf("failed to strip accents: %w", err)
		}
		doc = stripped
	}
	return doc, nil
}

func (v *TfidfVectorizer) tokenize(text string) ([]string, error) {
	var tokens []string
	m, err := v.tokenRe.FindStringMatch(text)
	for ; m != nil; m, err = v.tokenRe.FindNextMatch(m) {
		tokens = append(tokens, m.String())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize: %w", err)
	}
	return tokens, nil
}

// terms returns the word n-grams of text that are not stop words
func (v *TfidfVectorizer) terms(text string) ([]string, error) {
	tokens, err := v.tokenize(text)
	if err != nil {
		return nil, err
	}
	if len(v.stop) > 0 {
		kept := tokens[:0]
		for _, tok := range tokens {
			if _, ok := v.stop[tok]; !ok {
				kept = append(kept, tok)
			}
		}
		tokens = kept
	}

	lo, hi := v.NgramRange[0], v.NgramRange[1]
	if lo == 1 && hi == 1 {
		return tokens, nil
	}

	var out []string
	for n := lo; n <= hi; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out, nil
}

// accentStripper returns a fresh transformer; chains keep internal state.
// The output stays decomposed.
func accentStripper(mode string) transform.Transformer {
	switch mode {
	case "unicode":
		return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(combining)))
	case "ascii":
		return transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
			return r > unicode.MaxASCII
		})))
	default:
		return nil
	}
}

// combining reports a non-zero canonical combining class
func combining(r rune) bool {
	return norm.NFKD.PropertiesString(string(r)).CCC() != 0
}

func normalize(values []float64, mode string) {
	var total float64
	switch mode {
	case "l1":
		for _, x := range values {
			total += math.Abs(x)
		}
	case "l2":
		for _, x := range values {
			total += x * x
		}
		total = math.Sqrt(total)
	default:
		return
	}
	if total == 0 {
		return
	}
	for i := range values {
		values[i] /= total
	}
}
