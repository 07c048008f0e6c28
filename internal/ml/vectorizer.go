package ml

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Vector norms applied after weighting.
const (
	NormL2   = "l2"
	NormL1   = "l1"
	NormNone = "none"
)

// VectorizerSpec is the JSON form of a fitted TF-IDF vectorizer.
type VectorizerSpec struct {
	Type        string         `json:"type"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramRange  [2]int         `json:"ngram_range"`
	Lowercase   *bool          `json:"lowercase"`
	UseIDF      *bool          `json:"use_idf"`
	SublinearTF bool           `json:"sublinear_tf"`
	Binary      bool           `json:"binary"`
	Norm        string         `json:"norm"`
}

// TfidfVectorizer maps documents to TF-IDF weighted sparse vectors.
// It is immutable after construction and safe for concurrent use.
type TfidfVectorizer struct {
	vocabulary  map[string]int
	idf         []float64
	minN, maxN  int
	lowercase   bool
	useIDF      bool
	sublinearTF bool
	binary      bool
	norm        string
}

// NewTfidfVectorizer validates spec and builds a vectorizer from it.
func NewTfidfVectorizer(spec VectorizerSpec) (*TfidfVectorizer, error) {
	if spec.Type != "" && spec.Type != "tfidf" {
		return nil, fmt.Errorf("unsupported vectorizer type %q", spec.Type)
	}
	if len(spec.Vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer vocabulary is empty")
	}

	v := &TfidfVectorizer{
		vocabulary:  spec.Vocabulary,
		minN:        spec.NgramRange[0],
		maxN:        spec.NgramRange[1],
		lowercase:   spec.Lowercase == nil || *spec.Lowercase,
		useIDF:      spec.UseIDF == nil || *spec.UseIDF,
		sublinearTF: spec.SublinearTF,
		binary:      spec.Binary,
		norm:        spec.Norm,
	}

	if v.minN == 0 && v.maxN == 0 {
		v.minN, v.maxN = 1, 1
	}
	if v.minN < 1 || v.maxN < v.minN {
		return nil, fmt.Errorf("invalid ngram_range [%d, %d]", v.minN, v.maxN)
	}

	switch v.norm {
	case "":
		v.norm = NormL2
	case NormL2, NormL1, NormNone:
	default:
		return nil, fmt.Errorf("unsupported norm %q", v.norm)
	}

	dim := len(spec.Vocabulary)
	seen := make([]bool, dim)
	for term, idx := range spec.Vocabulary {
		if idx < 0 || idx >= dim || seen[idx] {
			return nil, fmt.Errorf("vocabulary index %d for %q is out of range or duplicated", idx, term)
		}
		seen[idx] = true
	}

	if v.useIDF {
		if len(spec.IDF) != dim {
			return nil, fmt.Errorf("idf has %d entries, vocabulary has %d", len(spec.IDF), dim)
		}
		v.idf = spec.IDF
	}

	return v, nil
}

// Dim returns the output dimensionality, fixed for the vectorizer's lifetime.
func (v *TfidfVectorizer) Dim() int {
	return len(v.vocabulary)
}

// TransformBatch vectorizes each document independently.
func (v *TfidfVectorizer) TransformBatch(docs []string) ([]SparseVector, error) {
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = v.Transform(doc)
	}
	return out, nil
}

// Transform vectorizes one document. The empty document maps to the zero vector.
func (v *TfidfVectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.analyze(doc) {
		if idx, ok := v.vocabulary[term]; ok {
			counts[idx]++
		}
	}

	for idx, tf := range counts {
		switch {
		case v.binary:
			tf = 1
		case v.sublinearTF:
			tf = 1 + math.Log(tf)
		}
		if v.useIDF {
			tf *= v.idf[idx]
		}
		counts[idx] = tf
	}

	vec := newSparseVector(v.Dim(), counts)
	vec.normalize(v.norm)
	return vec
}

func (v *TfidfVectorizer) analyze(doc string) []string {
	if v.lowercase {
		doc = cases.Lower(language.Und).String(doc)
	}
	tokens := wordTokens(doc)
	if v.minN == 1 && v.maxN == 1 {
		return tokens
	}

	var terms []string
	if v.minN == 1 {
		terms = append(terms, tokens...)
	}
	for n := max(v.minN, 2); n <= v.maxN; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

// wordTokens returns maximal runs of word characters at least two long.
func wordTokens(doc string) []string {
	fields := strings.FieldsFunc(doc, func(r rune) bool { return !isWordRune(r) })
	tokens := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}
