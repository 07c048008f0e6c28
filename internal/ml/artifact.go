package ml

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadVectorizer reads a vectorizer exported as JSON.
func LoadVectorizer(path string) (*TfidfVectorizer, error) {
	var spec VectorizerSpec
	if err := readJSON(path, &spec); err != nil {
		return nil, err
	}
	v, err := NewTfidfVectorizer(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid vectorizer %s: %w", path, err)
	}
	return v, nil
}

// LoadClassifier reads a classifier exported as JSON.
func LoadClassifier(path string) (Classifier, error) {
	var spec ClassifierSpec
	if err := readJSON(path, &spec); err != nil {
		return nil, err
	}
	c, err := NewClassifier(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid classifier %s: %w", path, err)
	}
	return c, nil
}

func readJSON(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open artifact: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", path, err)
	}
	return nil
}
