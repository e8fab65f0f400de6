// Package tokenmeta reads and writes token metadata: the JSON document a
// metadata URI points at, the on-chain Token-2022 and Metaplex records, and
// the mint account layout.
package tokenmeta

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DefaultPlaceholderImage is used when a created token has no image.
const DefaultPlaceholderImage = "https://placehold.co/600x400?text=Token"

const dataURIPrefix = "data:application/json;base64,"

// ErrNotDataURI is returned by DecodeDataURI for any other scheme.
var ErrNotDataURI = errors.New("not a base64 JSON data URI")

// Document is the off-chain metadata JSON.
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []any       `json:"attributes"`
	Properties  *Properties `json:"properties,omitempty"`
}

// Properties holds the document category.
type Properties struct {
	Category string `json:"category"`
}

// NewDocument builds the document written for a freshly created token.
// An empty image is replaced by placeholder.
func NewDocument(name, symbol, description, image, placeholder string) Document {
	if strings.TrimSpace(image) == "" {
		image = placeholder
	}
	return Document{
		Name:        name,
		Symbol:      symbol,
		Description: description,
		Image:       image,
		Attributes:  []any{},
		Properties:  &Properties{Category: "token"},
	}
}

// DataURI embeds d as a base64 JSON data URI.
func (d Document) DataURI() (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshal metadata document: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(raw), nil
}

// IsDataURI reports whether uri carries its payload inline.
func IsDataURI(uri string) bool {
	return strings.HasPrefix(uri, "data:")
}

// DecodeDataURI decodes a data URI produced by DataURI. Plain (non-base64)
// JSON data URIs are accepted too.
func DecodeDataURI(uri string) (*Document, error) {
	if !IsDataURI(uri) {
		return nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return nil, fmt.Errorf("malformed data URI: missing payload")
	}
	if !strings.HasPrefix(header, "application/json") {
		return nil, ErrNotDataURI
	}

	var raw []byte
	if strings.HasSuffix(header, ";base64") {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, fmt.Errorf("decode data URI: %w", err)
		}
		raw = decoded
	} else {
		raw = []byte(payload)
	}
	return parseDocument(raw)
}

func parseDocument(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse metadata document: %w", err)
	}
	return &doc, nil
}
