package importer

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var ErrIncompleteMapping = errors.New("mapping must name date, description and amount columns")

// Mapping names the source column of each transaction field. Empty means unmapped.
type Mapping struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Date        string `yaml:"date" json:"date"`
	Description string `yaml:"description" json:"description"`
	Amount      string `yaml:"amount" json:"amount"`
	Category    string `yaml:"category,omitempty" json:"category,omitempty"`
	Account     string `yaml:"account,omitempty" json:"account,omitempty"`
	Notes       string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

func (m Mapping) Validate() error {
	if m.Date == "" || m.Description == "" || m.Amount == "" {
		return ErrIncompleteMapping
	}
	return nil
}

// ParseMapping decodes a YAML mapping preset.
func ParseMapping(data []byte) (Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Mapping{}, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}

func LoadMapping(path string) (Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(data)
}

var headerAliases = []struct {
	field   func(*Mapping) *string
	pattern *regexp.Regexp
}{
	{func(m *Mapping) *string { return &m.Date }, regexp.MustCompile(`(?i)^(date|datum|jour|day|date op[ée]ration|booking date|transaction date|buchungstag)$`)},
	{func(m *Mapping) *string { return &m.Description }, regexp.MustCompile(`(?i)^(description|desc|libell[ée]|merchant|commerce|nom|payee|omschrijving|beschreibung|verwendungszweck)$`)},
	{func(m *Mapping) *string { return &m.Amount }, regexp.MustCompile(`(?i)^(amount|montant|somme|total|prix|price|valeur|bedrag|betrag)$`)},
	{func(m *Mapping) *string { return &m.Category }, regexp.MustCompile(`(?i)^(category|cat[ée]gorie|cat|kategorie)$`)},
	{func(m *Mapping) *string { return &m.Account }, regexp.MustCompile(`(?i)^(account|compte|bank|banque|rekening|konto)$`)},
	{func(m *Mapping) *string { return &m.Notes }, regexp.MustCompile(`(?i)^(notes?|comment|commentaire|memo|opmerking|notiz)$`)},
}

// DetectMapping guesses columns from common header names. The first
// matching header wins for each field.
func DetectMapping(headers []string) Mapping {
	var m Mapping
	for _, h := range headers {
		for _, alias := range headerAliases {
			target := alias.field(&m)
			if *target == "" && alias.pattern.MatchString(h) {
				*target = h
			}
		}
	}
	return m
}
