package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/BrandonDHaskell/Asamblea/internal/asamblea/service"
)

// rosterFile is the YAML document accepted by the import command.
type rosterFile struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	CreatedBy   string `yaml:"created_by"`
	Roster      []struct {
		PersonalID    string `yaml:"personal_id"`
		Name          string `yaml:"name"`
		Phone         string `yaml:"phone"`
		Tower         string `yaml:"tower"`
		Unit          string `yaml:"unit"`
		ControlNumber string `yaml:"control_number"`
		// Coefficient is read as text so values like 0.0125 keep every digit.
		Coefficient string `yaml:"coefficient"`
	} `yaml:"roster"`
}

// parseRoster decodes a roster file into a create request. Unknown keys
// are rejected so typos do not silently drop columns.
func parseRoster(r io.Reader) (service.CreateAssemblyRequest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f rosterFile
	if err := dec.Decode(&f); err != nil {
		return service.CreateAssemblyRequest{}, fmt.Errorf("decode roster: %w", err)
	}

	req := service.CreateAssemblyRequest{
		Title:       f.Title,
		Description: f.Description,
		CreatedBy:   f.CreatedBy,
		Roster:      make([]service.RosterEntry, len(f.Roster)),
	}
	for i, row := range f.Roster {
		entry := service.RosterEntry{
			PersonalID:    row.PersonalID,
			Name:          row.Name,
			Phone:         row.Phone,
			Tower:         row.Tower,
			Unit:          row.Unit,
			ControlNumber: row.ControlNumber,
		}
		if c := strings.TrimSpace(row.Coefficient); c != "" {
			d, err := decimal.NewFromString(c)
			if err != nil {
				return service.CreateAssemblyRequest{}, fmt.Errorf("roster row %d: coefficient %q: %w", i+1, c, err)
			}
			entry.Coefficient = decimal.NewNullDecimal(d)
		}
		req.Roster[i] = entry
	}
	return req, nil
}
