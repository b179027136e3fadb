package model

import (
	"encoding/json"
	"time"
)

// DefaultTarget is the domain a submit falls back to when the form does
// not name one.
const DefaultTarget = "haveibeenpwned.com"

// Selectors the demo form maps its inputs onto.
const (
	emailSelector = "input#AccountCheck_Account"
	phoneSelector = "input#PhoneField"
)

// FieldValues maps a CSS selector to the value to fill into it.
type FieldValues map[string]string

// FieldMap groups selector/value pairs by logical field name.
type FieldMap map[string]FieldValues

// FillConfig is the fill instruction set served for one origin. The JSON
// payload carries only the fields map; origin and timestamps are storage
// concerns.
type FillConfig struct {
	Origin    string    `json:"-" yaml:"-"`
	Fields    FieldMap  `json:"fields" yaml:"fields"`
	CreatedAt time.Time `json:"-" yaml:"-"`
	UpdatedAt time.Time `json:"-" yaml:"-"`
}

// FieldsToJSON converts the fields map to a JSON string for storage.
func (c *FillConfig) FieldsToJSON() (string, error) {
	if c.Fields == nil {
		return "", nil
	}
	data, err := json.Marshal(c.Fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FieldsFromJSON parses a JSON string into the fields map.
func (c *FillConfig) FieldsFromJSON(data string) error {
	if data == "" {
		c.Fields = nil
		return nil
	}
	return json.Unmarshal([]byte(data), &c.Fields)
}

// SubmitRequest is the demo form submission.
type SubmitRequest struct {
	Email  string `form:"email"`
	Phone  string `form:"phone"`
	Target string `form:"target"`
}

// TargetDomain returns the submitted target, falling back to the default.
func (r *SubmitRequest) TargetDomain() string {
	if r.Target == "" {
		return DefaultTarget
	}
	return r.Target
}

// Config builds the fill config a submission stores.
func (r *SubmitRequest) Config() *FillConfig {
	return &FillConfig{
		Origin: r.TargetDomain(),
		Fields: FieldMap{
			"email": {emailSelector: r.Email},
			"phone": {phoneSelector: r.Phone},
		},
	}
}
