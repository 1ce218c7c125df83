// Copyright (c) 2026 The scaladm authors.
// SPDX-License-Identifier: Apache-2.0

package cftemplate

import (
	"encoding/json"
	"fmt"
)

// FormatVersion is the CloudFormation template format version.
const FormatVersion = "2010-09-09"

// Template is the top-level CloudFormation document. Maps serialize with
// sorted keys, so rendering the same Builder twice yields identical bytes.
type Template struct {
	AWSTemplateFormatVersion string                    `json:"AWSTemplateFormatVersion"`
	Mappings                 map[string]map[string]any `json:"Mappings,omitempty"`
	Outputs                  map[string]Output         `json:"Outputs"`
	Parameters               map[string]Parameter      `json:"Parameters"`
	Resources                map[string]Resource       `json:"Resources"`
}

// NewTemplate returns an empty template with the standard format version.
func NewTemplate() *Template {
	return &Template{
		AWSTemplateFormatVersion: FormatVersion,
		Outputs:                  map[string]Output{},
		Parameters:               map[string]Parameter{},
		Resources:                map[string]Resource{},
	}
}

// JSON renders the template as indented JSON.
func (t *Template) JSON() ([]byte, error) {
	b, err := json.MarshalIndent(t, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal template: %w", err)
	}
	return append(b, '\n'), nil
}

// Parameter is a template parameter definition.
type Parameter struct {
	Type                  string   `json:"Type"`
	AllowedValues         []string `json:"AllowedValues,omitempty"`
	ConstraintDescription string   `json:"ConstraintDescription,omitempty"`
	Default               any      `json:"Default,omitempty"`
	Description           string   `json:"Description,omitempty"`
	MaxValue              *int     `json:"MaxValue,omitempty"`
	MinValue              *int     `json:"MinValue,omitempty"`
}

// Output is a template output definition.
type Output struct {
	Description string `json:"Description"`
	Value       any    `json:"Value"`
}

// Resource is a template resource definition.
type Resource struct {
	Type       string         `json:"Type"`
	Properties map[string]any `json:"Properties,omitempty"`
}

// Intrinsic function helpers. Each returns the serialized map form directly
// since the templates here never need lazy evaluation.

// Ref applies the Ref function to a logical name.
func Ref(name string) map[string]any {
	return map[string]any{"Ref": name}
}

// GetAtt applies Fn::GetAtt on resource for attribute.
func GetAtt(resource, attribute string) map[string]any {
	return map[string]any{"Fn::GetAtt": []any{resource, attribute}}
}

// Join applies Fn::Join to args using separator.
func Join(separator string, args ...any) map[string]any {
	return map[string]any{"Fn::Join": []any{separator, args}}
}

// Base64 applies Fn::Base64 to a value.
func Base64(value any) map[string]any {
	return map[string]any{"Fn::Base64": value}
}

// FindInMap applies Fn::FindInMap for mapping/topKey/secondKey.
func FindInMap(mapping string, topKey, secondKey any) map[string]any {
	return map[string]any{"Fn::FindInMap": []any{mapping, topKey, secondKey}}
}

// IntPtr returns a pointer to the given int, for optional parameter bounds.
func IntPtr(i int) *int {
	return &i
}
