package model

import "encoding/json"

// InfoSet is a facts / arguments / problems triple used inside MergedInfo.
//
// When decoding JSON, the extraction vocabulary (key_facts, key_arguments)
// is accepted as an alias for facts and arguments. A model that answers
// with the field names it was shown in the prompt still fits the contract.
type InfoSet struct {
	Facts     []string `json:"facts"`
	Arguments []string `json:"arguments"`
	Problems  []string `json:"problems"`
}

// InfoSetFromFindings copies f into an InfoSet, field by field.
func InfoSetFromFindings(f Findings) InfoSet {
	return InfoSet{
		Facts:     f.KeyFacts,
		Arguments: f.KeyArguments,
		Problems:  f.Problems,
	}.Normalize()
}

// Normalize returns a copy of s in which every list is non-nil.
func (s InfoSet) Normalize() InfoSet {
	return InfoSet{
		Facts:     nonNil(s.Facts),
		Arguments: nonNil(s.Arguments),
		Problems:  nonNil(s.Problems),
	}
}

// IsEmpty reports whether s carries no items at all.
func (s InfoSet) IsEmpty() bool {
	return len(s.Facts) == 0 && len(s.Arguments) == 0 && len(s.Problems) == 0
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *InfoSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		Facts        []string `json:"facts"`
		Arguments    []string `json:"arguments"`
		Problems     []string `json:"problems"`
		KeyFacts     []string `json:"key_facts"`
		KeyArguments []string `json:"key_arguments"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Facts = raw.Facts
	if s.Facts == nil {
		s.Facts = raw.KeyFacts
	}
	s.Arguments = raw.Arguments
	if s.Arguments == nil {
		s.Arguments = raw.KeyArguments
	}
	s.Problems = raw.Problems
	return nil
}

// MergedInfo is the consolidated view over all extraction records.
type MergedInfo struct {
	// CommonInfo holds information shared by, or consolidated from, all pages.
	CommonInfo InfoSet `json:"common_info"`

	// UniqueInfo holds information that only some pages contribute.
	UniqueInfo InfoSet `json:"unique_info"`

	// Themes are short labels for the topics the pages cover.
	Themes []string `json:"themes"`
}

// Normalize returns a copy of m in which every list is non-nil.
func (m MergedInfo) Normalize() MergedInfo {
	return MergedInfo{
		CommonInfo: m.CommonInfo.Normalize(),
		UniqueInfo: m.UniqueInfo.Normalize(),
		Themes:     nonNil(m.Themes),
	}
}

// IsEmpty reports whether m carries nothing a planner could use.
func (m MergedInfo) IsEmpty() bool {
	return m.CommonInfo.IsEmpty() && m.UniqueInfo.IsEmpty() && len(m.Themes) == 0
}
