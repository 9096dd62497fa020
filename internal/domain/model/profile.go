package model

import (
	"fmt"
	"strings"

	"jdcrawler-dashboard/internal/domain"
)

type SkillLevel string

const (
	LevelBeginner     SkillLevel = "Beginner"
	LevelIntermediate SkillLevel = "Intermediate"
	LevelAdvanced     SkillLevel = "Advanced"
	LevelExpert       SkillLevel = "Expert"
)

func (l SkillLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced, LevelExpert:
		return true
	}
	return false
}

type TechSkill struct {
	Name        string     `json:"name"`
	Level       SkillLevel `json:"level"`
	Description *string    `json:"description,omitempty"`
}

type UserProfile struct {
	TechStack        []TechSkill `json:"tech_stack"`
	ExperienceYears  int         `json:"experience_years"`
	InterestKeywords []string    `json:"interest_keywords"`
	ExcludeKeywords  []string    `json:"exclude_keywords"`
	UpdatedAt        Timestamp   `json:"updated_at"`
}

// ProfileUpdate replaces the whole profile; there is no partial update.
type ProfileUpdate struct {
	TechStack        []TechSkill `json:"tech_stack"`
	ExperienceYears  int         `json:"experience_years"`
	InterestKeywords []string    `json:"interest_keywords"`
	ExcludeKeywords  []string    `json:"exclude_keywords"`
}

// Clean drops unnamed skills and blank keywords, then validates what is left.
func (u ProfileUpdate) Clean() (ProfileUpdate, error) {
	out := ProfileUpdate{
		TechStack:        make([]TechSkill, 0, len(u.TechStack)),
		ExperienceYears:  u.ExperienceYears,
		InterestKeywords: cleanList(u.InterestKeywords),
		ExcludeKeywords:  cleanList(u.ExcludeKeywords),
	}
	if u.ExperienceYears < 0 {
		return ProfileUpdate{}, fmt.Errorf("%w: experience_years must be non-negative", domain.ErrInvalidArgument)
	}
	for _, s := range u.TechStack {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		if !s.Level.Valid() {
			return ProfileUpdate{}, fmt.Errorf("%w: skill %q has unknown level %q", domain.ErrInvalidArgument, s.Name, s.Level)
		}
		out.TechStack = append(out.TechStack, s)
	}
	return out, nil
}

// SplitKeywords parses a comma separated input field.
func SplitKeywords(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
