package model

import (
	"errors"
	"fmt"
	"strings"
)

// Role selects which half of the assistant a user sees.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleSenior  Role = "SENIOR"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleSenior
}

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOther  Gender = "OTHER"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// EducationLevel applies to students only.
type EducationLevel string

const (
	EducationSchool  EducationLevel = "SCHOOL"
	EducationCollege EducationLevel = "COLLEGE"
)

// SeniorStatus applies to seniors only.
type SeniorStatus string

const (
	SeniorEmployed   SeniorStatus = "EMPLOYED"
	SeniorUnemployed SeniorStatus = "UNEMPLOYED"
)

// ErrIncompleteProfile is returned when a profile lacks the fields required to log in.
var ErrIncompleteProfile = errors.New("profile is incomplete")

// UserProfile is the locally stored identity of the single user.
type UserProfile struct {
	Name           string         `json:"name"`
	Age            int            `json:"age"`
	Mobile         string         `json:"mobile"`
	Email          string         `json:"email"`
	Gender         Gender         `json:"gender"`
	Role           Role           `json:"role"`
	EducationLevel EducationLevel `json:"educationLevel,omitempty"`
	SeniorStatus   SeniorStatus   `json:"seniorStatus,omitempty"`
}

// Complete reports whether name, email and age are present.
func (p UserProfile) Complete() bool {
	return strings.TrimSpace(p.Name) != "" && strings.TrimSpace(p.Email) != "" && p.Age > 0
}

// Validate checks completeness and enum membership. The attribute that does
// not belong to the role is ignored rather than rejected.
func (p UserProfile) Validate() error {
	if !p.Complete() {
		return fmt.Errorf("%w: name, email and age are required", ErrIncompleteProfile)
	}
	if !p.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrIncompleteProfile, p.Role)
	}
	if p.Gender != "" && !p.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrIncompleteProfile, p.Gender)
	}
	switch p.Role {
	case RoleStudent:
		if p.EducationLevel != "" && p.EducationLevel != EducationSchool && p.EducationLevel != EducationCollege {
			return fmt.Errorf("%w: unknown education level %q", ErrIncompleteProfile, p.EducationLevel)
		}
	case RoleSenior:
		if p.SeniorStatus != "" && p.SeniorStatus != SeniorEmployed && p.SeniorStatus != SeniorUnemployed {
			return fmt.Errorf("%w: unknown senior status %q", ErrIncompleteProfile, p.SeniorStatus)
		}
	}
	return nil
}

// Normalized drops the role-specific attribute that does not apply to the role.
func (p UserProfile) Normalized() UserProfile {
	switch p.Role {
	case RoleStudent:
		p.SeniorStatus = ""
	case RoleSenior:
		p.EducationLevel = ""
	}
	return p
}
