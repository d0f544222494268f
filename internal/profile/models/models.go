// Package models defines the onboarding profile and consent records plus
// the fixed form vocabularies.
package models

import (
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	dErrors "gomunity/pkg/domain-errors"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// AgeGroup is one of the five fixed brackets offered on the signup form.
type AgeGroup string

const (
	AgeUnder20 AgeGroup = "20대_미만"
	Age20s     AgeGroup = "20대"
	Age30s     AgeGroup = "30대"
	Age40s     AgeGroup = "40대"
	Age50Plus  AgeGroup = "50대_이상"
)

// InterestCategories is the fixed vocabulary interests are drawn from.
var InterestCategories = []string{
	"반려동물", "육아", "건강", "뷰티", "패션",
	"홈리빙", "운동", "요리", "취미", "테크",
	"여행", "교육", "기타",
}

var interestSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(InterestCategories))
	for _, c := range InterestCategories {
		m[c] = struct{}{}
	}
	return m
}()

// Profile is one-to-one with a user, created exactly once at onboarding.
// There is no update path.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Nickname  string    `json:"nickname"`
	Gender    Gender    `json:"gender"`
	AgeGroup  AgeGroup  `json:"age_group"`
	Interests []string  `json:"interests"`
	CreatedAt time.Time `json:"created_at"`
}

// Consent is written alongside the profile. Both flags must be true to
// submit the form.
type Consent struct {
	UserID                   uuid.UUID `json:"user_id"`
	ContentVisibilityConsent bool      `json:"content_visibility_consent"`
	RecommendationConsent    bool      `json:"recommendation_consent"`
	CreatedAt                time.Time `json:"created_at"`
}

// CreateProfileRequest is the onboarding form submission.
type CreateProfileRequest struct {
	Nickname                 string   `json:"nickname"`
	Gender                   Gender   `json:"gender"`
	AgeGroup                 AgeGroup `json:"age_group"`
	Interests                []string `json:"interests"`
	ContentVisibilityConsent bool     `json:"content_visibility_consent"`
	RecommendationConsent    bool     `json:"recommendation_consent"`
}

// Validate checks every form rule before anything touches the network.
func (r CreateProfileRequest) Validate() error {
	if !govalidator.RuneLength(r.Nickname, "1", "50") {
		return dErrors.New(dErrors.CodeValidation, "nickname must be between 1 and 50 characters")
	}
	switch r.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return dErrors.New(dErrors.CodeValidation, "gender must be one of male, female, other")
	}
	switch r.AgeGroup {
	case AgeUnder20, Age20s, Age30s, Age40s, Age50Plus:
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown age group")
	}
	if len(r.Interests) == 0 {
		return dErrors.New(dErrors.CodeValidation, "select at least one interest")
	}
	seen := make(map[string]struct{}, len(r.Interests))
	for _, interest := range r.Interests {
		if _, ok := interestSet[interest]; !ok {
			return dErrors.New(dErrors.CodeValidation, "unknown interest category")
		}
		if _, dup := seen[interest]; dup {
			return dErrors.New(dErrors.CodeValidation, "duplicate interest category")
		}
		seen[interest] = struct{}{}
	}
	if !r.ContentVisibilityConsent || !r.RecommendationConsent {
		return dErrors.New(dErrors.CodeValidation, "both consents are required")
	}
	return nil
}
