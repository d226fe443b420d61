package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dealflow-ai/internal/cards"
)

// Profile is one enriched profile record from the profiles dataset.
type Profile struct {
	LinkedInUsername     string      `json:"linkedin_username"`
	LinkedInURL          string      `json:"linkedin_url"`
	TotalExperienceYears float64     `json:"total_experience_years"`
	ProfileData          ProfileData `json:"profile_data"`
}

// ProfileData holds the nested profile payload.
type ProfileData struct {
	Name                string      `json:"name"`
	Title               string      `json:"title"`
	Location            string      `json:"location"`
	CurrentEmployers    []Employer  `json:"current_employers"`
	PastEmployers       []Employer  `json:"past_employers"`
	EducationBackground []Education `json:"education_background"`
}

// Employer is one employment entry on a profile.
type Employer struct {
	EmployerName  string `json:"employer_name"`
	EmployeeTitle string `json:"employee_title"`
}

// Education is one education entry on a profile.
type Education struct {
	DegreeName    string `json:"degree_name"`
	FieldOfStudy  string `json:"field_of_study"`
	InstituteName string `json:"institute_name"`
}

// ProfileLoader reads the enriched profiles dataset from disk, caching the parsed result.
type ProfileLoader struct {
	path string

	mu     sync.Mutex
	cached []Profile
}

// NewProfileLoader creates a loader for enriched_profiles.json inside dataDir.
func NewProfileLoader(dataDir string) *ProfileLoader {
	return &ProfileLoader{path: filepath.Join(dataDir, "enriched_profiles.json")}
}

type profilesFile struct {
	Results []Profile `json:"results"`
}

// Load returns the profiles dataset, reading the file only on first call.
func (l *ProfileLoader) Load() ([]Profile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil {
		return l.cached, nil
	}

	raw, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file %s: %w", l.path, err)
	}

	var file profilesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("invalid JSON in profiles file: %w", err)
	}

	l.cached = file.Results
	return l.cached, nil
}

// Clear drops the cached dataset so the next Load rereads the file.
func (l *ProfileLoader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
}

// RecentEducation formats the most recent education entry, or "" when none exists.
func RecentEducation(p Profile) string {
	edu := p.ProfileData.EducationBackground
	if len(edu) == 0 {
		return ""
	}
	recent := edu[len(edu)-1]

	var parts []string
	if recent.DegreeName != "" {
		parts = append(parts, recent.DegreeName)
	}
	if recent.FieldOfStudy != "" {
		parts = append(parts, recent.FieldOfStudy)
	}
	if recent.InstituteName != "" {
		parts = append(parts, "@ "+recent.InstituteName)
	}
	return strings.Join(parts, ", ")
}

// CompanyInfo returns the company and designation for a profile, preferring the
// current employer, then the most recent past employer, then the bare title.
func CompanyInfo(p Profile) (company, designation string) {
	data := p.ProfileData
	if len(data.CurrentEmployers) > 0 {
		emp := data.CurrentEmployers[0]
		designation = emp.EmployeeTitle
		if designation == "" {
			designation = data.Title
		}
		return emp.EmployerName, designation
	}
	if len(data.PastEmployers) > 0 {
		emp := data.PastEmployers[0]
		designation = emp.EmployeeTitle
		if designation == "" {
			designation = data.Title
		}
		return emp.EmployerName, designation
	}
	return "", data.Title
}

// PersonFromProfile converts a profile into a person card. The second return is false
// when the profile has no usable name or LinkedIn username.
func PersonFromProfile(p Profile) (cards.Person, bool) {
	name := strings.TrimSpace(p.ProfileData.Name)
	if name == "" || name == "Unknown" {
		return cards.Person{}, false
	}
	if p.LinkedInUsername == "" {
		return cards.Person{}, false
	}

	company, designation := CompanyInfo(p)
	url := p.LinkedInURL
	if url == "" {
		url = "https://linkedin.com/in/" + p.LinkedInUsername
	}

	return cards.Person{
		ID:              "person_" + p.LinkedInUsername,
		Name:            name,
		Designation:     designation,
		Company:         company,
		LinkedInID:      p.LinkedInUsername,
		LinkedInURL:     url,
		Education:       RecentEducation(p),
		ExperienceYears: p.TotalExperienceYears,
		Location:        p.ProfileData.Location,
		CardType:        cards.TypePerson,
	}, true
}
