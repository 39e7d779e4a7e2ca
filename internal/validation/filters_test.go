package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-match-go/internal/types"
)

func TestValidLocation(t *testing.T) {
	for _, ok := range []string{"Austin, TX", "Hartford, CT", "Remote", "Berlin, Germany", "Bay Area", "NYC"} {
		assert.True(t, ValidLocation(ok), ok)
	}
	for _, bad := range []string{"", "Computer Science", "AWS Certified", "Springfield", "Python Developer"} {
		assert.False(t, ValidLocation(bad), bad)
	}
}

func TestValidPosition(t *testing.T) {
	for _, ok := range []string{"Software Engineer", "Senior Go Developer", "Consultant", "Site Reliability Engineer"} {
		assert.True(t, ValidPosition(ok), ok)
	}
	for _, bad := range []string{"", "Bachelor of Science", "Cook", "Resume Writing"} {
		assert.False(t, ValidPosition(bad), bad)
	}
}

func TestValidSkill(t *testing.T) {
	for _, ok := range []string{"Python", "Go", "Node.js", "Kubernetes"} {
		assert.True(t, ValidSkill(ok), ok)
	}
	for _, bad := range []string{"", "Phone", "Work Experience", "Online Course"} {
		assert.False(t, ValidSkill(bad), bad)
	}
}

func TestValidateFiltersUnknownEntriesSilently(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FilterUnknown = true
	v := NewValidator(cfg)
	form := johnDoeForm()
	form.JobPreferences.PreferredLocations = []string{"Computer Science", "Austin, TX", "austin, tx"}
	form.JobPreferences.Skills = []string{"Python", "Email", "Go"}

	res := v.Validate(form)

	assert.True(t, res.OK, res.Errors)
	assert.Equal(t, []string{"Austin, TX"}, res.Form.JobPreferences.PreferredLocations)
	assert.Equal(t, []string{"Python", "Go"}, res.Form.JobPreferences.Skills)
}

func TestValidateDefaultKeepsUnknownEntries(t *testing.T) {
	v := NewValidator(DefaultConfig())
	form := types.FormSubmission{
		PersonalDetails: types.PersonalDetails{FullName: "Jane Roe"},
		JobPreferences: types.JobPreferences{
			PreferredLocations: []string{"Springfield"},
			TargetPositions:    []string{"Cook"},
		},
		ResumeText: "experience and education",
	}

	res := v.Validate(form)

	assert.True(t, res.OK, res.Errors)
	assert.Equal(t, []string{"Springfield"}, res.Form.JobPreferences.PreferredLocations)
}
