package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/crm-dashboard-api/internal/dto"
)

func validClassForm() dto.ClassReportForm {
	return dto.ClassReportForm{
		Date:     "2024-05-02",
		Batch:    "IELTS-B12",
		Topics:   "Reading",
		Present:  18,
		Absent:   2,
		Progress: "Good",
	}
}

func TestValidatorAcceptsCompleteClassForm(t *testing.T) {
	require.NoError(t, NewValidator().Struct(validClassForm()))
}

func TestValidatorRejectsPlaceholderSelection(t *testing.T) {
	form := validClassForm()
	form.Progress = dto.PlaceholderOption

	err := NewValidator().Struct(form)
	require.Error(t, err)
	assert.Contains(t, validationMessage(err), "progress")
}

func TestValidatorRejectsUnknownOption(t *testing.T) {
	form := validClassForm()
	form.Progress = "Stellar"
	assert.Error(t, NewValidator().Struct(form))
}

func TestValidatorRejectsBlankRequired(t *testing.T) {
	form := validClassForm()
	form.Topics = "   "
	assert.Error(t, NewValidator().Struct(form))
}

func TestValidatorRejectsBadDateAndNegativeCounts(t *testing.T) {
	form := validClassForm()
	form.Date = "02/05/2024"
	assert.Error(t, NewValidator().Struct(form))

	form = validClassForm()
	form.Present = -1
	assert.Error(t, NewValidator().Struct(form))
}

func TestValidatorCaseProgressOptionalDate(t *testing.T) {
	form := dto.CaseProgressForm{CaseID: "case-1", Stage: "Visa", Update: "Filed"}
	require.NoError(t, NewValidator().Struct(form))

	form.FollowUpDate = "tomorrow"
	assert.Error(t, NewValidator().Struct(form))
}

func TestValidatorStudentPerformanceRating(t *testing.T) {
	form := dto.StudentPerformanceForm{
		StudentID:    "s-1",
		Batch:        "B12",
		Rating:       "Needs Improvement",
		Strengths:    "Listening",
		Improvements: "Writing",
	}
	require.NoError(t, NewValidator().Struct(form))

	form.Rating = "Poor"
	assert.Error(t, NewValidator().Struct(form))
}

func TestInvalidFieldsUseJSONNames(t *testing.T) {
	form := dto.StudentPerformanceForm{StudentID: "S-1", Batch: "B-1", Rating: "Good", Strengths: "Speaking"}

	err := NewValidator().Struct(form)
	require.Error(t, err)
	assert.Equal(t, []string{"improvements"}, invalidFields(err))
	assert.Nil(t, invalidFields(nil))
}
