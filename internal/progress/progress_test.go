package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from   Step
		want   Step
		wantOK bool
	}{
		{StepTemplate, StepAIChat, true},
		{StepAIChat, StepContactInfo, true},
		{StepContactInfo, StepDocumentUpload, true},
		{StepDocumentUpload, StepVideoRecording, true},
		{StepVideoRecording, StepFinalReview, true},
		{StepFinalReview, StepCompletion, true},
		{StepCompletion, StepCompletion, false},
		{Step("bogus"), StepTemplate, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			got, ok := Next(tt.from)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestPrevious(t *testing.T) {
	got, ok := Previous(StepContactInfo)
	assert.True(t, ok)
	assert.Equal(t, StepAIChat, got)

	got, ok = Previous(StepTemplate)
	assert.False(t, ok)
	assert.Equal(t, StepTemplate, got)
}

func TestWalkReachesCompletion(t *testing.T) {
	s := First()
	visited := []Step{s}
	for !s.Terminal() {
		var ok bool
		s, ok = Next(s)
		require.True(t, ok)
		visited = append(visited, s)
	}
	assert.Equal(t, Steps(), visited)
}

func TestParse(t *testing.T) {
	s, err := Parse(" Document_Upload ")
	require.NoError(t, err)
	assert.Equal(t, StepDocumentUpload, s)

	_, err = Parse("review")
	assert.Error(t, err)
}

func TestResume(t *testing.T) {
	tests := []struct {
		name   string
		willID string
		stored Step
		found  bool
		want   Position
	}{
		{"no will id", "", StepFinalReview, false, Position{Step: StepTemplate, Redirect: true}},
		{"will not found", "w1", "", false, Position{Step: StepTemplate, Redirect: true}},
		{"corrupt step", "w1", Step("nope"), true, Position{WillID: "w1", Step: StepTemplate, Redirect: true}},
		{"resumes stored step", "w1", StepContactInfo, true, Position{WillID: "w1", Step: StepContactInfo}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resume(tt.willID, tt.stored, tt.found))
		})
	}
}
