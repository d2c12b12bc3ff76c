package runner

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/use-agent/pagecheck/models"
)

func TestClassify(t *testing.T) {
	item := models.WorkItem{Label: "x", Target: "https://example.com", Operation: models.OpValidateContent}

	tests := []struct {
		name        string
		result      models.OperationResult
		err         error
		wantSuccess bool
		wantCode    string
		wantResult  bool
	}{
		{
			name:        "accepted page",
			result:      &models.ValidationResult{HTTPStatus: 200, HasContent: true},
			wantSuccess: true,
			wantResult:  true,
		},
		{
			name:       "200 without content is rejected",
			result:     &models.ValidationResult{HTTPStatus: 200, HasContent: false},
			wantResult: true,
		},
		{
			name:       "content behind 404 is rejected",
			result:     &models.ValidationResult{HTTPStatus: 404, HasContent: true},
			wantResult: true,
		},
		{
			name:        "value validation result",
			result:      models.ValidationResult{HTTPStatus: 200, HasContent: true},
			wantSuccess: true,
			wantResult:  true,
		},
		{
			name:        "meta image absent is still success",
			result:      &models.MetadataResult{},
			wantSuccess: true,
			wantResult:  true,
		},
		{
			name:        "screenshot",
			result:      &models.ScreenshotResult{Path: "a.png", Width: 10, Height: 10},
			wantSuccess: true,
			wantResult:  true,
		},
		{
			name:     "typed error",
			err:      models.NewRunError(models.ErrCodeNavigationTimeout, "navigate", errors.New("deadline")),
			wantCode: models.ErrCodeNavigationTimeout,
		},
		{
			name:     "foreign error",
			err:      errors.New("boom"),
			wantCode: models.ErrCodeInternal,
		},
		{
			name:     "error wins over result",
			result:   &models.MetadataResult{},
			err:      models.NewRunError(models.ErrCodeOperation, "read html", nil),
			wantCode: models.ErrCodeOperation,
		},
		{
			name:     "nothing at all",
			wantCode: models.ErrCodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(item, tt.result, tt.err)

			assert.Equal(t, "x", out.Label)
			assert.Equal(t, models.OpValidateContent, out.Operation)
			assert.Equal(t, tt.wantSuccess, out.Success)
			assert.Equal(t, tt.wantResult, out.Result != nil)
			if tt.wantCode == "" {
				assert.Nil(t, out.Error)
			} else if assert.NotNil(t, out.Error) {
				assert.Equal(t, tt.wantCode, out.Error.Code)
			}
			if out.Success {
				assert.Nil(t, out.Error)
			}
		})
	}
}

func TestClassify_PreservesDiagnostic(t *testing.T) {
	err := models.NewRunError(models.ErrCodeNavigation, "navigate to https://x", errors.New("net::ERR_CERT_DATE_INVALID"))
	out := Classify(models.WorkItem{Label: "x"}, nil, err)
	assert.Contains(t, out.Error.Message, "ERR_CERT_DATE_INVALID")
	assert.False(t, out.Rejected())
}
