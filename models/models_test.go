package models

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunError_WrapsAndDetails(t *testing.T) {
	err := NewRunError(ErrCodeNavigationTimeout, "navigate to https://x", context.DeadlineExceeded)
	wrapped := fmt.Errorf("item a: %w", err)

	assert.True(t, errors.Is(wrapped, context.DeadlineExceeded))
	assert.Equal(t, ErrCodeNavigationTimeout, CodeOf(wrapped))
	assert.Equal(t, "NAVIGATION_TIMEOUT: navigate to https://x: context deadline exceeded", err.Error())

	d := AsRunError(wrapped).ToDetail()
	assert.Equal(t, ErrCodeNavigationTimeout, d.Code)
	assert.Equal(t, "navigate to https://x: context deadline exceeded", d.Message)
}

func TestAsRunError_Foreign(t *testing.T) {
	re := AsRunError(errors.New("boom"))
	assert.Equal(t, ErrCodeInternal, re.Code)
	assert.Contains(t, re.ToDetail().Message, "boom")
	assert.Empty(t, CodeOf(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(NewRunError(ErrCodeLaunch, "launch", nil)))
	assert.True(t, IsFatal(NewRunError(ErrCodeAborted, "no capacity", nil)))
	assert.True(t, IsFatal(fmt.Errorf("run: %w", NewRunError(ErrCodeAborted, "no capacity", nil))))
	assert.False(t, IsFatal(NewRunError(ErrCodeResourceExhausted, "limit", nil)))
	assert.False(t, IsFatal(NewRunError(ErrCodeCanceled, "interrupted", nil)))
	assert.False(t, IsFatal(errors.New("x")))
}

func TestWorkItem_Defaults(t *testing.T) {
	item := WorkItem{Operation: OpScreenshot, Viewport: &Viewport{Width: 390, Height: 844}}
	item.Defaults()

	assert.Equal(t, WaitNetworkIdle, item.WaitCondition)
	assert.Equal(t, 1.0, item.Viewport.ScaleFactor)
	assert.True(t, item.CaptureFullPage())
	assert.Zero(t, item.TimeoutMs)

	meta := WorkItem{Operation: OpExtractMetaImage}
	meta.Defaults()
	assert.Nil(t, meta.FullPage)
}

func TestResultSet_Summarize(t *testing.T) {
	rs := ResultSet{
		{Success: true, Result: &MetadataResult{}},
		{Result: &ValidationResult{HTTPStatus: 200}},
		{Error: &ErrorDetail{Code: ErrCodeNavigation}},
	}
	require.True(t, rs[1].Rejected())
	require.False(t, rs[2].Rejected())

	assert.Equal(t, Summary{Total: 3, Passed: 1, Failed: 2, Rejected: 1}, rs.Summarize())
	assert.False(t, rs.AllPassed())
	assert.True(t, ResultSet{}.AllPassed())
}

func TestValidationResult_Acceptable(t *testing.T) {
	assert.True(t, ValidationResult{HTTPStatus: 200, HasContent: true}.Acceptable())
	assert.False(t, ValidationResult{HTTPStatus: 200}.Acceptable())
	assert.False(t, ValidationResult{HTTPStatus: 302, HasContent: true}.Acceptable())
}
