package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reelforge/internal/analyze"
)

// MockAIClient is a mock type for the analyze.AIClient type
type MockAIClient struct {
	mock.Mock
}

// GenerateText provides a mock function with given fields: ctx, systemPrompt, userInput
func (_m *MockAIClient) GenerateText(ctx context.Context, systemPrompt string, userInput string) (string, analyze.Usage, error) {
	ret := _m.Called(ctx, systemPrompt, userInput)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, string) string); ok {
		r0 = rf(ctx, systemPrompt, userInput)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 analyze.Usage
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(analyze.Usage)
	}

	return r0, r1, ret.Error(2)
}

// NewMockAIClient creates a new instance of MockAIClient and registers the
// testing interface on the mock.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ analyze.AIClient = (*MockAIClient)(nil)
