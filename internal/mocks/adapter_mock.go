package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"reelforge/internal/pricing"
	"reelforge/internal/provider"
)

// MockAdapter is a mock type for the provider.Adapter type
type MockAdapter struct {
	mock.Mock

	AdapterName string
	AdapterSpec pricing.ProviderSpec
}

func (_m *MockAdapter) Name() string { return _m.AdapterName }

func (_m *MockAdapter) Spec() pricing.ProviderSpec { return _m.AdapterSpec }

func (_m *MockAdapter) EstimateCost(durationSec int, model string) float64 {
	return pricing.Cost(_m.AdapterSpec.Model(model).RatePerSec, durationSec)
}

// Submit provides a mock function with given fields: ctx, req
func (_m *MockAdapter) Submit(ctx context.Context, req provider.SubmitRequest) (provider.Submission, error) {
	ret := _m.Called(ctx, req)

	var r0 provider.Submission
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(provider.Submission)
	}
	return r0, ret.Error(1)
}

// Poll provides a mock function with given fields: ctx, jobID
func (_m *MockAdapter) Poll(ctx context.Context, jobID string) (provider.PollResult, error) {
	ret := _m.Called(ctx, jobID)

	var r0 provider.PollResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(provider.PollResult)
	}
	return r0, ret.Error(1)
}

// NewMockAdapter creates a new instance of MockAdapter and registers the
// testing interface on the mock.
func NewMockAdapter(t interface {
	mock.TestingT
	Helper()
}, name string) *MockAdapter {
	spec, _ := pricing.Lookup(name)
	m := &MockAdapter{AdapterName: name, AdapterSpec: spec}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ provider.Adapter = (*MockAdapter)(nil)
