package usecase

import (
	"bytes"
	"context"

	"github.com/stretchr/testify/mock"
)

// MockQueryEngine use for unit tests
type MockQueryEngine struct {
	mock.Mock
}

func (m *MockQueryEngine) RunQuery(ctx context.Context, query string) ([][]string, error) {
	args := m.Called(query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]string), args.Error(1)
}

// MockObjectStore use for unit tests
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) Publish(ctx context.Context, key string, body *bytes.Buffer) error {
	args := m.Called(key, body)
	return args.Error(0)
}

func (m *MockObjectStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
