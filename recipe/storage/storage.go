package storage

import (
	"context"
	"errors"
)

// FoodTableState loads the raw JSON food table.
type FoodTableState interface {
	Load(ctx context.Context) ([]byte, error)
}

// TestFoodTableState is a simple in-memory implementation for testing
type TestFoodTableState struct {
	data []byte
	err  error
}

func NewTestFoodTableState(data []byte) *TestFoodTableState {
	return &TestFoodTableState{data: data}
}

func NewTestFoodTableStateWithError() *TestFoodTableState {
	return &TestFoodTableState{err: errors.New("not found")}
}

func (t *TestFoodTableState) Load(ctx context.Context) ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	return t.data, nil
}
