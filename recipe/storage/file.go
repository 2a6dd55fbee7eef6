package storage

import (
	"context"
	"os"
)

type FileFoodTableState struct {
	FilePath string
}

func NewFileFoodTableState(filePath string) *FileFoodTableState {
	return &FileFoodTableState{FilePath: filePath}
}

func (f *FileFoodTableState) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(f.FilePath)
}
