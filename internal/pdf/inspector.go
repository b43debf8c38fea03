// Package pdf inspects uploaded documents.
package pdf

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"go.uber.org/zap"
)

// FileFetcher downloads a document by its transport file id.
type FileFetcher interface {
	FetchFile(ctx context.Context, fileID string) ([]byte, error)
}

// Inspector counts pages of uploaded PDFs. It satisfies the order service's
// FileInspector contract.
type Inspector struct {
	fetcher FileFetcher
	logger  *zap.Logger
}

func NewInspector(fetcher FileFetcher, logger *zap.Logger) *Inspector {
	return &Inspector{fetcher: fetcher, logger: logger}
}

func (i *Inspector) PageCount(ctx context.Context, fileID string) (int, error) {
	data, err := i.fetcher.FetchFile(ctx, fileID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch file: %w", err)
	}

	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}

	i.logger.Debug("Inspected document",
		zap.String("file_id", fileID),
		zap.Int("pages", count))
	return count, nil
}
