package pdf

import (
	"context"

	"go.uber.org/fx"
)

// Provider renders printable documents.
type Provider interface {
	GenerateReceipt(ctx context.Context, data ReceiptData) ([]byte, error)
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

var Module = fx.Module("pdf.provider",
	fx.Provide(New),
)
