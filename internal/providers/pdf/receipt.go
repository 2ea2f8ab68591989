package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/divan/num2words"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

// ReceiptData is pre-formatted; the renderer does no arithmetic.
type ReceiptData struct {
	StudioName    string
	InvoiceNumber string
	IssueDate     string
	Status        string

	BillToName  string
	BillToEmail string

	Items    []ReceiptItem
	Payments []ReceiptPayment

	Subtotal string
	Discount string
	Tax      string
	Total    string
	Paid     string
	Balance  string

	LatestOnlineAmount string
	LatestOnlineWords  string
}

type ReceiptItem struct {
	Description string
	Qty         int64
	UnitPrice   string
	Amount      string
}

type ReceiptPayment struct {
	Date   string
	Method string
	Amount string
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(6, "Payment receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(6, receipt.StudioName, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Invoice number: "+receipt.InvoiceNumber, props.Text{Top: 0}),
			text.New("Issued: "+receipt.IssueDate, props.Text{Top: 4}),
			text.New("Status: "+receipt.Status, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.BillToName, props.Text{Top: 5}),
			text.New(receipt.BillToEmail, props.Text{Top: 9}),
		),
	)

	if receipt.LatestOnlineAmount != "" {
		m.AddRow(15,
			text.NewCol(12, receipt.LatestOnlineAmount+" received online", props.Text{
				Size:  14,
				Style: fontstyle.Bold,
				Top:   5,
			}),
		)
		m.AddRow(8,
			text.NewCol(12, receipt.LatestOnlineWords, props.Text{Size: 9, Style: fontstyle.Italic}),
		)
	}

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	for _, item := range receipt.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Qty), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}
	m.AddRow(4, line.NewCol(12))

	totals := [][2]string{
		{"Subtotal", receipt.Subtotal},
		{"Discount", receipt.Discount},
		{"Tax", receipt.Tax},
		{"Total", receipt.Total},
		{"Paid", receipt.Paid},
		{"Balance due", receipt.Balance},
	}
	for _, row := range totals {
		m.AddRow(7,
			col.New(8),
			text.NewCol(2, row[0], props.Text{Size: 9}),
			text.NewCol(2, row[1], props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		text.NewCol(12, "Payments", props.Text{Style: fontstyle.Bold, Size: 10, Top: 4}),
	)
	for _, payment := range receipt.Payments {
		m.AddRow(7,
			text.NewCol(4, payment.Date, props.Text{Size: 9}),
			text.NewCol(4, payment.Method, props.Text{Size: 9}),
			text.NewCol(4, payment.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// AmountInWords spells the whole units and writes cents as a fraction,
// e.g. "One hundred and 05/100 USD".
func AmountInWords(amount decimal.Decimal, currency string) string {
	amount = amount.Abs().Round(2)
	whole := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(whole)).Shift(2).IntPart()

	words := num2words.Convert(int(whole))
	if words != "" {
		words = strings.ToUpper(words[:1]) + words[1:]
	}
	out := fmt.Sprintf("%s and %02d/100", words, cents)
	if currency = strings.ToUpper(strings.TrimSpace(currency)); currency != "" {
		out += " " + currency
	}
	return out
}
