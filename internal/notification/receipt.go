package notification

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

const (
	storeName      = "Solare"
	currencyPrefix = "R"
)

// メール1通分
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

type receiptRow struct {
	Name     string
	Quantity int64
	Price    string
	Subtotal string
}

type receiptData struct {
	Store   string
	OrderID string
	Rows    []receiptRow
	Total   string
}

var textReceipt = template.Must(template.New("receipt.txt").Parse(`Thank you for your order!
Order: {{.OrderID}}

{{range .Rows}}{{.Name}} x {{.Quantity}} @ {{.Price}} = {{.Subtotal}}
{{end}}
Total: {{.Total}}

{{.Store}}
`))

var htmlReceipt = htmltemplate.Must(htmltemplate.New("receipt.html").Parse(`<html>
<body style="font-family:Arial,sans-serif;">
<h2>{{.Store}}</h2>
<p>Thank you for your order! Here is your receipt:</p>
<p>Order: {{.OrderID}}</p>
<table style="border-collapse:collapse;width:100%;">
<tr>
<th style="padding:10px;border:1px solid #ddd;">Product</th>
<th style="padding:10px;border:1px solid #ddd;">Quantity</th>
<th style="padding:10px;border:1px solid #ddd;">Price</th>
<th style="padding:10px;border:1px solid #ddd;">Subtotal</th>
</tr>
{{range .Rows}}<tr>
<td style="padding:10px;border:1px solid #ddd;"><strong>{{.Name}}</strong></td>
<td style="padding:10px;border:1px solid #ddd;text-align:center;">{{.Quantity}}</td>
<td style="padding:10px;border:1px solid #ddd;text-align:right;">{{.Price}}</td>
<td style="padding:10px;border:1px solid #ddd;text-align:right;">{{.Subtotal}}</td>
</tr>
{{end}}</table>
<h3 style="text-align:right;">Total: {{.Total}}</h3>
</body>
</html>
`))

func amount(d decimal.Decimal) string {
	return currencyPrefix + d.StringFixed(2)
}

// レシートをメール本文にする（HTMLとテキスト）
func RenderReceipt(r model.Receipt) (Message, error) {
	data := receiptData{
		Store:   storeName,
		OrderID: r.OrderID,
		Total:   amount(r.Total),
	}
	for _, l := range r.Lines {
		data.Rows = append(data.Rows, receiptRow{
			Name:     l.Name,
			Quantity: l.Quantity,
			Price:    amount(l.UnitPrice),
			Subtotal: amount(l.Subtotal()),
		})
	}

	var text, html bytes.Buffer
	if err := textReceipt.Execute(&text, data); err != nil {
		return Message{}, err
	}
	if err := htmlReceipt.Execute(&html, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:       r.Email,
		Subject:  "Your Receipt from " + storeName,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}
