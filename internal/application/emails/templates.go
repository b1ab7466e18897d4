package emails

import (
	"bytes"
	"encoding/json"
	"html/template"
	"strings"
	"time"

	"wardrobe-backend/internal/domain"

	"github.com/shopspring/decimal"
)

var layout = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Wardrobe</title>
  <style>
    body { margin: 0; padding: 0; background-color: #F5F3EF; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: #1F2937; }
    .card { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; padding: 40px 48px; }
    h1 { font-size: 22px; margin: 0 0 20px 0; }
    p { font-size: 16px; line-height: 1.6; margin: 0 0 20px 0; }
    table.items { width: 100%; border-collapse: collapse; margin-bottom: 24px; }
    table.items td { padding: 8px 0; border-bottom: 1px solid #E5E7EB; font-size: 15px; }
    td.amount { text-align: right; }
    .footer { color: #6B7280; font-size: 13px; text-align: center; margin-top: 32px; }
  </style>
</head>
<body>
  <div class="card">
    {{template "content" .}}
    <div class="footer">Need help? Contact <a href="mailto:support@wardrobe.app">support@wardrobe.app</a><br>&copy; {{.Year}} Wardrobe</div>
  </div>
</body>
</html>`))

var orderConfirmation = template.Must(template.Must(layout.Clone()).New("content").Parse(`
    <h1>Thanks for your order, {{.Name}}!</h1>
    <p>Your payment went through and the sellers have been told. Order reference: <strong>{{.Reference}}</strong>.</p>
    <table class="items">
      {{range .Items}}<tr><td>{{.Quantity}} &times; item {{.Ref}}</td><td class="amount">{{.Subtotal}} {{$.Currency}}</td></tr>
      {{end}}<tr><td><strong>Total</strong></td><td class="amount"><strong>{{.Total}} {{.Currency}}</strong></td></tr>
    </table>
    {{with .Shipping}}<p>Shipping to {{.Name}}, {{.AddressLine1}}, {{.City}} {{.PostalCode}}, {{.Country}}.</p>{{end}}
`))

type orderLine struct {
	Ref      string
	Quantity int
	Subtotal string
}

type orderView struct {
	Year      int
	Name      string
	Reference string
	Currency  string
	Total     string
	Items     []orderLine
	Shipping  *domain.ShippingDetails
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func renderOrderConfirmation(name string, order *domain.Order) (string, error) {
	if name == "" {
		name = "there"
	}
	v := orderView{
		Year:      time.Now().Year(),
		Name:      name,
		Reference: strings.ToUpper(order.ID.String()[:8]),
		Currency:  strings.ToUpper(order.Currency),
		Total:     money(order.TotalAmount),
	}
	for _, it := range order.Items {
		v.Items = append(v.Items, orderLine{Ref: it.ListingID.String()[:8], Quantity: it.Quantity, Subtotal: money(it.Subtotal)})
	}
	if len(order.ShippingDetails) > 0 {
		var s domain.ShippingDetails
		if err := json.Unmarshal(order.ShippingDetails, &s); err == nil {
			v.Shipping = &s
		}
	}
	var buf bytes.Buffer
	if err := orderConfirmation.ExecuteTemplate(&buf, "layout", v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
