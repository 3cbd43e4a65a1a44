package messenger

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/iurnickita/printshop/internal/model"
	"github.com/iurnickita/printshop/internal/service/config"
)

// Запрос к шлюзу сообщений
type message struct {
	Phone string `json:"phone"`
	Text  string `json:"text"`
}

type Messenger interface {
	SendReceipt(ctx context.Context, receipt Receipt) error
}

type messenger struct {
	gatewayAddr string
	client      *resty.Client
}

// NewMessenger returns a client of the messaging gateway. With an empty address receipts are dropped.
func NewMessenger(gatewayAddr string) Messenger {
	return &messenger{
		gatewayAddr: strings.TrimRight(gatewayAddr, "/"),
		client:      resty.New().SetTimeout(10 * time.Second),
	}
}

func (m *messenger) SendReceipt(ctx context.Context, receipt Receipt) error {
	if m.gatewayAddr == "" {
		return nil
	}
	phone := NormalizePhone(receipt.Phone)
	if phone == "" {
		return ErrNoPhone
	}

	path := "/api/messages"

	setreq := m.client.R().SetContext(ctx)
	setreq.Method = http.MethodPost
	setreq.URL = m.gatewayAddr + path
	setreq.SetHeader("Content-Type", "application/json")
	setreq.SetBody(message{Phone: phone, Text: receipt.Text()})
	setresp, err := setreq.Send()
	if err != nil {
		return err
	}

	if setresp.IsSuccess() {
		return nil
	}
	return fmt.Errorf("messenger request status: %d", setresp.StatusCode())
}

// NormalizePhone keeps digits only and replaces a leading trunk 0 with the country code.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		return "62" + digits[1:]
	}
	return digits
}

// Чек

type ReceiptLine struct {
	Name     string
	Quantity int
	// UnitAmount is the price of one piece, already multiplied by the area.
	UnitAmount model.Money
	Amount     model.Money
}

type Receipt struct {
	Shop       config.Shop
	Phone      string
	NoteNumber string
	Date       time.Time
	Operator   string
	Customer   string
	Lines      []ReceiptLine
	Total      model.Money
	Paid       model.Money
}

const separator = "--------------------------------\n"

func (r Receipt) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", r.Shop.Name)
	if r.Shop.Address != "" {
		b.WriteString(r.Shop.Address + "\n")
	}
	if r.Shop.Phone != "" {
		fmt.Fprintf(&b, "Telp: %s\n", r.Shop.Phone)
	}
	b.WriteString(separator)
	fmt.Fprintf(&b, "No Nota  : %s\n", r.NoteNumber)
	fmt.Fprintf(&b, "Tanggal  : %s\n", r.Date.Format("02/01/2006"))
	fmt.Fprintf(&b, "Kasir    : %s\n", r.Operator)
	customer := r.Customer
	if customer == "" {
		customer = "N/A"
	}
	fmt.Fprintf(&b, "Pelanggan: %s\n", customer)
	b.WriteString(separator)
	for _, line := range r.Lines {
		b.WriteString(line.Name + "\n")
		fmt.Fprintf(&b, "  %d x %s = %s\n", line.Quantity, FormatIDR(line.UnitAmount), FormatIDR(line.Amount))
	}
	b.WriteString(separator)
	fmt.Fprintf(&b, "Total    : *%s*\n", FormatIDR(r.Total))
	fmt.Fprintf(&b, "Bayar    : %s\n", FormatIDR(r.Paid))
	fmt.Fprintf(&b, "Sisa     : %s\n", FormatIDR(r.Total-r.Paid))
	b.WriteString(separator)
	b.WriteString("Terima kasih!")
	return b.String()
}

// FormatIDR renders an amount the Indonesian way: "Rp 1.250.000".
func FormatIDR(amount model.Money) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := fmt.Sprintf("%d", amount)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "Rp " + b.String()
}
