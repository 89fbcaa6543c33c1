// Package mailer builds the order e-mails and delivers them over SMTP.
package mailer

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-shop/i18n"
	"github.com/diewo77/go-shop/internal/amount"
	"github.com/diewo77/go-shop/internal/models"
)

// Composer renders the plain-text order messages.
type Composer struct {
	// ContactPhone is quoted at the end of the buyer confirmation.
	ContactPhone string
}

// NoticeSubject is the subject of the seller's new-order notice.
func NoticeSubject(c models.Customer) string {
	return "Nowe zamówienie - " + c.City
}

// ConfirmationSubject is the subject of the buyer's confirmation.
const ConfirmationSubject = "Potwierdzenie złożenia zamówienia"

// ItemList renders one "- name: qty unit = total zł" line per order line.
func ItemList(lines []models.OrderLine) string {
	var b strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s: %s %s = %s zł\n", l.Name, l.DisplayQuantity, l.Unit, amount.FormatAmount(l.LineTotal))
	}
	return b.String()
}

func paymentLabel(method string) string {
	return i18n.T(i18n.Polish, "payment."+method)
}

func writeDelivery(b *strings.Builder, c models.Customer, payment string) {
	fmt.Fprintf(b, "Forma płatności: %s\n\n", paymentLabel(payment))
	b.WriteString("Adres dostawy:\n")
	b.WriteString(c.AddressLine() + "\n")
	b.WriteString(c.City + "\n")
	fmt.Fprintf(b, "Tel. %s\n\n", c.Phone)
	if c.Comments != "" {
		b.WriteString("Uwagi:\n")
		b.WriteString(c.Comments)
		b.WriteString("\n\n")
	}
}

// NewOrderNotice is the message sent to the seller.
func (m Composer) NewOrderNotice(c models.Customer, lines []models.OrderLine, total, displayID, payment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Złożono nowe zamówienie numer %s.\n\n", displayID)
	b.WriteString("Lista artykułów:\n")
	b.WriteString(ItemList(lines))
	fmt.Fprintf(&b, "\nSuma: %s zł.\n\n", total)
	writeDelivery(&b, c, payment)
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// OrderConfirmation is the message sent to the buyer.
func (m Composer) OrderConfirmation(c models.Customer, lines []models.OrderLine, total, displayID, payment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dziękujemy za złożenie zamówienia numer %s.\n\n", displayID)
	b.WriteString("Poniżej znajdziesz listę zamówionych artykułów:\n")
	b.WriteString(ItemList(lines))
	fmt.Fprintf(&b, "\nRazem: %s zł.\n\n", total)
	writeDelivery(&b, c, payment)
	if m.ContactPhone != "" {
		fmt.Fprintf(&b, "W razie potrzeby zapraszamy do kontaktu pod numerem %s.\n", m.ContactPhone)
	}
	return b.String()
}

// Compose returns the seller notice and the buyer confirmation.
func (m Composer) Compose(c models.Customer, lines []models.OrderLine, total, displayID, payment string) (seller, buyer string) {
	return m.NewOrderNotice(c, lines, total, displayID, payment),
		m.OrderConfirmation(c, lines, total, displayID, payment)
}
