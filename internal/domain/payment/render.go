package payment

import "strings"

const (
	notSpecified       = "не указан"
	purposeUnspecified = "не указано"
	zeroAmount         = "0,00"
)

// RenderFastPayment formats a fast payment transfer as MarkdownV2.
func RenderFastPayment(p FastPayment) string {
	lines := []string{
		Escape(orDefault(p.Amount, zeroAmount)) + " — " + Escape(orDefault(p.Recipient, notSpecified)),
	}
	if p.RecipientBank != "" {
		lines = append(lines, "Банк получателя — "+Escape(p.RecipientBank))
	}
	lines = append(lines, `\#СБП`)
	return strings.Join(lines, "\n")
}

// RenderCard formats a card operation as MarkdownV2.
func RenderCard(op CardOperation) string {
	head := Escape(orDefault(op.Amount, zeroAmount)) + ` \- ` + Escape(orDefault(op.Operation, defaultCardOperation))
	if op.Place != "" {
		head += " в " + Escape(op.Place)
	}

	card := "_Банковская операция_"
	if op.CardLastFour != "" {
		card = "_Карта " + Escape("*"+op.CardLastFour) + "_"
	}

	return strings.Join([]string{
		head,
		card,
		"*" + Escape(orDefault(op.Balance, zeroAmount)) + "* Остаток",
	}, "\n")
}

// RenderIncoming formats an incoming payment as MarkdownV2.
func RenderIncoming(p IncomingPayment) string {
	return renderTransfer(p.Amount, p.Sender, p.Purpose, p.Balance, p.Account, ` \- `)
}

// RenderGeneric formats a payment order as MarkdownV2. Sole proprietor
// recipients get a wider gap after the dash.
func RenderGeneric(p GenericPayment) string {
	sep := ` \- `
	if strings.Contains(p.Recipient, "ИП") {
		sep = ` \-  `
	}
	return renderTransfer(p.Amount, p.Recipient, p.Purpose, p.Balance, p.Account, sep)
}

func renderTransfer(amount, party, purpose, balance, account, sep string) string {
	return strings.Join([]string{
		Escape(orDefault(amount, zeroAmount)) + sep + Escape(orDefault(party, notSpecified)),
		"_" + Escape(orDefault(purpose, purposeUnspecified)) + "_",
		"*" + Escape(orDefault(balance, zeroAmount)) + "* Остаток на счете " + Escape(orDefault(account, notSpecified)),
	}, "\n")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
