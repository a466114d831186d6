package payment

import (
	"regexp"
	"strings"
)

// IncomingPayment is money credited to the account. Empty fields were not
// found in the notification.
type IncomingPayment struct {
	Amount  string
	Sender  string
	Purpose string
	Balance string
	Account string
}

// FastPayment is an outgoing transfer through the fast payment system.
type FastPayment struct {
	Amount        string
	Recipient     string
	RecipientBank string
}

// CardOperation is a debit or credit on a bank card.
type CardOperation struct {
	Operation    string
	Amount       string
	Place        string
	CardLastFour string
	Balance      string
}

// GenericPayment is an outgoing payment order.
type GenericPayment struct {
	Number    string
	Amount    string
	Account   string
	Recipient string
	Balance   string
	Purpose   string
	Time      string
}

const defaultCardOperation = "Операция"

var (
	cardOperationRe = regexp.MustCompile(`(?i)(Снятие|Пополнение|Оплата|Перевод)`)
	cardAmountRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Снятие|Пополнение|Оплата|Перевод)\s*(\d[\d .,]+)\s*[₽р]`),
		regexp.MustCompile(`(\d[\d .,]+)\s*[₽р]\s*в\s`),
	}
	cardPlaceRe    = regexp.MustCompile(`(?i)(?:в|через|на)\s+([A-Za-zА-Яа-я0-9]+)`)
	cardNumberRe   = regexp.MustCompile(`Карта\s*\*(\d{4})`)
	cardBalanceRes = []*regexp.Regexp{
		regexp.MustCompile(`Остаток\s*(\d[\d .,]+)\s*[₽р]`),
		regexp.MustCompile(`Баланс:\s*(\d[\d .,]+)\s*[₽р]`),
	}

	incomingAmountRes = []*regexp.Regexp{
		regexp.MustCompile(`платёж №\d+ на ([\d .,]+) RUB`),
		regexp.MustCompile(`Сумма платежа — ([\d .,]+) RUB`),
		regexp.MustCompile(`на ([\d .,]+) RUB`),
	}
	incomingSenderRe   = regexp.MustCompile(`Отправитель — (.+?)(?:,|\n|$)`)
	incomingPurposeRe  = regexp.MustCompile(`(?s)Назначение — (.+?)(?:\n|$)`)
	incomingBalanceRes = []*regexp.Regexp{
		regexp.MustCompile(`счёте — ([\d .,]+) RUB`),
		regexp.MustCompile(`Остаток ([\d .,]+) RUB`),
	}
	incomingAccountRes = []*regexp.Regexp{
		regexp.MustCompile(`счёт (\d+)`),
		regexp.MustCompile(`(?i)счет[ае]? (\d+)`),
	}

	fastAmountRe    = regexp.MustCompile(`(?:Мы отправили|Сумма\s*[—-])\s*([\d .,]+)\s*[₽р]`)
	fastRecipientRe = regexp.MustCompile(`Получатель\s*[—-]\s*([^\n\r]+)`)
	fastBankRe      = regexp.MustCompile(`Банк получателя\s*[—-]\s*([^\n\r]+)`)

	genericNumberRe    = regexp.MustCompile(`Платёж №(\d+)`)
	genericAmountRe    = regexp.MustCompile(`(?i)(?:на|сумма)\s*[—-]\s*(\d[\d .,]+)\s*RUB`)
	genericAccountRe   = regexp.MustCompile(`(?i)со\s+сч[ёе]та\s*(\d+)`)
	genericRecipientRe = regexp.MustCompile(`(?i)Получатель\s*[—-]\s*(.+?)(?:\s*[,;\n]|$)`)
	genericBalanceRes  = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:сч[ёе]те?|баланс)[\s:—-]*([\d .,]+)\s*RUB`),
		regexp.MustCompile(`(?i)(?:на|ваш[её]м?)\s+сч[ёе]те?\s*[—-]\s*([\d .,]+)\s*RUB`),
	}
	genericPurposeRe = regexp.MustCompile(`(?is)Назначение\s*[—-]\s*(.+?)(?:\n|$)`)
	genericTimeRe    = regexp.MustCompile(`(?i)Время\s+(?:отправки|операции)\s*[—-]\s*(.+?)(?:\s*\(|$)`)

	// personNameRe picks "ИП Фамилия Имя Отчество" or a bare full name out of
	// a longer recipient line.
	personNameRe = regexp.MustCompile(`(ИП\s+[А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)|([А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+\s+[А-ЯЁ][а-яё]+)`)
)

// ExtractCard pulls card operation fields out of normalized text.
func ExtractCard(text string) CardOperation {
	op := CardOperation{Operation: defaultCardOperation}

	if m := cardOperationRe.FindStringSubmatch(text); m != nil {
		op.Operation = m[1]
	}
	if amount := firstGroup(text, cardAmountRes...); amount != "" {
		op.Amount = FormatNumber(strings.TrimSpace(amount))
	}
	if m := cardPlaceRe.FindStringSubmatch(text); m != nil {
		op.Place = m[1]
	}
	if m := cardNumberRe.FindStringSubmatch(text); m != nil {
		op.CardLastFour = m[1]
	}
	if balance := firstGroup(text, cardBalanceRes...); balance != "" {
		op.Balance = FormatNumber(strings.TrimSpace(balance))
	}
	return op
}

// ExtractIncoming pulls incoming payment fields out of normalized text.
func ExtractIncoming(text string) IncomingPayment {
	var p IncomingPayment

	if amount := firstGroup(text, incomingAmountRes...); amount != "" {
		p.Amount = FormatNumber(strings.TrimSpace(amount))
	}
	if m := incomingSenderRe.FindStringSubmatch(text); m != nil {
		p.Sender = strings.TrimSpace(m[1])
	}
	if m := incomingPurposeRe.FindStringSubmatch(text); m != nil {
		p.Purpose = strings.TrimSpace(m[1])
	}
	if balance := firstGroup(text, incomingBalanceRes...); balance != "" {
		p.Balance = FormatNumber(strings.TrimSpace(balance))
	}
	p.Account = firstGroup(text, incomingAccountRes...)
	return p
}

// ExtractFastPayment pulls fast payment transfer fields out of normalized text.
func ExtractFastPayment(text string) FastPayment {
	var p FastPayment

	if m := fastAmountRe.FindStringSubmatch(text); m != nil {
		p.Amount = FormatNumber(strings.TrimSpace(m[1]))
	}
	if m := fastRecipientRe.FindStringSubmatch(text); m != nil {
		p.Recipient = strings.TrimSpace(m[1])
	}
	if m := fastBankRe.FindStringSubmatch(text); m != nil {
		p.RecipientBank = strings.TrimSpace(m[1])
	}
	return p
}

// ExtractGeneric pulls payment order fields out of normalized text. When no
// recipient line is present fallbackRecipient is used.
func ExtractGeneric(text, fallbackRecipient string) GenericPayment {
	var p GenericPayment

	if m := genericNumberRe.FindStringSubmatch(text); m != nil {
		p.Number = m[1]
	}
	if m := genericAmountRe.FindStringSubmatch(text); m != nil {
		p.Amount = FormatNumber(strings.TrimSpace(m[1]))
	}
	if m := genericAccountRe.FindStringSubmatch(text); m != nil {
		p.Account = m[1]
	}

	if m := genericRecipientRe.FindStringSubmatch(text); m != nil {
		p.Recipient = strings.TrimSpace(m[1])
		if name := personNameRe.FindString(p.Recipient); name != "" {
			p.Recipient = strings.TrimSpace(name)
		}
	} else {
		p.Recipient = fallbackRecipient
	}

	if balance := firstGroup(text, genericBalanceRes...); balance != "" {
		p.Balance = FormatNumber(strings.TrimSpace(balance))
	}
	if m := genericPurposeRe.FindStringSubmatch(text); m != nil {
		p.Purpose = strings.TrimSpace(m[1])
	}
	if m := genericTimeRe.FindStringSubmatch(text); m != nil {
		p.Time = strings.TrimSpace(m[1])
	}
	return p
}

// firstGroup returns the first capture group of the first pattern that
// matches, or "".
func firstGroup(text string, patterns ...*regexp.Regexp) string {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}
