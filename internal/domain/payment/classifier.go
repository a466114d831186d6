package payment

import "strings"

// Variant is the notification kind a normalized body represents.
type Variant int

const (
	VariantGeneric Variant = iota
	VariantIncoming
	VariantFastPayment
	VariantCard
)

func (v Variant) String() string {
	switch v {
	case VariantIncoming:
		return "incoming"
	case VariantFastPayment:
		return "fast_payment"
	case VariantCard:
		return "card"
	default:
		return "generic"
	}
}

var (
	incomingPhrases = []string{
		"Зачислен платёж",
		"пришёл платёж",
		"На ваш счёт",
		"Отправитель —",
	}

	fastPaymentPhrases = []string{
		"через Систему быстрых платежей",
		"по номеру телефона",
		"Мы отправили",
		"Банк получателя —",
	}

	cardPhrases = []string{
		"Карта *",
		"Снятие",
		"Пополнение",
		"Остаток",
		"Баланс:",
	}

	// Incoming transfers often mention a bank or the payment system, which
	// would otherwise look like a card operation.
	cardExclusions = append(append([]string{}, incomingPhrases...),
		"через Систему быстрых платежей",
		"по номеру телефона",
		"Т-Банк",
	)
)

type rule struct {
	variant Variant
	matches func(text string) bool
}

// rules are evaluated top to bottom and the first match wins. Indicator
// phrases overlap between variants, so the order is part of the contract:
// incoming payments first, then fast payment transfers, then card
// operations. Anything else is generic.
var rules = []rule{
	{VariantIncoming, isIncomingPayment},
	{VariantFastPayment, isFastPayment},
	{VariantCard, isCardOperation},
}

// Classify reports which variant the normalized text belongs to.
func Classify(text string) Variant {
	for _, r := range rules {
		if r.matches(text) {
			return r.variant
		}
	}
	return VariantGeneric
}

func isIncomingPayment(text string) bool {
	return countPhrases(text, incomingPhrases) > 0
}

// isFastPayment needs two indicators; "Мы отправили" alone shows up in
// unrelated notifications.
func isFastPayment(text string) bool {
	return countPhrases(text, fastPaymentPhrases) >= 2
}

func isCardOperation(text string) bool {
	return countPhrases(text, cardPhrases) > 0 && countPhrases(text, cardExclusions) == 0
}

func countPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if strings.Contains(text, p) {
			n++
		}
	}
	return n
}
