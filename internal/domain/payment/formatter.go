// Package payment turns bank notification bodies into Telegram MarkdownV2
// summaries.
package payment

import "strings"

// MissingBodyText is sent in place of a summary when a message has no
// usable body.
const MissingBodyText = "Ошибка: отсутствует тело сообщения или неверный формат"

// DefaultFallbackRecipient names the account holder when a payment order
// omits the recipient line.
const DefaultFallbackRecipient = "ИП Смирнов Руслан Владимирович"

// Formatter renders notification bodies.
type Formatter struct {
	fallbackRecipient string
}

// NewFormatter returns a Formatter that credits payment orders without a
// recipient line to fallbackRecipient. An empty fallback leaves such orders
// unstructured.
func NewFormatter(fallbackRecipient string) *Formatter {
	return &Formatter{fallbackRecipient: fallbackRecipient}
}

// Render classifies body and formats it with the matching template. Bodies
// that do not fit any template are returned as escaped plain text. Render
// never fails.
func (f *Formatter) Render(body string) string {
	if strings.TrimSpace(body) == "" {
		return MissingBodyText
	}

	text := Normalize(body)
	if text == "" {
		return MissingBodyText
	}

	switch Classify(text) {
	case VariantIncoming:
		return RenderIncoming(ExtractIncoming(text))
	case VariantFastPayment:
		return RenderFastPayment(ExtractFastPayment(text))
	case VariantCard:
		return RenderCard(ExtractCard(text))
	}

	p := ExtractGeneric(text, f.fallbackRecipient)
	if p.Amount == "" || p.Recipient == "" {
		return Escape(text)
	}
	return RenderGeneric(p)
}
