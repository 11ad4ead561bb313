package middleware

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/text/language"

	"github.com/drafti/drafti-backend/internal/i18n"
)

// LanguageKey is the Locals key holding the negotiated language.Tag.
const LanguageKey = "lang"

// Language negotiates the language for error messages from the "lang" query
// parameter and the Accept-Language header, in that order.
func Language() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LanguageKey, i18n.Match(c.Query("lang"), c.Get(fiber.HeaderAcceptLanguage)))
		return c.Next()
	}
}

// LanguageOf converts the value stored under LanguageKey, English when unset.
func LanguageOf(v interface{}) language.Tag {
	if tag, ok := v.(language.Tag); ok {
		return tag
	}
	return i18n.Supported[0]
}
