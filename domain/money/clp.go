// Package money formats Chilean peso amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP renders a whole-peso amount with es-CL digit grouping, e.g. $1.234.567.
func FormatCLP(amount int64) string {
	if amount < 0 {
		return "-$" + printer.Sprint(number.Decimal(-amount))
	}
	return "$" + printer.Sprint(number.Decimal(amount))
}
