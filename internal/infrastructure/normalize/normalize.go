// Package normalize rewrites LaTeX-style markup into plain Unicode math text.
package normalize

import (
	"regexp"
	"strings"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

func r(pattern, replacement string) rule {
	return rule{pattern: regexp.MustCompile(pattern), replacement: replacement}
}

// rules run in order. Templates that capture brace groups (\frac, \boxed,
// \sqrt{..}) must precede the plain symbol rules and the final
// exponent/subscript flattening, and longer command names precede their
// prefixes (\pmod before \mod and \pm, \qquad before \quad, \cdots before \cdot).
var rules = []rule{
	r(`\\pmod\b`, " mod "),
	r(`\\mod\b`, " mod "),
	r(`\\begin\{.*?\}`, ""),
	r(`\\end\{.*?\}`, ""),
	r(`\\boxed\{([^}]*)\}`, "[$1]"),
	r(`\\text\{([^}]*)\}`, "$1"),
	r(`\\mathrm\{([^}]*)\}`, "$1"),
	r(`\\qquad`, "    "),
	r(`\\quad`, "  "),
	r(`\\,`, " "),
	r(`\\;`, " "),
	r(`\\ `, " "),
	r(`\\left\\\{`, "{"),
	r(`\\right\\\}`, "}"),
	r(`\\left\(`, "("),
	r(`\\right\)`, ")"),
	r(`\\left\[`, "["),
	r(`\\right\]`, "]"),
	r(`\\left\|`, "|"),
	r(`\\right\|`, "|"),
	r(`\\left\.`, ""),
	r(`\\right\.`, ""),

	r(`\\frac\{([^}]*)\}\{([^}]*)\}`, "$1/$2"),
	r(`\\sqrt\{([^}]*)\}`, "√($1)"),
	r(`\\ddot\{([^}]*)\}`, "${1}\u0308"),
	r(`\\dot\{([^}]*)\}`, "${1}\u0307"),
	r(`\\hat\{([^}]*)\}`, "${1}\u0302"),
	r(`\\tilde\{([^}]*)\}`, "${1}\u0303"),

	r(`\\times`, "×"),
	r(`\\div`, "÷"),
	r(`\\cdots`, "⋯"),
	r(`\\ldots`, "…"),
	r(`\\cdot`, "·"),
	r(`\\leq`, "≤"),
	r(`\\geq`, "≥"),
	r(`\\neq`, "≠"),
	r(`\\approx`, "≈"),
	r(`\\pm`, "±"),
	r(`\\to`, "→"),
	r(`\\infty`, "∞"),
	r(`\\sum`, "Σ"),
	r(`\\prod`, "Π"),
	r(`\\int`, "∫"),
	r(`\\sqrt`, "√"),
	r(`\\alpha`, "α"),
	r(`\\beta`, "β"),
	r(`\\theta`, "θ"),
	r(`\\lambda`, "λ"),
	r(`\\pi`, "π"),
	r(`\\Delta`, "Δ"),
}

var (
	superscriptGroup = regexp.MustCompile(`\^\{([^}]*)\}`)
	subscriptGroup   = regexp.MustCompile(`_\{([^}]*)\}`)
)

// Normalize converts math markup to Unicode notation and trims the result.
// The rule table is applied until the text stops changing, so
// Normalize(Normalize(s)) == Normalize(s) holds for nested groups too.
func Normalize(text string) string {
	for {
		next := pass(text)
		if next == text {
			return next
		}
		text = next
	}
}

// every rule removes at least one backslash or brace, so the fixed point
// in Normalize is always reached.
func pass(text string) string {
	for _, rl := range rules {
		text = rl.pattern.ReplaceAllString(text, rl.replacement)
	}
	text = superscriptGroup.ReplaceAllString(text, "^$1")
	text = subscriptGroup.ReplaceAllString(text, "_$1")
	return strings.TrimSpace(text)
}
