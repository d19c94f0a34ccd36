package dispatch

import (
	"fmt"
	"strings"
	"time"

	"github.com/doeshing/puremath/internal/domain"
)

// User-facing texts. They are sent with MarkdownV2 and escaped by the
// messenger, so they contain no markup of their own.
const (
	msgWelcome = "👋 Math Genius Bot\n\n" +
		"I can help with:\n" +
		"- Calculus problems\n" +
		"- Algebra equations\n" +
		"- Geometry proofs\n" +
		"- Trigonometry\n\n" +
		"Send a math problem or try an example below!"

	msgHelp = "🧮 Help Menu\n\n" +
		"Send math problems like:\n" +
		"• Solve 2x + 5 = 15\n" +
		"• Find derivative of sin(x)\n" +
		"• Calculate ∫(x² + 3x)dx\n\n" +
		"I'll provide step-by-step solutions with visual formatting."

	msgExamples = "🔢 Algebra Examples:\n" +
		"• Solve 3x + 7 = 22\n" +
		"• Factor x² - 9\n" +
		"• Expand (x + 2)(x - 3)\n\n" +
		"∫ Calculus Examples:\n" +
		"• Derivative of sin(x²)\n" +
		"• Integral of e^x dx\n" +
		"• lim x→0 (sin x)/x\n\n" +
		"△ Geometry Examples:\n" +
		"• Area of circle r=5\n" +
		"• Volume of sphere r=3\n" +
		"• Pythagorean theorem a=3 b=4"

	msgUnknownCommand = "❌ Unknown command. Try /help"
	msgThrottled      = "⚠️ Too many requests. Please wait a minute before sending more questions."
	msgNoSolution     = "🤔 I couldn't generate a solution. Please try rephrasing your question."
	msgFailure        = "⚠️ An error occurred while processing your question. Please try again."
	msgPartial        = "⚠️ Some outputs may not have sent"

	captionImage    = "📘 Math Solution"
	captionDocument = "📄 Downloadable PDF solution"
)

func aboutText(version, model string, quota int) string {
	return fmt.Sprintf("🤖 About This Bot\n\n"+
		"Version: %s\n"+
		"Powered by %s\n"+
		"• Clean mathematical notation\n"+
		"• Image and PDF outputs\n"+
		"• Step-by-step explanations\n"+
		"• Rate limited to %d requests/minute", version, model, quota)
}

func successText(elapsed time.Duration) string {
	return fmt.Sprintf("✅ Generated in %.2fs\nAsk another question!", elapsed.Seconds())
}

func exampleKeyboard() *domain.ReplyKeyboard {
	return &domain.ReplyKeyboard{
		Rows: [][]string{
			{"∫(2x² + 3x) dx", "Solve 2x + 5 = 15"},
			{"Area of circle r=5", "lim x→∞ (1 + 1/x)ˣ"},
			{"Factor x² - 4", "Derivative of ln(x)"},
			{"/help", "/about", "/examples"},
		},
		Resize:    true,
		OneTime:   false,
		Selective: true,
	}
}

// preview shortens text for log lines.
func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= 100 {
		return text
	}
	return string(runes[:100]) + "..."
}
