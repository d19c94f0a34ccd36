package solve

import (
	"bytes"
	"strings"
	"text/template"
)

const tutorTemplate = `You are an expert math tutor specializing in clear, step-by-step explanations. Follow these guidelines strictly:
1. Use proper mathematical notation with Unicode symbols
2. Format clearly with spacing between steps
3. Highlight key transformations with → symbol
4. Box final answers: [answer]
5. For non-math questions, politely explain you specialize in mathematics
6. Include brief explanations for each step
7. Use standard mathematical terminology

Example format:
Problem: Solve 2x + 5 = 15
Step 1: Subtract 5 from both sides
2x + 5 - 5 = 15 - 5 → 2x = 10
Step 2: Divide both sides by 2
2x/2 = 10/2 → x = 5
Solution: [x = 5]

Now solve this problem:
{{.Question}}

Provide your solution following the exact format above:`

var promptTmpl = template.Must(template.New("tutor").Parse(tutorTemplate))

type promptData struct {
	Question string
}

// BuildPrompt embeds question verbatim in the tutor instructions.
func BuildPrompt(question string) (string, error) {
	var buf bytes.Buffer
	if err := promptTmpl.Execute(&buf, promptData{Question: strings.TrimSpace(question)}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
