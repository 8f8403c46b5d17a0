package lyrics

import "fmt"

const polishSystemPrompt = `You are an expert romanizer of Japanese song lyrics. ` +
	`You convert Japanese captions into clean Hepburn romaji, one line of ` +
	`romaji per input line. Preserve line order exactly. When a reference ` +
	`romanization is provided, prefer its word choices and particle spellings ` +
	`(wa/e/o) but keep the caption line boundaries. Output only the romanized ` +
	`lines with no numbering, commentary, or markdown.`

func buildPolishPrompt(captions, reference string, lineCount int) string {
	return fmt.Sprintf(`Japanese captions (%d lines, keep this exact line count):
%s

Reference romanization:
%s

Return exactly %d lines of Hepburn romaji.`, lineCount, captions, reference, lineCount)
}
