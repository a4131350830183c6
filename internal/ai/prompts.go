package ai

import (
	"strings"

	genai "google.golang.org/genai"
)

func summaryPrompt(text string) string {
	return "Please provide a concise summary of the following content for a B.Tech student. Focus on the key concepts, definitions, and main takeaways. Use '## ' headings to separate the main ideas so the summary can be shown as slides. Write formulas in LaTeX between $ or $$ delimiters. The content is: \n\n" + text
}

func notesPrompt(text string) string {
	return "Generate detailed, well-structured notes from the following content, suitable for a B.Tech student's exam preparation. Use markdown for headings, bullet points, and to highlight important terms. Start each major section with a '## ' heading. Write every important formula as a $$ display block and follow it directly with a '### Formula Breakdown' section that explains each symbol. The content is: \n\n" + text
}

func questionsPrompt(text string) string {
	return "Based on the provided content, identify and list the 10 most common and important questions for a B.Tech student. Group them by topic using '## ' markdown headings. This is for exam preparation. The content is: \n\n" + text
}

func quizPrompt(text string) string {
	return "Create a multiple-choice mock exam of 10 questions for a B.Tech student from the following content. Each question must have exactly 4 options, the answer must repeat one option verbatim, and the reason must explain briefly why that answer is correct. The content is: \n\n" + text
}

func videosPrompt(text string, prefs VideoPrefs) string {
	var b strings.Builder
	b.WriteString("Analyze the following academic content. Identify the 5 most critical topics for a B.Tech student. For each topic, suggest a relevant YouTube video title and a short, helpful description of what the video should cover. The content is: \n\n")
	b.WriteString(text)
	if ch := strings.TrimSpace(prefs.Channels); ch != "" {
		b.WriteString("\n\nWhen suggesting videos, please prioritize content from the following YouTube channels if suitable videos exist for the topics: ")
		b.WriteString(ch)
		b.WriteString(".")
	}
	if d := prefs.Length.describe(); d != "" {
		b.WriteString("\n\nAlso, please give preference to videos that are ")
		b.WriteString(d)
		b.WriteString(" long.")
	}
	return b.String()
}

func simplifyPrompt(formula, explanation string) string {
	return "Explain the following formula like I'm 5 years old. Use a short everyday analogy, keep it under 150 words, and keep any math in LaTeX between $ delimiters. Do not use headings.\n\nFormula: $$" + formula + "$$\n\nCurrent explanation:\n" + explanation
}

func videoSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"topic": {
					Type:        genai.TypeString,
					Description: "The core academic topic identified from the text.",
				},
				"title": {
					Type:        genai.TypeString,
					Description: "A concise and searchable YouTube video title for this topic.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A brief summary of the ideal video content for this topic.",
				},
			},
			Required:         []string{"topic", "title", "description"},
			PropertyOrdering: []string{"topic", "title", "description"},
		},
	}
}

func quizSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"question": {
					Type:        genai.TypeString,
					Description: "The question text.",
				},
				"options": {
					Type:        genai.TypeArray,
					Description: "Exactly four answer options.",
					Items:       &genai.Schema{Type: genai.TypeString},
				},
				"answer": {
					Type:        genai.TypeString,
					Description: "The correct option, copied verbatim from options.",
				},
				"reason": {
					Type:        genai.TypeString,
					Description: "Why the answer is correct.",
				},
			},
			Required:         []string{"question", "options", "answer", "reason"},
			PropertyOrdering: []string{"question", "options", "answer", "reason"},
		},
	}
}
