package creative

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// BuildPrompt creates the phrase prompt for LLM providers
func BuildPrompt(req Request) string {
	var sb strings.Builder

	if req.Theme == ThemeCTA {
		sb.WriteString("Write one call-to-action (5 words or fewer) to overlay on a video.\n\n")
	} else {
		sb.WriteString("Write one short line of on-screen text that enhances this video scene and feels part of its story.\n\n")
	}

	sb.WriteString("SCENE:\n")
	sceneJSON, _ := json.MarshalIndent(req.Scene, "", "  ")
	sb.Write(sceneJSON)
	sb.WriteString("\n\n")

	sb.WriteString("IMPORTANT INSTRUCTIONS:\n")
	sb.WriteString(fmt.Sprintf("1. Use a %s tone.\n", toneDescription(req.Tone)))
	if req.Language != "" {
		sb.WriteString(fmt.Sprintf("2. Write the text in %s.\n", req.Language))
	} else {
		sb.WriteString("2. Write the text in English.\n")
	}
	sb.WriteString("3. Return ONLY the text, with no quotes, explanation or markdown.\n\n")

	if strings.TrimSpace(req.Context) != "" {
		sb.WriteString(fmt.Sprintf("Additional context: %s\n\n", req.Context))
	}

	sb.WriteString("Output the text only:")

	return sb.String()
}

func toneDescription(t Tone) string {
	for _, s := range Catalog().Styles {
		if s.Name == string(t) {
			return strings.ToLower(s.Description)
		}
	}
	return string(t)
}

var fenceRegex = regexp.MustCompile("```[a-zA-Z]*\\s*")

// cleanPhrase strips markdown fences, surrounding quotes and anything after
// the first non-empty line of an LLM reply
func cleanPhrase(s string) string {
	s = fenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")

	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`“”*")
		line = strings.TrimSpace(line)
		if line != "" {
			return line
		}
	}
	return ""
}

// cleanJSONResponse strips markdown fences around a JSON reply
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = fenceRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
