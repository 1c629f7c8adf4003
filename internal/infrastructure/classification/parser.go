package classification

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	DefaultConfidence = 7
	minConfidence     = 1
	maxConfidence     = 10
)

var sectionPattern = regexp.MustCompile(`(?i)\*\*\s*(云族|云属|云种/变种|云种|识别特征|天气预兆|知识延伸|识别置信度|family|genus|species|features|weather|knowledge|confidence)\s*\*\*\s*[：:]`)

var digitsPattern = regexp.MustCompile(`\d+`)

var noSubjectMarkers = []string{"无云", "NO_CLOUD", "NO_SUBJECT"}

// ParseContent turns the model's markdown reply into a Result.
func ParseContent(content string) *Result {
	result := &Result{Content: content, Confidence: DefaultConfidence}

	if isNoSubject(content) {
		result.NoSubject = true
		result.Confidence = 0
		return result
	}

	matches := sectionPattern.FindAllStringSubmatchIndex(content, -1)
	for i, m := range matches {
		label := strings.ToLower(content[m[2]:m[3]])
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		value := strings.TrimSpace(content[m[1]:end])

		switch label {
		case "云族", "family":
			result.Analysis.Family = value
		case "云属", "genus":
			result.Analysis.Genus = value
		case "云种/变种", "云种", "species":
			result.Analysis.Species = value
		case "识别特征", "features":
			result.Analysis.Features = value
		case "天气预兆", "weather":
			result.Analysis.Weather = value
		case "知识延伸", "knowledge":
			result.Analysis.Knowledge = value
		case "识别置信度", "confidence":
			result.Confidence = parseConfidence(value)
		}
	}
	return result
}

func isNoSubject(content string) bool {
	stripped := strings.TrimSpace(strings.ReplaceAll(content, "*", ""))
	upper := strings.ToUpper(stripped)
	for _, marker := range noSubjectMarkers {
		if strings.HasPrefix(upper, marker) {
			return true
		}
	}
	return false
}

func parseConfidence(value string) int {
	digits := digitsPattern.FindString(value)
	if digits == "" {
		return DefaultConfidence
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return DefaultConfidence
	}
	if n < minConfidence {
		return minConfidence
	}
	if n > maxConfidence {
		return maxConfidence
	}
	return n
}
