package hazard

import (
	"sort"
	"strings"
)

// Summarize groups records by type keeping the maximum severity, ordered worst first.
func Summarize(records []Record) []Summary {
	worst := make(map[Type]int)
	for _, r := range records {
		if cur, ok := worst[r.Type]; !ok || r.Severity > cur {
			worst[r.Type] = r.Severity
		}
	}

	summaries := make([]Summary, 0, len(worst))
	for t, sev := range worst {
		summaries = append(summaries, Summary{
			Type:        t,
			Severity:    sev,
			Description: describe(t, sev),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Severity != summaries[j].Severity {
			return summaries[i].Severity > summaries[j].Severity
		}
		return summaries[i].Type < summaries[j].Type
	})
	return summaries
}

func describe(t Type, severity int) string {
	level := "Minor"
	switch {
	case severity > 80:
		level = "Severe"
	case severity > 60:
		level = "Moderate"
	}
	words := strings.ReplaceAll(strings.ToLower(string(t)), "_", " ")
	return level + " " + words + " conditions"
}

// Warning returns a headline for the worst summary, or "" when nothing warrants one.
// summaries must be ordered worst first, as returned by Summarize.
func Warning(summaries []Summary) string {
	if len(summaries) == 0 {
		return ""
	}
	switch top := summaries[0].Severity; {
	case top > 80:
		return "SEVERE weather conditions detected. Avoid travel if possible."
	case top > 60:
		return "Hazardous conditions present. Exercise extreme caution."
	case top > 40:
		return "Minor hazards detected. Take appropriate precautions."
	}
	return ""
}
