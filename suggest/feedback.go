package suggest

import (
	"strings"

	"github.com/Paranoid-AF/jsonadapter/shell"
)

// FilterFeedback drops rewrites the user is already doing. When cmd is the
// first stage of a pipeline and any candidate's second stage runs the same
// command as the user's second stage, every candidate is suppressed.
// Otherwise the candidates' texts are returned. The boolean is false when
// nothing survives.
func FilterFeedback(cmd *shell.Command, candidates []*shell.Pipeline) ([]string, bool) {
	if typed := typedSecondStage(cmd); typed != "" {
		for _, c := range candidates {
			if len(c.Stages) > 1 && strings.EqualFold(c.Stages[1].Name, typed) {
				return nil, false
			}
		}
	}
	var out []string
	for _, c := range candidates {
		out = append(out, c.Text)
	}
	return out, len(out) > 0
}

func typedSecondStage(cmd *shell.Command) string {
	if cmd == nil || cmd.Stage != 0 {
		return ""
	}
	next := cmd.Next()
	if next == nil {
		return ""
	}
	return next.Name
}
