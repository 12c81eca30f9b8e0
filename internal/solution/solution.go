// Package solution composes the four-part guidance delivered once an
// assessment completes: breath, movement, wisdom, and a light closing
// activity.
package solution

import (
	"fmt"
	"strings"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/practice"
)

// Holistic is the complete four-part solution.
type Holistic struct {
	Intro     string                  `json:"intro"`
	Pranayama *practice.Practice      `json:"pranayama,omitempty"`
	Asana     *practice.Practice      `json:"asana,omitempty"`
	Wisdom    string                  `json:"wisdom"`
	WisdomSrc string                  `json:"wisdom_source,omitempty"`
	Activity  practice.Activity       `json:"activity"`
	Tone      core.Tone               `json:"tone"`
	Location  core.Location           `json:"location"`
}

// Generate builds the holistic solution from the assessed record, the
// retrieved wisdom, and the practice recommendation. The wisdom text
// is passed through verbatim.
func Generate(rec *assessment.Record, userName, wisdomText, wisdomSource string, pr practice.Recommendation) *Holistic {
	return &Holistic{
		Intro:     intro(rec, userName),
		Pranayama: pr.Pranayama,
		Asana:     pr.Asana,
		Wisdom:    wisdomText,
		WisdomSrc: wisdomSource,
		Activity:  pr.Activity,
		Tone:      rec.Tone,
		Location:  rec.Location,
	}
}

func intro(rec *assessment.Record, userName string) string {
	name := userName
	if name == "" {
		name = "friend"
	}

	if rec.Tone == core.ToneSomber {
		return fmt.Sprintf("Dear %s, I'm here with you in this difficult time. Here's what might help bring some peace:", name)
	}

	emotion := strings.ReplaceAll(string(rec.Emotion), "_", " ")
	situation := strings.ReplaceAll(string(rec.Situation), "_", " ")
	return fmt.Sprintf("%s, I hear that you're experiencing %s around %s. Here's a complete practice to help you find balance:", name, emotion, situation)
}

const divider = "\n\n---\n\n"

// Format renders the solution as readable text, applying the location
// adaptation of each practice.
func Format(h *Holistic) string {
	var sb strings.Builder

	sb.WriteString(h.Intro)

	part := 1
	if h.Pranayama != nil {
		sb.WriteString(divider)
		fmt.Fprintf(&sb, "PART %d: PRANAYAMA (Breathing Practice)\n\n", part)
		writePractice(&sb, h.Pranayama, h.Location)
		part++
	}

	if h.Asana != nil {
		sb.WriteString(divider)
		fmt.Fprintf(&sb, "PART %d: ASANA (Movement Practice)\n\n", part)
		writePractice(&sb, h.Asana, h.Location)
		part++
	}

	if h.Wisdom != "" {
		sb.WriteString(divider)
		fmt.Fprintf(&sb, "PART %d: WISDOM\n\n%s", part, h.Wisdom)
		if h.WisdomSrc != "" {
			fmt.Fprintf(&sb, "\n\n(%s)", h.WisdomSrc)
		}
		part++
	}

	if h.Activity.Content != "" {
		sb.WriteString(divider)
		fmt.Fprintf(&sb, "PART %d: ONE SMALL THING\n\n%s", part, h.Activity.Content)
	}

	return sb.String()
}

func writePractice(sb *strings.Builder, p *practice.Practice, loc core.Location) {
	fmt.Fprintf(sb, "%s\n\n%s\n\nAbout %d minutes.", p.Name, p.Description, p.DurationMin)

	if adaptation := p.AdaptationFor(loc); adaptation != "" {
		fmt.Fprintf(sb, "\n\nWhere you are: %s", adaptation)
	}
	if len(p.Benefits) > 0 {
		fmt.Fprintf(sb, "\n\nBenefits: %s.", strings.Join(p.Benefits, ", "))
	}
	if len(p.Cautions) > 0 {
		fmt.Fprintf(sb, "\nTake care: %s.", strings.Join(p.Cautions, ", "))
	}
}
