// Package respond turns a response descriptor into the companion's
// actual message. The descriptor decides intent; this package only
// decides phrasing.
package respond

import (
	"context"
	"fmt"
	"strings"

	"github.com/stillpoint-hq/stillpoint/internal/assessment"
	"github.com/stillpoint-hq/stillpoint/internal/core"
	"github.com/stillpoint-hq/stillpoint/internal/llm"
	"github.com/stillpoint-hq/stillpoint/internal/logging"
)

// Responder generates companion messages. A nil router means every
// reply uses the descriptor's canned fallback line.
type Responder struct {
	router *llm.Router
	log    *logging.Logger
}

// New creates a responder
func New(router *llm.Router) *Responder {
	return &Responder{
		router: router,
		log:    logging.WithField("component", "respond"),
	}
}

const systemPromptWarm = `You are a warm, compassionate wellbeing companion in the spirit of a gentle meditation teacher. You listen first. You never diagnose, never lecture, and never rush.

Rules:
- Reply in 1-3 short sentences.
- If told to acknowledge something the person shared, reflect it back briefly and naturally before anything else.
- If given a question to ask, end your reply with that question, rephrased naturally. Ask exactly one question.
- Never ask about anything you were not instructed to ask about.
- Never mention stages, assessments, records, or fields.`

const systemPromptSomber = systemPromptWarm + `

The person has shared grief or loss. Keep your words soft and unhurried. No cheerfulness, no exclamation marks, no silver linings.`

var fieldPhrases = map[core.Field]string{
	core.FieldAgeBand:   "their age range (18-25, 26-35, or 36-45)",
	core.FieldEmotion:   "how they are feeling",
	core.FieldSituation: "what has been happening in their life",
	core.FieldLocation:  "where they are right now",
	core.FieldTime:      "how much time they have (about 7, 12, or 20 minutes)",
	core.FieldMeal:      "whether they have eaten recently",
}

// Reply produces the companion's next message from a descriptor and
// the person's latest utterance. Model failure falls back to the
// descriptor's canned line rather than erroring: the conversation
// must always move.
func (r *Responder) Reply(ctx context.Context, d *assessment.Descriptor, userName, utterance string) string {
	if r.router == nil {
		return d.Fallback
	}

	system := systemPromptWarm
	if d.Tone == core.ToneSomber {
		system = systemPromptSomber
	}

	reply, err := r.router.Reason(ctx, system, r.buildPrompt(d, userName, utterance))
	if err != nil {
		r.log.Warn("response generation failed, using canned line: %v", err)
		return d.Fallback
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return d.Fallback
	}
	return reply
}

func (r *Responder) buildPrompt(d *assessment.Descriptor, userName, utterance string) string {
	var sb strings.Builder

	if userName != "" {
		sb.WriteString(fmt.Sprintf("You are talking with %s.\n", userName))
	}
	if utterance != "" {
		sb.WriteString(fmt.Sprintf("The person just said: %q\n\n", utterance))
	}

	if len(d.Acknowledge) > 0 {
		var phrases []string
		for _, f := range d.Acknowledge {
			if p, ok := fieldPhrases[f]; ok {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) > 0 {
			sb.WriteString(fmt.Sprintf("They have just shared %s. Acknowledge that briefly.\n", strings.Join(phrases, " and ")))
		}
	}

	switch {
	case d.Done:
		sb.WriteString("The conversation is complete. Thank them for sharing and let them know you are preparing a small practice for them. Ask nothing.")
	case d.Stage == core.StageInitialGreeting && d.AskField != "":
		sb.WriteString(fmt.Sprintf("Greet them warmly, then ask about %s.", fieldPhrases[d.AskField]))
	case d.AskField != "":
		sb.WriteString(fmt.Sprintf("Then gently ask about %s.", fieldPhrases[d.AskField]))
	default:
		sb.WriteString("Greet them warmly and invite them to share what is on their mind.")
	}

	if !d.Done {
		switch d.Style {
		case assessment.StyleReflective:
			sb.WriteString(" Mirror their own words back softly and leave room for the feeling before the question.")
		case assessment.StyleDirect:
			sb.WriteString(" Keep the question plain and practical, one short sentence.")
		}
	}

	return sb.String()
}
