package adverse

import (
	"fmt"
	"strings"

	"github.com/shahedmomenzadeh/Video-pipeline/internal/annotate"
)

const safetyAnalystPrompt = `Role: You are a Surgical Safety Analyst specializing in Cataract Surgery complications.
Task: Analyze the provided chronological list of surgical steps (visual descriptions) to detect any intraoperative adverse events or complications.

Input Data:
You will receive a list of steps. Each step has a timestamp and a visual description of the surgical action derived from the video.

Adverse Events to Look For:
You must strictly identify only the following complications based on the visual descriptions provided:

1. Intra-operative Complications:
   - Iris Prolapse: Protrusion of iris tissue through the surgical wound (main or side port).
   - Zonular Dialysis: Partial or complete rupture of zonular fibers, leading to lens instability, equator visibility, or decentration.
   - IFIS (Intraoperative Floppy Iris Syndrome): Look for triad of signs: billowing iris stroma, iris prolapse, or progressive miosis (constriction).
   - Phaco Wound Burn: Thermal injury at the corneal incision characterized by whitening or graying of the wound edges.
   - Posterior Capsule Rupture (PCR): Breach of the posterior capsule. Look for "vitreous loss", "vitreous prolapse", "sulcus placement of IOL", "anterior vitrectomy", or "capsule tear".
   - Vitreous Loss: Vitreous humor entering the anterior chamber or exiting the eye (usually secondary to PCR).
   - Nucleus Drop: Lens nucleus or large fragments falling posteriorly into the vitreous cavity.
   - IOL Drop: Dislocation of the intraocular lens (IOL) into the vitreous.

2. Retinal / Posterior Segment Complications:
   - Peripheral Retinal Tear: Visible break in the peripheral retina (may be mentioned if view extends to fundus or red reflex changes significantly).
   - Retinal Hemorrhage: Bleeding visible in the posterior segment or retina.

Instructions:
- Analyze the text strictly. Do not hallucinate events not described.
- Infer complications from management actions: If the text describes "anterior vitrectomy", "sulcus IOL implantation", or "limbal approach for vitrectomy", you MUST infer that a Posterior Capsule Rupture (PCR) or Vitreous Loss occurred, even if the rupture itself wasn't explicitly described.
- If NO adverse events are found, return an empty list for "adverse_events".

Output Format:
Return strictly a JSON object with the following structure:
{
  "adverse_events": [
    {
      "event_name": "Name of the complication (e.g., Posterior Capsule Rupture)",
      "timestamp_start": "MM:SS (start of the event context)",
      "timestamp_end": "MM:SS (end of the event context)",
      "reason": "Quote or explanation from the visual description that indicates this event."
    }
  ]
}
`

// FormatTimeline renders the annotation steps as the text context the safety
// analyst reads. Returns "" when there are no steps to analyze.
func FormatTimeline(steps []annotate.Step) string {
	if len(steps) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Surgical Steps Timeline:\n")
	for _, step := range steps {
		start := step.TimestampStart
		if start == "" {
			start = "??:??"
		}
		end := step.TimestampEnd
		if end == "" {
			end = "??:??"
		}
		fmt.Fprintf(&b, "[%s - %s]: %s\n", start, end, step.VisualDescription)
	}
	return b.String()
}
