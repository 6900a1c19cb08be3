package annotate

import "fmt"

// gateTranscriptLimit bounds the gatekeeper input so a runaway transcript
// cannot blow the cheap model's context window.
const gateTranscriptLimit = 25000

const gatekeeperPromptTemplate = `Role: You are a Surgical Data Curator.
Task: Analyze the provided video transcript and determine if the corresponding video is suitable for a surgical instruction dataset.
Evaluation Criteria:

Discard (Label: NO):
The transcript is empty or contains only non-verbal markers (e.g., [Music], [Silence], [Applause]).
The text is incoherent, gibberish, or appears to be a "hallucination" from the speech-to-text engine.
The content is purely conversational (e.g., talking about lunch, scheduling) with no medical terminology.

Keep (Label: YES):
The transcript contains specific medical terminology (anatomy, instruments, pathology).
The speaker is narrating actions, steps, or educational concepts related to surgery.

Input Transcript:
%s

Output format:
Provide your response in JSON format only:
JSON
{
  "decision": "YES", // or "NO"
  "confidence_score": 0.0 to 1.0,
  "reasoning": "Brief explanation..."
}`

const analystPromptTemplate = `Role: You are an expert Ophthalmic Surgical Analyst and Data Annotator (specialized in cataract surgery).
Task: Analyze the provided operating-microscope surgical video stream (primary microscope view) and the accompanying transcript. Your goal is to generate a structured dataset entry for fine-tuning a Vision–Language Model to understand cataract surgery workflows and visuals.
Instructions:
Visual priority

Prioritize what is visually occurring in the microscope video. Use the transcript only to support context, identify terminology, or disambiguate instruments when necessary.
If audio/surgeon commentary is out of sync with the video, follow the video timing and actions.
Prefer the main microscope view when multiple views exist. Note overlays (timer, phaco settings) only if they help timestamp steps.

Segmentation

Break the video into distinct surgical steps (events). Typical cataract step boundaries include (but are not limited to): conjunctival/limbal prep, corneal/limbal incision, creation of paracentesis, injection of viscoelastic, continuous curvilinear capsulorhexis (CCC), hydrodissection/hydrodelineation, phacoemulsification (sculpting/chopping/aspiration), cortical irrigation/aspiration (I/A), intraocular lens (IOL) insertion (foldable injector), viscoelastic removal/AC reformation, wound hydration/closure, and any complication management (posterior capsule rupture, iris prolapse, etc.).
Label the start and end of each step based on visible actions (e.g., first visible entry of a keratome into cornea marks incision start; completion is when the wound is formed and instrument withdrawn).

Granularity

For each step, explicitly identify:
The specific instrument(s) used (e.g., 2.2 mm keratome, cystotome, capsulorhexis forceps, phaco handpiece/phaco probe, chopper, irrigation/aspiration (I/A) cannula, viscoelastic cannula, IOL injector, Sinskey hook, microforceps).
The anatomical structure(s) being manipulated (e.g., cornea — clear corneal incision, anterior chamber, anterior capsule, lens nucleus, lens cortex, capsular bag, posterior capsule, iris, zonules, sclera).
The surgical sub-action or maneuver when relevant (e.g., "capsulorhexis initiated with cystotome and completed with forceps," "nuclear chopping using vertical chop technique," "hydrodissection bubble separation visible").

Format

Output the result strictly in the JSON array format defined below. Do not add extra fields, comments, or trailing text outside the JSON structure.
Use timestamp strings in "MM:SS" format (or "HH:MM:SS" if the video is longer than one hour) and make sure timestamps reflect the microscope video timeline.
If a field has no applicable transcript quote, set "transcript_context": "".

Output Format (JSON):
[
{
"step_number": 1,
"timestamp_start": "MM:SS",
"timestamp_end": "MM:SS",
"step_title": "Short title of the surgical action",
"visual_description": "Detailed description of the visual action.",
"transcript_context": "Relevant quote from transcript (if any)",
"instruments": ["List", "of", "instruments"],
"anatomy": ["List", "of", "anatomy"]
}
]

Transcript: %s`

func renderGatekeeperPrompt(transcript string) string {
	if len(transcript) > gateTranscriptLimit {
		transcript = transcript[:gateTranscriptLimit]
	}
	return fmt.Sprintf(gatekeeperPromptTemplate, transcript)
}

func renderAnalystPrompt(transcript string) string {
	return fmt.Sprintf(analystPromptTemplate, transcript)
}
