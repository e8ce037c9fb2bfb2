package report

import "fmt"

// Section titles every report must contain, in this order.
const (
	SectionSummary      = "**Clinical Explanation and Summary**"
	SectionDiagnosis    = "**Problem/Diagnosis and Cause**"
	SectionIntervention = "**Recommended Intervention and Risks**"
)

// Sections returns the required section titles in order.
func Sections() []string {
	return []string{SectionSummary, SectionDiagnosis, SectionIntervention}
}

var templates = map[Persona]string{
	Doctor: "You are a Chief Medical Officer (CMO) performing a rapid, definitive assessment. " +
		"Your audience is a medical specialist. Use precise technical terminology (e.g., myalgia, iatrogenic hyperthyroidism, vasogenic edema). " +
		"You must state a definite diagnosis, cause, and concrete intervention based on the most likely clinical inference. " +
		"FORBIDDEN phrases: 'cannot be established,' 'undetermined,' 'non-specific,' or 'requires further investigation.' ",
	Patient: "You are a caring medical explainer (CMO persona) speaking directly to the patient. " +
		"Use clear, simple, and empathetic language. Explain all medical terms using everyday words " +
		"(e.g., 'Hypothyroidism' should be explained as 'Your body's master gland is running too slow'). " +
		"Your output must be reassuring but accurate, focusing on what the patient needs to know and do. ",
}

const structure = "Your response MUST be strictly structured using Markdown bolding for the three requested section titles below, " +
	"and must only contain the structure and content.\n" +
	"1. " + SectionSummary + "\n" +
	"2. " + SectionDiagnosis + "\n" +
	"3. " + SectionIntervention + "\n" +
	"Base your analysis ONLY on the CONTEXT provided."

// SystemInstruction returns the persona template followed by the structural
// mandate. Unknown personas get the patient template.
func SystemInstruction(p Persona) string {
	t, ok := templates[p]
	if !ok {
		t = templates[Patient]
	}
	return t + structure
}

// UserPrompt embeds the query, target file and aggregated context.
func UserPrompt(query, target, context string) string {
	return fmt.Sprintf("Analyze the context from the file '%s' to address the user request: '%s'. "+
		"Begin your response immediately with the first structured section title. "+
		"Adhere strictly to the requested persona.\n\n"+
		"--- CONTEXT FOR ANALYSIS ---\n%s", target, query, context)
}
