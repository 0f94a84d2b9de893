// Package playbook turns detection findings into a generation prompt and
// models the outcome of a generation call.
package playbook

import (
	"strings"

	"github.com/okian/dgaops/internal/domain/model"
)

const promptTemplate = `As a SOC Manager, create a simple, step-by-step incident response playbook for a Tier 1 analyst.
Base it only on the alert details and the model explanation. Output a numbered list of 3–4 concise steps.

**Alert Details & AI Explanation:**
{{findings}}
`

// BuildPrompt embeds findings verbatim in the fixed instruction.
func BuildPrompt(f model.Findings) string {
	return strings.Replace(promptTemplate, "{{findings}}", string(f), 1)
}

// SampleFindings is a DGA alert used when no findings are supplied.
const SampleFindings model.Findings = `- **Alert:** Potential DGA domain detected in DNS logs.
- **Domain:** ` + "`kq3v9z7j1x5f8g2h.info`" + `
- **Source IP:** ` + "`10.1.1.50`" + ` (Workstation-1337)
- **AI Model Explanation (from SHAP):** 99.8% confidence due to very high entropy and long length.
`
