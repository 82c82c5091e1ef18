package judges

// Rubric prompt templates for the LLM grading path. The templates use
// text/template placeholders so untrusted agent output is substituted
// safely instead of concatenated. {{.Tone}} and {{.Guidance}} carry the
// strictness profile; everything else comes from the golden answer and
// the agent response.

const factcheckPromptTemplate = `{{.Tone}}
You are evaluating a fact-checking AI agent.

CLAIM: {{.Prompt}}
EXPECTED VERDICT: {{.Expected}}
KEY FACTS TO IDENTIFY: {{.KeyPoints}}

AGENT'S RESPONSE:
- Thought Process: {{.ThoughtProcess}}
- Retrieved Documents: {{.Retrieved}}
- Final Answer: {{.FinalAnswer}}
- Citation: {{.Citation}}

EVALUATION CRITERIA:

1. VERDICT ACCURACY (0-10):
   - 10: Exactly correct verdict
   - 8-9: Correct verdict with minor imprecision
   - 6-7: Partially correct or reasonable interpretation
   - 3-5: Wrong but shows understanding
   - 0-2: Completely wrong

2. FAITHFULNESS (0-10):
   - 10: Uses document info accurately
   - 8-9: Mostly faithful with good paraphrasing
   - 6-7: Uses document info with minor additions
   - 4-5: Some unsupported claims
   - 0-3: Major hallucinations

3. REASONING QUALITY (0-10):
   - 10: Clear step-by-step analysis
   - 8-9: Good reasoning, addresses main facts
   - 6-7: Decent reasoning with some gaps
   - 4-5: Basic reasoning present
   - 0-3: No clear reasoning

{{.Guidance}}

Respond in JSON format:
{"verdict_score": X, "faithfulness_score": Y, "reasoning_score": Z, "feedback": "specific critique"}`

const legalPromptTemplate = `{{.Tone}}
You are evaluating a legal reasoning AI agent.

QUERY: {{.Prompt}}
EXPECTED ANSWER: {{.Expected}}
KEY REASONING POINTS: {{.KeyPoints}}
RELEVANT CLAUSES: {{.ExpectedRefs}}

AGENT'S RESPONSE:
- Thought Process: {{.ThoughtProcess}}
- Retrieved Clauses: {{.Retrieved}}
- Final Answer: {{.FinalAnswer}}
- Citation: {{.Citation}}

EVALUATION CRITERIA:

1. ANSWER CORRECTNESS (0-10):
   - 10: Covers main reasoning points well
   - 8-9: Mostly correct with good explanation
   - 6-7: Partially correct, reasonable attempt
   - 4-5: Some correct elements
   - 0-3: Mostly incorrect

2. FAITHFULNESS (0-10):
   - 10: Uses clause info accurately
   - 8-9: Mostly faithful paraphrasing
   - 6-7: Generally based on clauses
   - 4-5: Some unsupported claims
   - 0-3: Major fabrications

3. CONFLICT DETECTION (0-10):
   - 10: Identifies conflicts and explains well
   - 8-9: Notes complexity/conditions
   - 6-7: Acknowledges "it depends" scenarios
   - 4-5: Basic awareness of nuance
   - 0-3: Oversimplifies complex situations

4. CITATION ACCURACY (0-10):
   - 10: References clauses clearly
   - 8-9: Mentions relevant sources
   - 6-7: Some citation present
   - 4-5: Vague references
   - 0-3: No citations

{{.Guidance}}

Respond in JSON format:
{"correctness_score": X, "faithfulness_score": Y, "conflict_score": Z, "citation_score": W, "feedback": "specific critique"}`

// systemPrompt pins the LLM into pure-JSON grading mode.
const systemPrompt = "You are an evaluation judge. Always respond with valid JSON only."

// promptData is the template payload for a single grading call.
type promptData struct {
	Tone           string
	Guidance       string
	Prompt         string
	Expected       string
	KeyPoints      string
	ExpectedRefs   string
	ThoughtProcess string
	Retrieved      string
	FinalAnswer    string
	Citation       string
}
