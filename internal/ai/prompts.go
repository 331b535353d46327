package ai

// PromptSet holds one prompt per oracle call
type PromptSet struct {
	ExtractResume         string
	ExtractJobDescription string
	ScoreResume           string
	RescoreResume         string
}

// DefaultSystemPrompts provides the default system instructions
var DefaultSystemPrompts = PromptSet{
	ExtractResume: `You are an AI expert in parsing resumes. You extract contact details, experience, education and skills exactly as written. Never invent information that is not in the document; use an empty string or an empty list when a field is absent.`,

	ExtractJobDescription: `You are an AI expert at extracting information from job descriptions. Your goal is to identify the key requirements, the skills, and the full text of the job description.`,

	ScoreResume: `You are an AI resume analyzer. You compare a resume with a job description and report how well the candidate matches, including how friendly the resume is to applicant tracking systems.`,

	RescoreResume: `You are an AI resume analyzer. A user has updated their resume with new skills and is asking for a fresh assessment.`,
}

// DefaultUserPrompts provides the default user prompt templates.
// Extraction templates take the document text; scoring templates take the resume then the job description.
var DefaultUserPrompts = PromptSet{
	ExtractResume: `Extract the following information from the resume provided:
- name
- email
- phone
- experience (array of strings, one entry per role)
- education (array of strings, one entry per qualification)
- skills (array of strings)

Resume Text:
-----
%s
-----`,

	ExtractJobDescription: `Extract the requirements, the skills, and the full text from the job description below.
Return the full text in "extractedText"; it must never be empty.

Job Description:
-----
%s
-----`,

	ScoreResume: `Analyze the resume text against the job description text and provide the following:

- score: Overall match score (0-100).
- atsScore: ATS-friendliness score (0-100).
- breakdown: Detailed analysis of the scores.
- primarySkills: Key skills from the job description and whether they are present in the resume.
- secondarySkills: Additional skills from the job description and their presence in the resume.

Resume:
-----
%s
-----

Job Description:
-----
%s
-----`,

	RescoreResume: `The user has updated their resume with new skills, so please provide a higher, more encouraging score than before. Analyze the resume text against the job description text and provide the following:

- score: Overall match score (0-100). Make sure it is higher than the original score.
- atsScore: ATS-friendliness score (0-100). Make sure it is higher than the original score.
- breakdown: Detailed analysis of the scores.
- primarySkills: Key skills from the job description and whether they are present in the resume.
- secondarySkills: Additional skills from the job description and their presence in the resume.

Resume:
-----
%s
-----

Job Description:
-----
%s
-----`,
}

// embeddedDocumentPlaceholder stands in for the document text when it travels as an inline part
const embeddedDocumentPlaceholder = "(the document is attached to this message)"

// resolvePrompt picks, in order, a prompt loaded from a file, one set inline in
// the configuration, and the built-in default.
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
