package screenai

import "fmt"

const systemPrompt = `You are an expert HR analyst and resume screener. Extract structured information from resumes and evaluate them against job descriptions. Return ONLY valid JSON.`

const schemaPrompt = `Analyze the resume against the job description and return a JSON object with exactly this structure:

{
  "resume_data": {
    "contact_info": {
      "name": string,
      "email": string,
      "phone": string
    },
    "skills": string[],
    "work_experience": [{
      "job_title": string,
      "company": string,
      "duration": string,
      "responsibilities": string[]
    }],
    "education": [{
      "degree": string,
      "institution": string,
      "graduation_year": string
    }],
    "projects": [{
      "name": string,
      "description": string,
      "technologies_used": string[],
      "url": string
    }],
    "external_links": {
      "github": string,
      "linkedin": string,
      "portfolio": string
    }
  },
  "match_analysis": {
    "match_score": integer (0-100),
    "summary": string (2-3 sentence overview of the candidate's fit),
    "reasoning": string (detailed explanation of the score),
    "skills_possessed": string[] (required skills the candidate has),
    "skills_lacking": string[] (required skills the candidate is missing)
  }
}

IMPORTANT:
- Extract ALL projects mentioned anywhere in the resume
- Use empty strings for missing contact fields and links, empty arrays for missing lists
- match_score reflects how well the candidate fits THIS job description
- Return ONLY the JSON, no explanatory text or markdown`

// BuildAnalysisPrompt assembles the user prompt for one resume against one
// job description.
func BuildAnalysisPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf("%s\n\nJOB DESCRIPTION:\n%s\n\nRESUME:\n%s", schemaPrompt, jobDescription, resumeText)
}
