package ai

import "fmt"

const (
	simplifiedResumeLimit = 1000
	simplifiedJobLimit    = 500
)

const systemInstruction = "You are an intelligent career assistant that helps users prepare for job applications. " +
	"Answer with JSON only."

func primaryPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(`The user has provided their resume and a job description. Your task is to:

1. Extract the key skills, technologies and keywords the employer is looking for.
2. Compare them with the resume and list the matched keywords (already in the resume)
   and the missing keywords (in the job description but not in the resume).
3. Generate 10 likely interview questions specific to this job description.
4. For each question write a sample answer personalised with details from the resume.
5. Calculate a match score from 0 to 100 based on keyword overlap.
6. Write a brief analysis summary.

Do not use generic or template answers; reference concrete skills, experience and
achievements from the resume.

Resume:
%s

Job description:
%s
`, resume, jobDescription)
}

func simplifiedPrompt(resume, jobDescription string) string {
	return fmt.Sprintf(`Analyze this resume against this job description.

RESUME: %s

JOB: %s

Return matched_keywords, missing_keywords, match_score (0-100), analysis_summary and a few
interview_questions, each with a question and a sample_answer that references the resume.
`, truncate(resume, simplifiedResumeLimit), truncate(jobDescription, simplifiedJobLimit))
}

// truncate keeps the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
