package logging

import "strings"

// FormatSubject builds the job/phase subject string used in console output.
func FormatSubject(jobID, phase string) string {
	jobID = strings.TrimSpace(jobID)
	phase = strings.TrimSpace(phase)
	if len(jobID) > 8 {
		jobID = jobID[:8]
	}
	switch {
	case jobID != "" && phase != "":
		return "Job " + jobID + " (" + phase + ")"
	case jobID != "":
		return "Job " + jobID
	default:
		return phase
	}
}
