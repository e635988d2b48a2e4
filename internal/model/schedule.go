package model

// StudyScheduleItem is one time-boxed block of an AI generated study plan.
// Times are kept as the collaborator returned them ("14:00" or "09:00 AM").
type StudyScheduleItem struct {
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Priority  string `json:"priority"`
}

// StudyPlanRequest carries the inputs of a study plan generation.
type StudyPlanRequest struct {
	Subject      string   `json:"subject"`
	Topics       []string `json:"topics"`
	Hours        int      `json:"hours"`
	ExamTomorrow bool     `json:"examTomorrow"`
}

// MedicineEntry is a daily medicine reminder. Time is 24-hour "HH:MM".
type MedicineEntry struct {
	Disease     string `json:"disease"`
	Medicine    string `json:"medicine"`
	Description string `json:"description,omitempty"`
	Time        string `json:"time"`
}
