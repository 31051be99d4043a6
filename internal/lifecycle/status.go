package lifecycle

import (
	"fmt"
	"strings"
)

// ProgressStatus is a stage of the fixed request pipeline.
type ProgressStatus string

const (
	StatusSubmitted            ProgressStatus = "SUBMITTED"
	StatusRequirementsDrafting ProgressStatus = "REQUIREMENTS_DRAFTING"
	StatusDevelopment          ProgressStatus = "DEVELOPMENT"
	StatusAcceptanceTesting    ProgressStatus = "ACCEPTANCE_TESTING"
	StatusDone                 ProgressStatus = "DONE"
)

var progressStages = []ProgressStatus{
	StatusSubmitted,
	StatusRequirementsDrafting,
	StatusDevelopment,
	StatusAcceptanceTesting,
	StatusDone,
}

var progressLabels = map[ProgressStatus]string{
	StatusSubmitted:            "Submitted",
	StatusRequirementsDrafting: "Requirements Drafting (URS)",
	StatusDevelopment:          "Development",
	StatusAcceptanceTesting:    "Acceptance Testing (UAT)",
	StatusDone:                 "Done",
}

// ProgressStages returns the pipeline in order.
func ProgressStages() []ProgressStatus {
	return append([]ProgressStatus(nil), progressStages...)
}

// FirstStage is where new and rejected requests sit.
func FirstStage() ProgressStatus { return progressStages[0] }

// LastStage is the terminal stage.
func LastStage() ProgressStatus { return progressStages[len(progressStages)-1] }

// ParseProgressStatus accepts the stored identifier, case-insensitively.
func ParseProgressStatus(raw string) (ProgressStatus, error) {
	candidate := ProgressStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if candidate.Index() < 0 {
		return "", fmt.Errorf("unknown progress status %q", raw)
	}
	return candidate, nil
}

// Index returns the position in the pipeline, or -1 when s is not a stage.
func (s ProgressStatus) Index() int {
	for i, stage := range progressStages {
		if stage == s {
			return i
		}
	}
	return -1
}

// Valid reports whether s is one of the five stages.
func (s ProgressStatus) Valid() bool { return s.Index() >= 0 }

// Next returns the following stage. ok is false at the last stage or for an unknown value.
func (s ProgressStatus) Next() (next ProgressStatus, ok bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(progressStages) {
		return s, false
	}
	return progressStages[i+1], true
}

func (s ProgressStatus) Label() string {
	if label, ok := progressLabels[s]; ok {
		return label
	}
	return string(s)
}

// VerificationStatus is the admin gate on a request or artifact.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "PENDING"
	VerificationApproved VerificationStatus = "APPROVED"
	VerificationRejected VerificationStatus = "REJECTED"
)

var verificationLabels = map[VerificationStatus]string{
	VerificationPending:  "Pending",
	VerificationApproved: "Approved",
	VerificationRejected: "Rejected",
}

// VerificationStatuses lists the vocabulary in display order.
func VerificationStatuses() []VerificationStatus {
	return []VerificationStatus{VerificationPending, VerificationApproved, VerificationRejected}
}

func ParseVerificationStatus(raw string) (VerificationStatus, error) {
	candidate := VerificationStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !candidate.Valid() {
		return "", fmt.Errorf("unknown verification status %q", raw)
	}
	return candidate, nil
}

func (s VerificationStatus) Valid() bool {
	_, ok := verificationLabels[s]
	return ok
}

func (s VerificationStatus) Label() string {
	if label, ok := verificationLabels[s]; ok {
		return label
	}
	return string(s)
}
