package lifecycle

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressStagesOrder(t *testing.T) {
	stages := ProgressStages()
	require.Len(t, stages, 5)
	assert.Equal(t, StatusSubmitted, FirstStage())
	assert.Equal(t, StatusDone, LastStage())

	for i, stage := range stages {
		assert.Equal(t, i, stage.Index())
		next, ok := stage.Next()
		if i == len(stages)-1 {
			assert.False(t, ok, "last stage has no successor")
			assert.Equal(t, stage, next)
			continue
		}
		assert.True(t, ok)
		assert.Equal(t, stages[i+1], next)
	}
}

func TestProgressStagesReturnsCopy(t *testing.T) {
	stages := ProgressStages()
	stages[0] = StatusDone
	assert.Equal(t, StatusSubmitted, FirstStage())
}

func TestParseStatuses(t *testing.T) {
	p, err := ParseProgressStatus(" development ")
	require.NoError(t, err)
	assert.Equal(t, StatusDevelopment, p)

	_, err = ParseProgressStatus("APPROVED")
	assert.Error(t, err, "verification value is not a progress status")

	v, err := ParseVerificationStatus("rejected")
	require.NoError(t, err)
	assert.Equal(t, VerificationRejected, v)

	_, err = ParseVerificationStatus("DONE")
	assert.Error(t, err, "progress value is not a verification status")
}

func TestUnknownStageHasNoNext(t *testing.T) {
	_, ok := ProgressStatus("ARCHIVED").Next()
	assert.False(t, ok)
	assert.Equal(t, -1, ProgressStatus("ARCHIVED").Index())
}

func TestDecodeHistoryStatusUsesTaggedVocabulary(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		raw     string
		want    HistoryStatus
		wantErr bool
	}{
		{name: "unknown progress value", kind: "", raw: "URS", wantErr: true},
		{name: "untagged progress", kind: "", raw: "DEVELOPMENT", want: ProgressEntry(StatusDevelopment)},
		{name: "progress", kind: "progress", raw: "DONE", want: ProgressEntry(StatusDone)},
		{name: "verification", kind: "verification", raw: "APPROVED", want: VerificationEntry(VerificationApproved)},
		{name: "verification value tagged progress", kind: "progress", raw: "APPROVED", wantErr: true},
		{name: "untagged verification value", kind: "", raw: "REJECTED", wantErr: true},
		{name: "progress value tagged verification", kind: "verification", raw: "SUBMITTED", wantErr: true},
		{name: "unknown kind", kind: "audit", raw: "DONE", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHistoryStatus(tt.kind, tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHistoryStatusAccessors(t *testing.T) {
	h := VerificationEntry(VerificationRejected)
	_, isProgress := h.Progress()
	assert.False(t, isProgress)
	v, ok := h.Verification()
	assert.True(t, ok)
	assert.Equal(t, VerificationRejected, v)
	assert.Equal(t, "REJECTED", h.Value())
	assert.Equal(t, "Rejected", h.Label())

	payload, err := json.Marshal(h)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"verification","value":"REJECTED","label":"Rejected"}`, string(payload))

	var back HistoryStatus
	require.NoError(t, json.Unmarshal(payload, &back))
	assert.Equal(t, h, back)
}
