package lifecycle

import (
	"encoding/json"
	"fmt"
	"strings"
)

// HistoryKind tags which vocabulary a history entry's status belongs to.
type HistoryKind string

const (
	KindProgress     HistoryKind = "progress"
	KindVerification HistoryKind = "verification"
)

// ParseHistoryKind treats an empty kind as progress.
func ParseHistoryKind(raw string) (HistoryKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(KindProgress):
		return KindProgress, nil
	case string(KindVerification):
		return KindVerification, nil
	default:
		return "", fmt.Errorf("unknown history kind %q", raw)
	}
}

// HistoryStatus is either a progress status or a verification status, never both.
// Build it with ProgressEntry or VerificationEntry.
type HistoryStatus struct {
	kind         HistoryKind
	progress     ProgressStatus
	verification VerificationStatus
}

func ProgressEntry(s ProgressStatus) HistoryStatus {
	return HistoryStatus{kind: KindProgress, progress: s}
}

func VerificationEntry(s VerificationStatus) HistoryStatus {
	return HistoryStatus{kind: KindVerification, verification: s}
}

// DecodeHistoryStatus resolves raw against the vocabulary named by kind.
// A value from the other vocabulary is an error.
func DecodeHistoryStatus(kind, raw string) (HistoryStatus, error) {
	k, err := ParseHistoryKind(kind)
	if err != nil {
		return HistoryStatus{}, err
	}
	switch k {
	case KindVerification:
		v, err := ParseVerificationStatus(raw)
		if err != nil {
			return HistoryStatus{}, fmt.Errorf("decode verification entry: %w", err)
		}
		return VerificationEntry(v), nil
	default:
		p, err := ParseProgressStatus(raw)
		if err != nil {
			return HistoryStatus{}, fmt.Errorf("decode progress entry: %w", err)
		}
		return ProgressEntry(p), nil
	}
}

func (h HistoryStatus) Kind() HistoryKind { return h.kind }

// Progress returns the progress value; ok is false for verification entries.
func (h HistoryStatus) Progress() (ProgressStatus, bool) {
	return h.progress, h.kind == KindProgress
}

// Verification returns the verification value; ok is false for progress entries.
func (h HistoryStatus) Verification() (VerificationStatus, bool) {
	return h.verification, h.kind == KindVerification
}

// Value is the stored identifier.
func (h HistoryStatus) Value() string {
	if h.kind == KindVerification {
		return string(h.verification)
	}
	return string(h.progress)
}

func (h HistoryStatus) Label() string {
	if h.kind == KindVerification {
		return h.verification.Label()
	}
	return h.progress.Label()
}

func (h HistoryStatus) IsZero() bool { return h.kind == "" }

func (h HistoryStatus) String() string {
	return string(h.kind) + ":" + h.Value()
}

type historyStatusJSON struct {
	Kind  HistoryKind `json:"kind"`
	Value string      `json:"value"`
	Label string      `json:"label"`
}

func (h HistoryStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(historyStatusJSON{Kind: h.kind, Value: h.Value(), Label: h.Label()})
}

func (h *HistoryStatus) UnmarshalJSON(data []byte) error {
	var raw historyStatusJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := DecodeHistoryStatus(string(raw.Kind), raw.Value)
	if err != nil {
		return err
	}
	*h = decoded
	return nil
}
