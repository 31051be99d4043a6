package reports

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"urs-backend/internal/artifacts"
	"urs-backend/internal/requests"
)

// Build turns request details into a report, newest request first. Only
// history entries carrying artifacts become evidence blocks.
func Build(details []requests.Detail, generatedBy string, now time.Time, baseURL string) Report {
	ordered := make([]requests.Detail, len(details))
	copy(ordered, details)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Request, ordered[j].Request
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})

	base := strings.TrimRight(baseURL, "/")
	report := Report{GeneratedAt: now, GeneratedBy: generatedBy}
	for i, d := range ordered {
		req := d.Request
		section := Section{
			Number:       i + 1,
			ID:           req.ID,
			Title:        req.Title,
			Agency:       req.Agency,
			Owner:        orDash(req.OwnerName),
			Description:  req.Description,
			SubmittedAt:  req.CreatedAt,
			EndDate:      req.EndDate,
			Stage:        req.Progress.Label(),
			Verification: req.Verification.Label(),
			Checklist:    buildChecklist(d),
			Stages:       buildStages(d, base),
		}
		if req.FileKey != "" {
			section.FileURL = base + "/api/v1/requests/" + strconv.FormatInt(req.ID, 10) + "/file"
		}
		for _, n := range d.Notes {
			section.Notes = append(section.Notes, NoteLine{Title: n.Title, At: n.CreatedAt})
		}
		report.Sections = append(report.Sections, section)
	}
	return report
}

func buildChecklist(d requests.Detail) Checklist {
	var c Checklist
	for _, a := range d.Activities {
		c.Total++
		if a.Completed {
			c.Completed++
		}
		c.Items = append(c.Items, ChecklistItem{
			Iteration:   a.Iteration,
			Description: a.Description,
			PIC:         strings.Join(a.PIC, ", "),
			Completed:   a.Completed,
		})
	}
	return c
}

func buildStages(d requests.Detail, base string) []StageEvidence {
	byEntry := make(map[int64][]artifacts.Artifact)
	for _, a := range d.Artifacts {
		byEntry[a.HistoryID] = append(byEntry[a.HistoryID], a)
	}
	var out []StageEvidence
	for _, e := range d.History {
		attached := byEntry[e.ID]
		if len(attached) == 0 {
			continue
		}
		stage := StageEvidence{Label: e.Status.Label(), At: e.CreatedAt}
		if e.Reason != nil {
			stage.Reason = *e.Reason
		}
		for _, a := range attached {
			line := FileLine{
				Name:         a.DisplayName,
				URL:          base + "/api/v1/artifacts/" + strconv.FormatInt(a.ID, 10) + "/file",
				Verification: a.Verification.Label(),
			}
			if a.Kind == artifacts.KindImage {
				stage.Images = append(stage.Images, line)
			} else {
				stage.Documents = append(stage.Documents, line)
			}
		}
		out = append(out, stage)
	}
	return out
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
