package reports

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"
	"time"

	"urs-backend/internal/notes"
	"urs-backend/internal/requests"
	"urs-backend/internal/shared/access"
	"urs-backend/internal/shared/apperr"
	"urs-backend/internal/shared/telemetry"
)

const (
	maxMeetingField        = 255
	maxMeetingParticipants = 2000
)

// Meeting is the header an admin fills in when printing minutes.
type Meeting struct {
	Time         string
	Leader       string
	Speakers     string
	Place        string
	Participants string
}

// Minutes is the meeting-minutes view of one request and its notes.
type Minutes struct {
	RequestID  int64
	Title      string
	Date       time.Time
	PreparedBy string
	PrintedAt  time.Time
	Meeting    Meeting
	Notes      []MinutesNote
}

// MinutesNote is one lettered section. Body is sanitized markup.
type MinutesNote struct {
	Letter   string
	Title    string
	Body     template.HTML
	ImageURL string
}

//go:embed templates/minutes.html.tmpl
var minutesSource string

var minutesTmpl = template.Must(template.New("minutes").Funcs(template.FuncMap{
	"fmtDay":  func(t time.Time) string { return formatTime(t, "Monday, 02 January 2006") },
	"fmtDate": func(t time.Time) string { return formatTime(t, "02 January 2006") },
	"upper":   strings.ToUpper,
}).Parse(minutesSource))

// BuildMinutes lays out a request's notes oldest first, lettered A, B, C.
func BuildMinutes(d requests.Detail, meeting Meeting, now time.Time, baseURL string) Minutes {
	base := strings.TrimRight(baseURL, "/")
	ordered := make([]notes.Note, len(d.Notes))
	copy(ordered, d.Notes)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	m := Minutes{
		RequestID:  d.Request.ID,
		Title:      orDash(d.Request.Title),
		Date:       d.Request.StartDate,
		PreparedBy: orDash(d.Request.OwnerName),
		PrintedAt:  now,
		Meeting: Meeting{
			Time:         orDash(meeting.Time),
			Leader:       orDash(meeting.Leader),
			Speakers:     orDash(meeting.Speakers),
			Place:        orDash(meeting.Place),
			Participants: orDash(meeting.Participants),
		},
	}
	for i, n := range ordered {
		section := MinutesNote{
			Letter: sectionLetter(i),
			Title:  n.Title,
			Body:   template.HTML(notes.Sanitize(n.Body)),
		}
		if n.HasImage() {
			section.ImageURL = base + "/api/v1/notes/" + strconv.FormatInt(n.ID, 10) + "/image"
		}
		m.Notes = append(m.Notes, section)
	}
	return m
}

// RenderMinutesHTML renders the printable minutes page.
func RenderMinutesHTML(m Minutes) ([]byte, error) {
	var buf bytes.Buffer
	if err := minutesTmpl.Execute(&buf, m); err != nil {
		return nil, fmt.Errorf("render minutes html: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateMinutes prints the meeting minutes of one request as PDF or HTML.
func (s *Service) GenerateMinutes(ctx context.Context, actor access.Principal, requestID int64, meeting Meeting, format Format) (File, error) {
	if format == "" {
		format = FormatPDF
	}
	verr := &apperr.ValidationError{}
	if format != FormatPDF && format != FormatHTML {
		verr.Add("format", "format must be pdf or html")
	}
	meeting = trimMeeting(meeting)
	for field, value := range map[string]string{
		"time":     meeting.Time,
		"leader":   meeting.Leader,
		"speakers": meeting.Speakers,
		"place":    meeting.Place,
	} {
		if len(value) > maxMeetingField {
			verr.Add(field, "must be at most 255 characters")
		}
	}
	if len(meeting.Participants) > maxMeetingParticipants {
		verr.Add("participants", "must be at most 2000 characters")
	}
	if err := verr.OrNil(); err != nil {
		return File{}, err
	}

	d, err := s.Requests.Detail(ctx, actor, requestID)
	if err != nil {
		return File{}, err
	}

	now := s.now()
	body, err := RenderMinutesHTML(BuildMinutes(d, meeting, now, s.BaseURL))
	if err != nil {
		return File{}, err
	}
	if format == FormatPDF {
		if body, err = s.renderPDF(ctx, body); err != nil {
			return File{}, err
		}
	}
	telemetry.Info("report.minutes_generated", map[string]any{
		"user_id":    actor.UserID,
		"request_id": requestID,
		"format":     string(format),
		"notes":      len(d.Notes),
	})
	name := "meeting-minutes-" + strconv.FormatInt(requestID, 10) + "-" + now.Format("20060102_150405") + "." + string(format)
	return File{Name: name, ContentType: format.ContentType(), Body: body}, nil
}

func trimMeeting(m Meeting) Meeting {
	return Meeting{
		Time:         strings.TrimSpace(m.Time),
		Leader:       strings.TrimSpace(m.Leader),
		Speakers:     strings.TrimSpace(m.Speakers),
		Place:        strings.TrimSpace(m.Place),
		Participants: strings.TrimSpace(m.Participants),
	}
}

// sectionLetter maps 0, 1, ... 25, 26 to A, B, ... Z, AA.
func sectionLetter(i int) string {
	var out []byte
	for i >= 0 {
		out = append([]byte{byte('A' + i%26)}, out...)
		i = i/26 - 1
	}
	return string(out)
}
