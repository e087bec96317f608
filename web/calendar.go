// ABOUTME: Calendar page, event forms, widget JSON and ICS export
// ABOUTME: Form input is parsed in the configured zone and validated before any remote call
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
)

const reauthMessage = "Google 로그인이 만료되었습니다. 다시 로그인해 주세요"

// eventView is one row of the event list with its edit form prefilled.
type eventView struct {
	ID          string
	Title       string
	When        string
	Location    string
	Description string
	Date        string
	StartTime   string
	EndDate     string
	EndTime     string
	AllDay      bool
	Link        string
}

type calendarData struct {
	LoggedIn       bool
	Events         []eventView
	WidgetEvents   []gcal.WidgetEvent
	Today          string
	TimeZone       string
	IdempotencyKey string
}

func (s *Server) signedIn() bool {
	st := s.auth.State()
	return st == gcal.Authenticated || st == gcal.Expired
}

func (s *Server) handleCalendar(c *gin.Context) {
	data := calendarData{
		Today:        s.today(),
		TimeZone:     s.loc.String(),
		WidgetEvents: []gcal.WidgetEvent{},
	}

	if s.signedIn() {
		events, err := s.listUpcoming(c)
		switch {
		case errors.Is(err, gcal.ErrReauthRequired):
			s.flashError(c, reauthMessage, nil)
		case err != nil:
			data.LoggedIn = true
			s.flashError(c, "일정을 불러오지 못했습니다", err)
		default:
			data.LoggedIn = true
			data.Events = s.eventViews(events)
			data.WidgetEvents = gcal.RenderWidgetEvents(events)
		}
	}
	data.IdempotencyKey = uuid.New().String()

	s.render(c, http.StatusOK, "캘린더", "calendar-content", data)
}

func (s *Server) listUpcoming(c *gin.Context) ([]models.CalendarEvent, error) {
	svc, err := s.events(c.Request.Context())
	if err != nil {
		return nil, err
	}
	return svc.ListUpcoming(c.Request.Context(), s.cfg.Google.UpcomingLimit)
}

func (s *Server) handleAPIEvents(c *gin.Context) {
	if !s.signedIn() {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gcal.ErrReauthRequired.Error()})
		return
	}
	events, err := s.listUpcoming(c)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, gcal.ErrReauthRequired) {
			status = http.StatusUnauthorized
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gcal.RenderWidgetEvents(events))
}

func (s *Server) handleICS(c *gin.Context) {
	if !s.signedIn() {
		c.String(http.StatusUnauthorized, gcal.ErrReauthRequired.Error())
		return
	}
	events, err := s.listUpcoming(c)
	if err != nil {
		c.String(http.StatusBadGateway, err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="jaksim.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(gcal.ExportICS(events, s.loc, s.now())))
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	fields, err := s.eventFieldsFromForm(c)
	if err != nil {
		s.flashError(c, "일정을 추가할 수 없습니다", err)
		s.redirect(c, "/calendar")
		return
	}
	fields.IdempotencyKey = strings.TrimSpace(c.PostForm("idempotency_key"))

	svc, err := s.events(c.Request.Context())
	if err == nil {
		_, err = svc.Create(c.Request.Context(), fields)
	}
	if err != nil {
		s.flashRemoteError(c, "일정을 추가하지 못했습니다", err)
	} else {
		s.flashInfo(c, "일정이 추가되었습니다: "+fields.Title)
	}
	s.redirect(c, "/calendar")
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	id := c.Param("id")
	fields, err := s.eventFieldsFromForm(c)
	if err != nil {
		s.flashError(c, "일정을 수정할 수 없습니다", err)
		s.redirect(c, "/calendar")
		return
	}

	svc, err := s.events(c.Request.Context())
	if err == nil {
		_, err = svc.Update(c.Request.Context(), id, fields)
	}
	if err != nil {
		s.flashRemoteError(c, "일정을 수정하지 못했습니다", err)
	} else {
		s.flashInfo(c, "일정이 수정되었습니다: "+fields.Title)
	}
	s.redirect(c, "/calendar")
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	svc, err := s.events(c.Request.Context())
	if err == nil {
		err = svc.Delete(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		s.flashRemoteError(c, "일정을 삭제하지 못했습니다", err)
	} else {
		s.flashInfo(c, "일정이 삭제되었습니다")
	}
	s.redirect(c, "/calendar")
}

func (s *Server) flashRemoteError(c *gin.Context, msg string, err error) {
	if errors.Is(err, gcal.ErrReauthRequired) {
		s.flashError(c, reauthMessage, nil)
		return
	}
	s.flashError(c, msg, err)
}

// eventFieldsFromForm reads title, location, description, date, start,
// end_date (defaults to date) and end.
func (s *Server) eventFieldsFromForm(c *gin.Context) (models.EventFields, error) {
	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		return models.EventFields{}, errors.New("제목을 입력해 주세요")
	}

	date := c.PostForm("date")
	start, err := models.ParseLocalTime(date, c.PostForm("start"), s.loc)
	if err != nil {
		return models.EventFields{}, err
	}
	endDate := c.PostForm("end_date")
	if strings.TrimSpace(endDate) == "" {
		endDate = date
	}
	end, err := models.ParseLocalTime(endDate, c.PostForm("end"), s.loc)
	if err != nil {
		return models.EventFields{}, err
	}

	fields := models.EventFields{
		Title:       title,
		Location:    strings.TrimSpace(c.PostForm("location")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Start:       start,
		End:         end,
		TimeZone:    s.loc.String(),
	}
	if err := fields.Validate(); err != nil {
		return models.EventFields{}, err
	}
	return fields, nil
}

func (s *Server) eventViews(events []models.CalendarEvent) []eventView {
	views := make([]eventView, 0, len(events))
	for _, ev := range events {
		v := eventView{
			ID:          ev.ID,
			Title:       ev.DisplayTitle(),
			Location:    ev.Location,
			Description: ev.Description,
			AllDay:      ev.Start.AllDay(),
			Link:        ev.HTMLLink,
		}
		if start, err := ev.Start.Resolve(s.loc); err == nil {
			start = start.In(s.loc)
			v.Date = start.Format(models.DateLayout)
			v.StartTime = start.Format(models.ClockLayout)
			if v.AllDay {
				v.When = v.Date + " (종일)"
			} else {
				v.When = start.Format("2006-01-02 15:04")
			}
		}
		if end, err := ev.End.Resolve(s.loc); err == nil {
			end = end.In(s.loc)
			v.EndDate = end.Format(models.DateLayout)
			v.EndTime = end.Format(models.ClockLayout)
			if !v.AllDay {
				v.When += " ~ " + end.Format(endLayout(v.Date, v.EndDate))
			}
		}
		views = append(views, v)
	}
	return views
}

func endLayout(startDate, endDate string) string {
	if startDate == endDate {
		return models.ClockLayout
	}
	return "2006-01-02 " + models.ClockLayout
}
