// ABOUTME: Checklist page and its form actions
// ABOUTME: Edits the session's working checklist; save and purge write it to the store
package web

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/models"
)

type checklistEntryView struct {
	Index int
	Task  string
	Done  bool
}

type checklistData struct {
	Date     string
	Prev     string
	Next     string
	Today    string
	Entries  []checklistEntryView
	Done     int
	Total    int
	Dirty    bool
	Dates    []string
	StoreErr string
}

// checklistDate returns the requested day, or today when absent or malformed.
func (s *Server) checklistDate(c *gin.Context, raw string) string {
	if raw == "" {
		return s.today()
	}
	if _, err := checklist.ParseDate(raw); err != nil {
		s.flashError(c, "날짜 형식이 올바르지 않습니다", err)
		return s.today()
	}
	return raw
}

func checklistURL(date string) string {
	return "/checklist?date=" + url.QueryEscape(date)
}

func (s *Server) handleChecklist(c *gin.Context) {
	date := s.checklistDate(c, c.Query("date"))
	day, _ := checklist.ParseDate(date)
	sess := currentSession(c)

	data := checklistData{
		Date:  date,
		Prev:  day.AddDate(0, 0, -1).Format(models.DateLayout),
		Next:  day.AddDate(0, 0, 1).Format(models.DateLayout),
		Today: s.today(),
	}

	err := sess.ViewChecklist(c.Request.Context(), s.checklist, func(b checklist.Book) {
		for i, e := range b.Entries(date) {
			data.Entries = append(data.Entries, checklistEntryView{Index: i, Task: e.Task, Done: e.Done})
		}
		data.Done, data.Total = b.Progress(date)
		data.Dates = b.Dates()
	})
	if err != nil {
		s.flashError(c, "체크리스트를 불러오지 못했습니다", err)
	}
	data.Dirty = sess.ChecklistDirty()

	s.render(c, http.StatusOK, "체크리스트", "checklist-content", data)
}

func (s *Server) handleAddTask(c *gin.Context) {
	date := s.checklistDate(c, c.PostForm("date"))
	task := c.PostForm("task")

	err := currentSession(c).EditChecklist(c.Request.Context(), s.checklist, func(b checklist.Book) error {
		return b.Add(date, task)
	})
	if err != nil {
		s.flashError(c, "할 일을 추가할 수 없습니다", err)
	}
	s.redirect(c, checklistURL(date))
}

func (s *Server) handleToggleTask(c *gin.Context) {
	date := s.checklistDate(c, c.PostForm("date"))
	index, err := strconv.Atoi(c.Param("index"))
	if err == nil {
		err = currentSession(c).EditChecklist(c.Request.Context(), s.checklist, func(b checklist.Book) error {
			_, err := b.Toggle(date, index)
			return err
		})
	}
	if err != nil {
		s.flashError(c, "할 일을 변경할 수 없습니다", err)
	}
	s.redirect(c, checklistURL(date))
}

func (s *Server) handleSaveChecklist(c *gin.Context) {
	date := s.checklistDate(c, c.PostForm("date"))
	if err := currentSession(c).SaveChecklist(c.Request.Context(), s.checklist); err != nil {
		s.flashError(c, "체크리스트를 저장하지 못했습니다", err)
	} else {
		s.flashInfo(c, "체크리스트가 저장되었습니다")
	}
	s.redirect(c, checklistURL(date))
}

// handlePurgeChecklist removes the day's completed tasks and saves immediately.
func (s *Server) handlePurgeChecklist(c *gin.Context) {
	date := s.checklistDate(c, c.PostForm("date"))
	sess := currentSession(c)
	ctx := c.Request.Context()

	removed := 0
	err := sess.EditChecklist(ctx, s.checklist, func(b checklist.Book) error {
		removed = b.PurgeDone(date)
		return nil
	})
	if err == nil {
		err = sess.SaveChecklist(ctx, s.checklist)
	}
	if err != nil {
		s.flashError(c, "완료한 할 일을 삭제하지 못했습니다", err)
	} else {
		s.flashInfo(c, "완료한 할 일 "+strconv.Itoa(removed)+"개를 삭제했습니다")
	}
	s.redirect(c, checklistURL(date))
}

// dayOf is used by templates for headings.
func dayOf(date string) string {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return d.Format("2006년 1월 2일 (Mon)")
}
