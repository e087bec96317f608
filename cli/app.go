// ABOUTME: Shared wiring for subcommands
// ABOUTME: Builds the OAuth flow, calendar gateway and checklist store from configuration
package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/jaksim/jaksim/checklist"
	"github.com/jaksim/jaksim/gcal"
	"github.com/jaksim/jaksim/models"
)

// newFlow builds the authorization flow. redirectURL may be empty to use the
// web UI callback.
func (a *app) newFlow(redirectURL string) (*gcal.Flow, error) {
	if redirectURL == "" {
		redirectURL = a.cfg.RedirectURL()
	}
	oc, err := gcal.NewOAuthConfig(a.cfg.Google, redirectURL)
	if err != nil {
		return nil, err
	}
	store := gcal.NewCredentialStore(a.cfg.Google.CredentialsFile, a.logger)
	return gcal.NewFlow(oc, store, a.logger), nil
}

// gateway returns a calendar gateway authorized through flow.
func (a *app) gateway(ctx context.Context, flow *gcal.Flow) (*gcal.CalendarGateway, error) {
	switch flow.State() {
	case gcal.Authenticated, gcal.Expired:
	default:
		return nil, fmt.Errorf("%w: run \"jaksim auth login\" first", gcal.ErrReauthRequired)
	}

	svc, err := gcal.NewCalendarService(ctx, flow.Client(ctx))
	if err != nil {
		return nil, err
	}
	return gcal.NewCalendarGateway(svc, a.cfg.Google.CalendarID, a.cfg.Location(), a.logger), nil
}

// connect builds the flow and gateway in one step for one-shot commands.
func (a *app) connect(ctx context.Context) (*gcal.CalendarGateway, error) {
	flow, err := a.newFlow("")
	if err != nil {
		return nil, err
	}
	return a.gateway(ctx, flow)
}

func (a *app) openChecklist() (checklist.Store, error) {
	store, err := checklist.Open(a.cfg.Checklist, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open checklist store: %w", err)
	}
	return store, nil
}

// eventFields builds validated event input from date and HH:MM arguments in
// the configured zone.
func (a *app) eventFields(title, date, start, endDate, end string) (models.EventFields, error) {
	loc := a.cfg.Location()
	startAt, err := models.ParseLocalTime(date, start, loc)
	if err != nil {
		return models.EventFields{}, err
	}
	if endDate == "" {
		endDate = date
	}
	endAt, err := models.ParseLocalTime(endDate, end, loc)
	if err != nil {
		return models.EventFields{}, err
	}
	fields := models.EventFields{
		Title:    title,
		Start:    startAt,
		End:      endAt,
		TimeZone: loc.String(),
	}
	if err := fields.Validate(); err != nil {
		return models.EventFields{}, err
	}
	return fields, nil
}

// openBrowser opens the URL in the default browser.
func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}

	command := exec.Command(cmd, args...)
	command.Stdout = os.Stderr
	command.Stderr = os.Stderr
	return command.Start()
}
