// ABOUTME: auth subcommands for the Google Calendar connection
// ABOUTME: Runs a loopback consent flow, shows credential status and logs out
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaksim/jaksim/gcal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newAuthCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google Calendar connection",
	}

	var noBrowser bool
	var timeout time.Duration
	login := &cobra.Command{
		Use:   "login",
		Short: "Authorize jaksim to read and write your calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return a.authLogin(ctx, cmd.OutOrStdout(), !noBrowser)
		},
	}
	login.Flags().BoolVar(&noBrowser, "no-browser", false, "print the consent URL without opening a browser")
	login.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "how long to wait for consent")

	status := &cobra.Command{
		Use:   "status",
		Short: "Show whether a Google credential is stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.authStatus(cmd.OutOrStdout(), time.Now())
		},
	}

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Delete the stored Google credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := gcal.NewCredentialStore(a.cfg.Google.CredentialsFile, a.logger)
			if err := store.Clear(); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Logged out.\n")
			return nil
		},
	}

	cmd.AddCommand(login, status, logout)
	return cmd
}

type loopbackResult struct {
	state string
	code  string
	err   string
}

// authLogin serves the OAuth callback on an ephemeral loopback port and
// completes the flow when the browser is redirected back.
func (a *app) authLogin(ctx context.Context, out io.Writer, launch bool) error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to open callback listener: %w", err)
	}
	redirectURL := "http://" + ln.Addr().String() + "/callback"

	flow, err := a.newFlow(redirectURL)
	if err != nil {
		ln.Close()
		return err
	}
	authURL, state, err := flow.BeginLogin(redirectURL)
	if err != nil {
		ln.Close()
		return err
	}

	results := make(chan loopbackResult, 1)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.GET("/callback", loopbackCallback(state, results))

	srv := &http.Server{Handler: engine, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("callback server failed", zap.Error(err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	printf(out, "Open this URL to authorize jaksim:\n\n  %s\n\n", authURL)
	if launch {
		if err := openBrowser(authURL); err != nil {
			a.logger.Debug("could not open browser", zap.Error(err))
		}
	}
	printf(out, "Waiting for authorization...\n")

	select {
	case <-ctx.Done():
		return fmt.Errorf("authorization not completed: %w", ctx.Err())
	case res := <-results:
		if res.err != "" {
			return fmt.Errorf("authorization denied: %s", res.err)
		}
		if _, err := flow.Complete(ctx, res.state, res.code); err != nil {
			return err
		}
	}

	printf(out, "Connected to Google Calendar. Credential saved to %s\n", a.cfg.Google.CredentialsFile)
	return nil
}

// loopbackCallback forwards the first redirect carrying state. Requests with
// any other state are answered and ignored.
func loopbackCallback(state string, results chan<- loopbackResult) gin.HandlerFunc {
	return func(c *gin.Context) {
		res := loopbackResult{state: c.Query("state"), code: c.Query("code"), err: c.Query("error")}
		if res.state != state {
			c.String(http.StatusBadRequest, "알 수 없는 인증 요청입니다.")
			return
		}
		select {
		case results <- res:
		default:
		}
		if res.err != "" {
			c.String(http.StatusOK, "인증이 취소되었습니다. 터미널을 확인해 주세요.")
			return
		}
		c.String(http.StatusOK, "인증이 완료되었습니다. 이 창을 닫아도 됩니다.")
	}
}

func (a *app) authStatus(out io.Writer, now time.Time) error {
	store := gcal.NewCredentialStore(a.cfg.Google.CredentialsFile, a.logger)
	cred, err := store.Load()
	if err != nil {
		return err
	}

	state := gcal.Unauthenticated
	if cred != nil {
		state = gcal.Authenticated
		if cred.Expired(now) {
			state = gcal.Expired
		}
	}

	printf(out, "State:       %s\n", state)
	printf(out, "Credentials: %s\n", store.Path())
	printf(out, "Calendar:    %s\n", a.cfg.Google.CalendarID)
	if cred == nil {
		printf(out, "\nRun \"jaksim auth login\" to connect Google Calendar.\n")
		return nil
	}
	if cred.Expiry != nil {
		printf(out, "Expires:     %s\n", cred.Expiry.In(a.cfg.Location()).Format(time.RFC3339))
	}
	if state == gcal.Expired {
		if cred.CanRefresh() {
			printf(out, "\nThe access token will be refreshed on next use.\n")
		} else {
			printf(out, "\nNo refresh token is stored. Run \"jaksim auth login\" again.\n")
		}
	}
	return nil
}
