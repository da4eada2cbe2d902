package forms

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/payhub-dev/payhub/internal/auth"
	"github.com/payhub-dev/payhub/internal/cli/client"
	"github.com/payhub-dev/payhub/internal/notify"
	"github.com/payhub-dev/payhub/internal/session"
	"github.com/payhub-dev/payhub/internal/storage"
)

// Tab is one side of the login screen
type Tab string

const (
	TabLogin    Tab = "login"
	TabRegister Tab = "register"
)

// Phase is the state of a tab
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseSubmitting Phase = "submitting"
	PhaseError      Phase = "error"
)

const (
	InvalidFormMessage = "Please fill in all required fields correctly."

	DashboardDelay = time.Second
	TabSwitchDelay = 2 * time.Second
)

// ErrSubmitting is returned when a tab is submitted while its previous
// submission is still running
var ErrSubmitting = errors.New("a submission is already in progress")

// Scheduler runs f after d
type Scheduler interface {
	AfterFunc(d time.Duration, f func())
}

// SchedulerFunc adapts a function to Scheduler
type SchedulerFunc func(d time.Duration, f func())

func (s SchedulerFunc) AfterFunc(d time.Duration, f func()) { s(d, f) }

var (
	// TimerScheduler runs f on a timer goroutine
	TimerScheduler = SchedulerFunc(func(d time.Duration, f func()) { time.AfterFunc(d, f) })

	// Immediate runs f right away, ignoring the delay
	Immediate = SchedulerFunc(func(_ time.Duration, f func()) { f() })
)

// Session is what the flow needs from the session manager
type Session interface {
	Login(ctx context.Context, req client.LoginRequest) (*auth.Identity, error)
	Register(ctx context.Context, req client.RegisterRequest) (*client.AuthResponse, error)
}

type tabState struct {
	phase   Phase
	message string
	fields  ValidationErrors
}

// Controller is the login/register state machine
type Controller struct {
	mu       sync.Mutex
	tab      Tab
	states   map[Tab]*tabState
	login    LoginForm
	register RegisterForm

	session   Session
	store     storage.Store
	notifier  notify.Notifier
	nav       session.Navigator
	scheduler Scheduler
	logger    zerolog.Logger
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

func WithNotifier(n notify.Notifier) ControllerOption {
	return func(c *Controller) { c.notifier = n }
}

func WithNavigator(n session.Navigator) ControllerOption {
	return func(c *Controller) { c.nav = n }
}

func WithScheduler(s Scheduler) ControllerOption {
	return func(c *Controller) { c.scheduler = s }
}

func WithLogger(l zerolog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

// NewController creates a controller showing the login tab
func NewController(sess Session, store storage.Store, opts ...ControllerOption) *Controller {
	c := &Controller{
		tab: TabLogin,
		states: map[Tab]*tabState{
			TabLogin:    {phase: PhaseIdle},
			TabRegister: {phase: PhaseIdle},
		},
		session:   sess,
		store:     store,
		notifier:  &notify.Recorder{},
		nav:       session.NavigatorFunc(func(session.Route) {}),
		scheduler: TimerScheduler,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tab returns the active tab
func (c *Controller) Tab() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tab
}

// SwitchTab activates t and clears the error state of both tabs
func (c *Controller) SwitchTab(t Tab) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tab = t
	for _, st := range c.states {
		st.message = ""
		st.fields = nil
		if st.phase == PhaseError {
			st.phase = PhaseIdle
		}
	}
}

// Phase returns the phase of tab t
func (c *Controller) Phase(t Tab) Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[t].phase
}

// ErrorMessage returns the error shown on tab t, or ""
func (c *Controller) ErrorMessage(t Tab) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[t].message
}

// FieldErrors returns the failed rules of tab t's last submission
func (c *Controller) FieldErrors(t Tab) ValidationErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.states[t].fields
}

func (c *Controller) LoginForm() LoginForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.login
}

func (c *Controller) SetLoginForm(f LoginForm) {
	c.mu.Lock()
	c.login = f
	c.mu.Unlock()
}

func (c *Controller) RegisterForm() RegisterForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.register
}

func (c *Controller) SetRegisterForm(f RegisterForm) {
	c.mu.Lock()
	c.register = f
	c.mu.Unlock()
}

// LoadRememberedEmail pre-fills the login form with the remembered email
// and reports whether there was one
func (c *Controller) LoadRememberedEmail() bool {
	email, ok := storage.GetString(c.store, storage.KeyRememberedEmail)
	if !ok || email == "" {
		return false
	}

	c.mu.Lock()
	c.login.Email = email
	c.login.RememberMe = true
	c.mu.Unlock()
	return true
}

// SubmitLogin validates the login form and signs in. On success the
// dashboard is opened after DashboardDelay.
func (c *Controller) SubmitLogin(ctx context.Context) error {
	var form LoginForm
	if err := c.begin(TabLogin, func() error {
		form = c.login
		return form.Validate()
	}); err != nil {
		return err
	}

	if _, err := c.session.Login(ctx, form.Request()); err != nil {
		c.fail(TabLogin, err)
		return err
	}
	c.finish(TabLogin)

	if form.RememberMe {
		c.rememberEmail(form.Email)
	}

	c.logger.Debug().Str("email", form.Email).Msg("Login succeeded, opening dashboard")
	c.scheduler.AfterFunc(DashboardDelay, func() {
		c.nav.Navigate(session.RouteDashboard)
	})
	return nil
}

// SubmitRegister validates the register form and creates the account. On
// success the login email is pre-filled, the register form is reset and the
// login tab is shown after TabSwitchDelay.
func (c *Controller) SubmitRegister(ctx context.Context) error {
	var rf RegisterForm
	if err := c.begin(TabRegister, func() error {
		rf = c.register
		return rf.Validate()
	}); err != nil {
		return err
	}

	resp, err := c.session.Register(ctx, rf.Request())
	if err != nil {
		c.fail(TabRegister, err)
		return err
	}

	c.mu.Lock()
	c.login.Email = rf.Email
	c.register = RegisterForm{}
	c.states[TabRegister].phase = PhaseIdle
	c.mu.Unlock()

	c.notifier.Success(registeredMessage(resp, rf.Email))
	c.scheduler.AfterFunc(TabSwitchDelay, func() {
		c.SwitchTab(TabLogin)
	})
	return nil
}

// begin runs check under lock and moves the tab to submitting when it
// passes
func (c *Controller) begin(t Tab, check func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.states[t]
	if st.phase == PhaseSubmitting {
		return ErrSubmitting
	}

	if err := check(); err != nil {
		st.phase = PhaseError
		st.message = InvalidFormMessage
		st.fields, _ = AsValidationErrors(err)
		return err
	}

	st.phase = PhaseSubmitting
	st.message = ""
	st.fields = nil
	return nil
}

func (c *Controller) finish(t Tab) {
	c.mu.Lock()
	c.states[t].phase = PhaseIdle
	c.mu.Unlock()
}

func (c *Controller) fail(t Tab, err error) {
	msg := failureMessage(err)

	c.mu.Lock()
	st := c.states[t]
	st.phase = PhaseError
	st.message = msg.Text
	c.mu.Unlock()

	c.logger.Debug().Err(err).Str("tab", string(t)).Msg("Submission failed")
	c.notifier.Error(msg)
}

func (c *Controller) rememberEmail(email string) {
	err := c.store.StoreItem(storage.KeyRememberedEmail, email)
	if err == nil {
		err = c.store.StoreItem(storage.KeyRememberMe, true)
	}
	if err != nil {
		c.notifier.Warning(notify.Message{Text: "Could not save email: " + err.Error()})
	}
}

func failureMessage(err error) notify.Message {
	if apiErr, ok := client.AsAPIError(err); ok {
		text := apiErr.Message
		if text == "" {
			text = apiErr.Title
		}
		return notify.Message{Title: apiErr.Title, Text: text}
	}
	return notify.Message{Title: "Error", Text: err.Error()}
}

func registeredMessage(resp *client.AuthResponse, email string) notify.Message {
	msg := notify.Message{Title: "Registration successful", Text: "Account created for " + email}
	if resp == nil {
		return msg
	}
	if resp.Title != "" {
		msg.Title = resp.Title
	}
	if resp.Message != "" {
		msg.Text = resp.Message
	}
	return msg
}
