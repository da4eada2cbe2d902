package commands

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/payhub-dev/payhub/internal/busy"
	"github.com/payhub-dev/payhub/internal/cli/client"
	"github.com/payhub-dev/payhub/internal/cli/config"
	"github.com/payhub-dev/payhub/internal/cli/serverselect"
	"github.com/payhub-dev/payhub/internal/cli/userconfig"
	appconfig "github.com/payhub-dev/payhub/internal/config"
	"github.com/payhub-dev/payhub/internal/forms"
	"github.com/payhub-dev/payhub/internal/logger"
	"github.com/payhub-dev/payhub/internal/metrics"
	"github.com/payhub-dev/payhub/internal/notify"
	"github.com/payhub-dev/payhub/internal/session"
	"github.com/payhub-dev/payhub/internal/storage"
)

// Options carries the global flags and the I/O every command uses
type Options struct {
	Server        string
	NoSpinner     bool
	SecureStorage bool
	Ephemeral     bool

	Out io.Writer
	Err io.Writer

	// OpenBrowser opens a URL; replaced in tests
	OpenBrowser func(url string) error
	// ReadPassword prompts for a password; replaced in tests
	ReadPassword func(prompt string) (string, error)
	// NewStore opens the storage for a server; replaced in tests
	NewStore func(server config.Server, secure bool) (storage.Store, error)
}

// NewOptions returns the production options
func NewOptions() *Options {
	return &Options{
		Out:          os.Stdout,
		Err:          os.Stderr,
		OpenBrowser:  openBrowser,
		ReadPassword: readPassword,
	}
}

// env bundles what a command needs to talk to one server
type env struct {
	cfg      *appconfig.Config
	server   config.Server
	store    storage.Store
	client   *client.Client
	session  *session.Manager
	metrics  *metrics.Metrics
	notifier notify.Notifier
	nav      session.Navigator
}

// connect resolves the server and wires storage, pipeline and session
func (o *Options) connect() (*env, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, err
	}

	fallback := cfg.API.URL
	if fallback == "" {
		fallback = appconfig.DefaultAPIURL
	}
	server, err := serverselect.Resolve(o.Server, fallback)
	if err != nil {
		return nil, err
	}

	store, err := o.openStore(*server)
	if err != nil {
		return nil, err
	}

	log := logger.GetLogger().With().Str("server", server.Alias).Logger()
	m := metrics.New()
	tracker := busy.NewTracker(o.indicator(), m)

	apiClient := client.New(server.URL,
		client.WithTokenSource(session.StoredToken{Store: store}),
		client.WithTracker(tracker),
		client.WithMetrics(m),
		client.WithLogger(log),
		client.WithTimeout(cfg.API.Timeout),
	)

	e := &env{
		cfg:      cfg,
		server:   *server,
		store:    store,
		client:   apiClient,
		metrics:  m,
		notifier: notify.NewConsole(o.Out),
	}
	e.nav = session.NavigatorFunc(func(r session.Route) {
		o.navigate(e.server, r)
	})
	e.session = session.NewManager(store, apiClient,
		session.WithLogger(log),
		session.WithNavigator(e.nav),
	)
	return e, nil
}

func (o *Options) openStore(server config.Server) (storage.Store, error) {
	if o.Ephemeral {
		return storage.NewMemoryStore(), nil
	}

	secure := o.SecureStorage
	if !secure {
		if ucfg, err := userconfig.Load(); err == nil {
			secure = ucfg.SecureStorage
		}
	}

	if o.NewStore != nil {
		return o.NewStore(server, secure)
	}

	path, err := storage.DefaultPath(server.URL)
	if err != nil {
		return nil, err
	}
	var store storage.Store = storage.NewFileStore(path, storage.WithFileLogger(logger.GetLogger()))
	if secure {
		store = storage.NewRouted(store, storage.NewKeyringStore(server.URL), storage.KeyAccessToken)
	}
	return store, nil
}

// indicator returns a spinner when stderr is an interactive terminal
func (o *Options) indicator() busy.Indicator {
	if o.NoSpinner {
		return busy.NopIndicator{}
	}
	f, ok := o.Err.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return busy.NopIndicator{}
	}
	return busy.NewSpinnerIndicator(o.Err, " Contacting PayHub...")
}

func (o *Options) navigate(server config.Server, r session.Route) {
	switch r {
	case session.RouteDashboard:
		fmt.Fprintf(o.Out, "Dashboard: %s\n", server.DashboardURL())
	case session.RouteLogin:
		fmt.Fprintln(o.Out, "Run 'payhub login' to sign in again")
	}
}

// controller builds the login/register flow for e. Delayed steps are
// collected and run by the returned flush after the command has printed
// its result; failures are returned to cobra instead of being notified.
func (e *env) controller() (*forms.Controller, func()) {
	var pending []func()
	sched := forms.SchedulerFunc(func(_ time.Duration, f func()) {
		pending = append(pending, f)
	})

	ctrl := forms.NewController(e.session, e.store,
		forms.WithNotifier(returnedErrors{e.notifier}),
		forms.WithNavigator(e.nav),
		forms.WithScheduler(sched),
		forms.WithLogger(logger.GetLogger()),
	)
	flush := func() {
		for _, f := range pending {
			f()
		}
		pending = nil
	}
	return ctrl, flush
}

// returnedErrors drops error notifications for failures the command returns
type returnedErrors struct {
	notify.Notifier
}

func (returnedErrors) Error(notify.Message) {}

func (o *Options) prompt(label string) (string, error) {
	if o.ReadPassword == nil {
		return "", fmt.Errorf("%s is required in non-interactive mode", label)
	}
	return o.ReadPassword(label + ": ")
}

// readPassword reads a password without echo; stdin must be a terminal
func readPassword(prompt string) (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or PAYHUB_PASSWORD env var)")
	}

	fmt.Fprint(os.Stderr, prompt)
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(bytePassword), nil
}

// openBrowser opens the URL in the default browser
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// requireSession fails with the login hint when nobody is signed in
func requireSession(e *env) error {
	if !e.session.IsAuthenticated() {
		return session.ErrNotAuthenticated
	}
	return nil
}
