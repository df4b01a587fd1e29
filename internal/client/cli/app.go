package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/refkeeper/internal/client/api"
	"github.com/dmitrijs2005/refkeeper/internal/client/config"
	"github.com/dmitrijs2005/refkeeper/internal/client/session"
	"github.com/dmitrijs2005/refkeeper/internal/common"
)

// apiClient is the subset of api.Client the commands use.
type apiClient interface {
	Register(ctx context.Context, req api.RegisterRequest) (string, error)
	Login(ctx context.Context, identifier string, password []byte) (string, error)
	ForgotPassword(ctx context.Context, email string) (*api.ResetResult, error)
	Referrals(ctx context.Context, token string) ([]api.Referral, error)
	ReferralCount(ctx context.Context, token string) (int, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	Save(ctx context.Context, username, token string) error
	Load(ctx context.Context) (*session.Session, error)
	Clear(ctx context.Context) error
	Close() error
}

type App struct {
	config   *config.Config
	api      apiClient
	sessions sessionStore
	userName string
	token    string
	reader   *bufio.Reader
	input    prompter
}

func NewApp(c *config.Config) (*App, error) {

	ctx := context.Background()

	sessions, err := session.Open(ctx, c.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("error opening session store: %w", err)
	}

	reader := bufio.NewReader(os.Stdin)

	return &App{
		config:   c,
		api:      api.NewClient(c.ServerURL, c.RequestTimeout),
		sessions: sessions,
		reader:   reader,
		input:    newConsole(reader, os.Stdout, int(os.Stdin.Fd())),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.sessions.Close()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

// restoreSession picks up a login saved by an earlier run.
func (a *App) restoreSession(ctx context.Context) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			printlnFn("Could not read saved session:", err)
		}
		return
	}
	a.userName, a.token = s.Username, s.Token
}

func (a *App) getStatus() string {
	if a.userName == "" {
		return "(guest)"
	}
	return fmt.Sprintf("(%s)", a.userName)
}

// Root restores the saved session and runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to refkeeper CLI (type 'help' for commands)")

	if err := a.api.Ping(ctx); err != nil {
		printlnFn("Warning:", err)
	}

	a.restoreSession(ctx)
	runREPL(ctx, a, a.getStatus, a.reader)
}
