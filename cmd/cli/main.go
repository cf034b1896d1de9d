// Command gk-share is a command-line client for the file-sharing service.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/and161185/gk-share/internal/api"
	"github.com/and161185/gk-share/internal/config"
	"github.com/and161185/gk-share/internal/errs"
	"github.com/and161185/gk-share/internal/form"
	"github.com/and161185/gk-share/internal/repository"
	"github.com/and161185/gk-share/internal/repository/jsonfile"
	"github.com/and161185/gk-share/internal/repository/sqlite"
	"github.com/and161185/gk-share/internal/router"
	"github.com/and161185/gk-share/internal/service"
	"github.com/and161185/gk-share/internal/state"
	"github.com/and161185/gk-share/internal/token"
	"github.com/and161185/gk-share/internal/ui"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// Overridable in tests.
var (
	registrationDelay = router.RegistrationRedirectDelay
	isTerminal        = term.IsTerminal
	readPassword      = term.ReadPassword
	envFiles          []string
)

// ---- app wiring ----

type app struct {
	cfg    config.Config
	log    *zap.Logger
	kv     repository.KVRepository
	tokens *token.Keeper
	store  *state.Store
	auth   *service.AuthService
	files  *service.FileService
	router *router.Router

	in     *bufio.Reader
	inFile *os.File
	out    io.Writer
	errOut io.Writer
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

func openStore(ctx context.Context, cfg config.Config) (repository.KVRepository, error) {
	if cfg.Store == config.StoreSQLite {
		r, err := sqlite.Open(ctx, cfg.Path())
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return jsonfile.New(cfg.Path()), nil
}

func newApp(ctx context.Context, cfg config.Config, in io.Reader, out, errOut io.Writer) (*app, error) {
	log, err := newLogger(cfg.Verbose)
	if err != nil {
		return nil, err
	}
	kv, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	tokens := token.NewKeeper(kv)
	client, err := api.New(cfg.BackendURL, tokens, api.WithLogger(log.Named("api")))
	if err != nil {
		_ = kv.Close()
		return nil, err
	}

	store := state.NewStore()
	if cfg.Verbose {
		store.Subscribe(func(a state.Action, s state.Snapshot) {
			log.Debug("dispatch",
				zap.String("action", fmt.Sprintf("%T", a)),
				zap.Bool("authenticated", s.Auth.IsAuthenticated),
				zap.Int("files", len(s.Files.Files)),
			)
		})
	}

	a := &app{
		cfg:    cfg,
		log:    log,
		kv:     kv,
		tokens: tokens,
		store:  store,
		auth:   service.NewAuthService(store, client, tokens, log.Named("auth")),
		files:  service.NewFileService(store, client, kv, log.Named("files")),
		router: router.New(store, tokens).WithDelay(registrationDelay),
		in:     bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
	if f, ok := in.(*os.File); ok {
		a.inFile = f
	}
	a.auth.Init(ctx)
	return a, nil
}

func (a *app) close() {
	_ = a.kv.Close()
	_ = a.log.Sync()
}

// ---- errors and exit codes ----

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error { return usageError{fmt.Sprintf(format, args...)} }

func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue),
		errors.Is(err, errs.ErrValidation),
		errors.Is(err, errs.ErrUnknownRoute),
		errors.Is(err, flag.ErrHelp):
		return 2
	default:
		return 1
	}
}

// ---- utils ----

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return usageError{err.Error()}
	}
	if fs.NArg() > 0 {
		return usagef("%s: unexpected arguments %q", fs.Name(), fs.Args())
	}
	return nil
}

// promptPassword reads a password without echo from a terminal, or one line
// from non-interactive input.
func (a *app) promptPassword() (string, error) {
	fmt.Fprint(a.errOut, "Password: ")
	if a.inFile != nil && isTerminal(int(a.inFile.Fd())) {
		b, err := readPassword(int(a.inFile.Fd()))
		fmt.Fprintln(a.errOut)
		return string(b), err
	}
	line, err := a.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *app) credentialFlags(name string, args []string) (string, string, error) {
	fs := a.flagSet(name)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password (prompted when omitted)")
	if err := a.parse(fs, args); err != nil {
		return "", "", err
	}
	if *p == "" && strings.TrimSpace(*u) != "" {
		pw, err := a.promptPassword()
		if err != nil {
			return "", "", err
		}
		*p = pw
	}
	return *u, *p, nil
}

// guard resolves the protected upload route and fails when redirected.
func (a *app) guard(ctx context.Context) error {
	rt, err := a.router.Resolve(ctx, string(router.Upload))
	if err != nil {
		return err
	}
	if rt != router.Upload {
		return fmt.Errorf("%w: login required (redirect: %s)", errs.ErrUnauthorized, rt)
	}
	return nil
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `gk-share CLI
Usage:
  gk-share [-backend URL] [-store jsonfile|sqlite] [-state PATH] [-timeout D] [-v] <cmd> [args]

Commands:
  version
  register   -u <username> [-p <password>]
  login      -u <username> [-p <password>]      (saves token)
  logout
  whoami
  files      [-json]                            (fetch and list, saved order)
  upload     -file <path> -tags <a,b>
  share      -id <fileId> [-qr]
  stats      -id <fileId>
  reorder    -active <fileId> -over <fileId>
  open       [route]                            (/, /login, /register, /upload)
  shell                                         (interactive)
`)
}

// ---- auth commands ----

func cmdVersion(_ context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return usagef("version takes no arguments")
	}
	fmt.Fprintf(a.out, "gk-share %s (%s)\n", version, buildDate)
	return nil
}

func cmdRegister(ctx context.Context, a *app, args []string) error {
	u, p, err := a.credentialFlags("register", args)
	if err != nil {
		return err
	}
	f := form.RegistrationForm{Username: u, Password: p}
	if err := f.Validate(); err != nil {
		var fe form.Errors
		errors.As(err, &fe)
		_ = ui.RenderRegistration(a.out, ui.RegistrationView{Fields: fe})
		return err
	}

	fmt.Fprintln(a.errOut, ui.Registering)
	if err := a.auth.Register(ctx, f.Credentials()); err != nil {
		_ = ui.RenderRegistration(a.out, ui.RegistrationView{Error: err.Error()})
		return err
	}
	if err := ui.RenderRegistration(a.out, ui.RegistrationView{Success: true}); err != nil {
		return err
	}
	rt, err := a.router.AfterRegistration(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "redirect: %s\n", rt)
	return nil
}

func cmdLogin(ctx context.Context, a *app, args []string) error {
	u, p, err := a.credentialFlags("login", args)
	if err != nil {
		return err
	}
	f := form.LoginForm{Username: u, Password: p}
	if err := f.Validate(); err != nil {
		var fe form.Errors
		errors.As(err, &fe)
		_ = ui.RenderLogin(a.out, ui.LoginView{Fields: fe})
		return err
	}

	fmt.Fprintln(a.errOut, ui.LoggingIn)
	if err := a.auth.LoginUser(ctx, f.Credentials()); err != nil {
		_ = ui.RenderLogin(a.out, ui.LoginView{Auth: a.store.Snapshot().Auth})
		return err
	}
	name, _ := a.auth.Username(ctx)
	fmt.Fprintln(a.out, ui.Welcome(name))
	fmt.Fprintf(a.out, "redirect: %s\n", a.router.AfterLogin())
	return nil
}

func cmdLogout(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return usagef("logout takes no arguments")
	}
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "redirect: %s\n", a.router.AfterLogout())
	return nil
}

func cmdWhoami(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return usagef("whoami takes no arguments")
	}
	if err := a.guard(ctx); err != nil {
		return err
	}
	name, err := a.auth.RequireUsername(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, name)
	return nil
}

func cmdOpen(ctx context.Context, a *app, args []string) error {
	if len(args) > 1 {
		return usagef("open takes at most one route")
	}
	path := "/"
	if len(args) == 1 {
		path = args[0]
	}
	rt, err := a.router.Resolve(ctx, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.errOut, "route: %s\n", rt)
	switch rt {
	case router.Register:
		return ui.RenderRegistration(a.out, ui.RegistrationView{})
	case router.Upload:
		return a.showUploadPage(ctx)
	default:
		return ui.RenderLogin(a.out, ui.LoginView{Auth: a.store.Snapshot().Auth})
	}
}

// ---- dispatch ----

type command func(ctx context.Context, a *app, args []string) error

var commands map[string]command

func init() {
	commands = map[string]command{
		"version":  cmdVersion,
		"register": cmdRegister,
		"login":    cmdLogin,
		"logout":   cmdLogout,
		"whoami":   cmdWhoami,
		"files":    cmdFiles,
		"upload":   cmdUpload,
		"share":    cmdShare,
		"stats":    cmdStats,
		"reorder":  cmdReorder,
		"open":     cmdOpen,
		"shell":    cmdShell,
	}
}

func (a *app) exec(parent context.Context, name string, args []string) (err error) {
	cmd, ok := commands[name]
	if !ok {
		return usagef("unknown command %q", name)
	}
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("panic",
				zap.Any("reason", r),
				zap.ByteString("stack", debug.Stack()),
				zap.String("cmd", name),
			)
			err = fmt.Errorf("%s: internal error", name)
		}
	}()
	ctx, cancel := context.WithTimeout(parent, a.cfg.Timeout)
	defer cancel()
	return cmd(ctx, a, args)
}

// cmdShell runs commands read line by line against one in-memory store.
func cmdShell(ctx context.Context, a *app, args []string) error {
	if len(args) > 0 {
		return usagef("shell takes no arguments")
	}
	// The shell outlives any single command timeout.
	ctx = context.WithoutCancel(ctx)
	for {
		fmt.Fprint(a.errOut, "gk-share> ")
		line, err := a.in.ReadString('\n')
		fields := strings.Fields(line)
		if len(fields) > 0 {
			switch fields[0] {
			case "exit", "quit":
				return nil
			case "help":
				usage(a.out)
			case "shell":
				fmt.Fprintln(a.errOut, "already in shell")
			default:
				if cerr := a.exec(ctx, fields[0], fields[1:]); cerr != nil {
					fmt.Fprintln(a.errOut, "error:", cerr)
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

// run executes one invocation and returns the process exit code.
func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) int {
	cfg, rest, err := config.Load(args, errOut, envFiles...)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(errOut, "error:", err)
		}
		usage(errOut)
		return 2
	}
	if len(rest) < 1 {
		usage(errOut)
		return 2
	}

	if rest[0] == "version" {
		return exitCode(cmdVersion(ctx, &app{out: out}, rest[1:]))
	}

	a, err := newApp(ctx, cfg, in, out, errOut)
	if err != nil {
		fmt.Fprintln(errOut, "error:", err)
		return 1
	}
	defer a.close()

	start := time.Now()
	err = a.exec(ctx, rest[0], rest[1:])
	a.log.Debug("command done", zap.String("cmd", rest[0]), zap.Duration("dur", time.Since(start)), zap.Error(err))
	if err != nil {
		var ue usageError
		if errors.As(err, &ue) {
			fmt.Fprintln(errOut, "error:", err)
			usage(errOut)
		} else if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(errOut, "error:", err)
		}
	}
	return exitCode(err)
}

// main wires configuration, local storage and the backend client, then
// dispatches the subcommand.
func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
