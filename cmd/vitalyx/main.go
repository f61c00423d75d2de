// Command vitalyx is a terminal host for the session core. It restores the
// persisted session, then runs one subcommand against the gateway:
//
//	vitalyx status              print the navigation view
//	vitalyx login <email>       password from VITALYX_PASSWORD or stdin
//	vitalyx signup <email> [full name]
//	vitalyx logout
//	vitalyx open <route>        evaluate the route guard
//	vitalyx watch               follow server pushes until interrupted
//	vitalyx ask <text>          query the assistant
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/harikrishnanklcs24-creator/vitalytics-ai/assistant"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/authz"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/config"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/gateway"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/guard"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/pkg/logger"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/session"
	"github.com/harikrishnanklcs24-creator/vitalytics-ai/shell"
)

const usage = "usage: vitalyx status|login <email>|signup <email> [name]|logout|open <route>|watch|ask <text>"

var errUsage = errors.New(usage)

type app struct {
	cfg    *config.ClientConfig
	log    *slog.Logger
	client *gateway.Client
	store  *session.Store
	shell  *shell.Shell
	out    *json.Encoder
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "vitalyx: %v\n", err)
		os.Exit(1)
	}
	defer a.store.Close()

	a.store.Restore(ctx)

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "vitalyx: %s\n", a.shell.Message(err))
		a.log.Debug("command failed", "error", err)
		os.Exit(1)
	}
}

func newApp() (*app, error) {
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, err
	}
	base, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	var vault session.Vault
	if cfg.VaultKey != "" {
		fv, err := session.NewFileVault(cfg.VaultPath, cfg.VaultKey, base)
		if err != nil {
			return nil, err
		}
		vault = fv
	} else {
		base.Warn("VITALYX_VAULT_KEY not set, the session will not survive this process")
		vault = session.NewMemoryVault()
	}

	policy := session.PolicyReject
	if cfg.Policy == "queue" {
		policy = session.PolicyQueue
	}

	client := gateway.NewClient(cfg.GatewayURL, gateway.ClientOptions{Timeout: cfg.RequestTimeout, Logger: base})
	store := session.NewStore(client, vault, session.Options{
		Policy:   policy,
		Profiles: client,
		Logger:   base,
	})

	sh := shell.New(store, authz.Default(), shell.Options{
		Navigate: func(route string) { fmt.Println("→", route) },
		Language: cfg.Language,
		Logger:   base,
	})

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")

	return &app{
		cfg:    cfg,
		log:    logger.For(base, "cli"),
		client: client,
		store:  store,
		shell:  sh,
		out:    out,
	}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "status":
		return a.out.Encode(a.shell.View())

	case "login":
		if len(args) < 1 {
			return errUsage
		}
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := a.store.SignIn(ctx, args[0], password); err != nil {
			return err
		}
		return a.out.Encode(a.shell.View())

	case "signup":
		if len(args) < 1 {
			return errUsage
		}
		password, err := readPassword()
		if err != nil {
			return err
		}
		if err := a.store.SignUp(ctx, args[0], password, strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return a.out.Encode(a.shell.View())

	case "logout":
		return a.shell.SignOut(ctx)

	case "open":
		if len(args) < 1 {
			return errUsage
		}
		g := guard.New(args[0], authz.Default(), guard.Options{
			Redirect: func(target string) { fmt.Println("redirect →", target) },
			Logger:   a.log,
		})
		defer g.Unmount()
		fmt.Println(g.Attach(a.store))
		return nil

	case "watch":
		unsubscribe := a.shell.Watch(func(v shell.View) {
			if err := a.out.Encode(v); err != nil {
				a.log.Warn("failed to print view", "error", err)
			}
		})
		defer unsubscribe()

		w := gateway.NewWatcher(a.cfg.GatewayURL, a.store, a.client.CurrentAccessToken, gateway.WatcherOptions{Logger: a.log})
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case "ask":
		svc := assistant.New(assistant.NewCannedResponder(a.cfg.Language), assistant.Options{Logger: a.log})
		reply, err := svc.Ask(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(reply.Text)
		return nil

	default:
		return errUsage
	}
}

func readPassword() (string, error) {
	if p := os.Getenv("VITALYX_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
