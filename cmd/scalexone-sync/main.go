// Command scalexone-sync drives the ScaleXone state layer from a terminal:
// it rehydrates the local store, resolves a community and reads or edits
// its menu, channels, knowledge and the member's profile.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/creastat/scalexone/config"
	"github.com/creastat/scalexone/logger"
	"github.com/creastat/scalexone/menu"
)

const usage = `usage: scalexone-sync [flags] <command> [command flags]

commands:
  state                          print the local store
  menu                           print the community menu layout
  menu-move -from -to -src -dst  move a menu button
  channels                       list channels the member may post in
  reorder-channel -src -dst      reorder the community's channels
  profile-config                 print the community profile configuration
  knowledge -vector -limit       look up knowledge snippets
  avatar -file -user             upload a new avatar
  xp -amount                     award experience points
`

func main() {
	var (
		configPath = flag.String("config", "", "path to config.yaml")
		tenant     = flag.String("tenant", "", "community id, slug or name")
		email      = flag.String("email", os.Getenv("SCALEXONE_EMAIL"), "member email")
		password   = flag.String("password", os.Getenv("SCALEXONE_PASSWORD"), "member password")
		timeout    = flag.Duration("timeout", 30*time.Second, "overall timeout")
	)
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("failed to start", "error", err)
		cancel()
		stop()
		log.Sync()
		os.Exit(1)
	}
	defer a.Close()

	a.gate.Start(ctx)

	cmd := command{app: a, tenantRef: *tenant, email: *email, password: *password}
	out, err := cmd.run(ctx, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		log.Error("command failed", "command", flag.Arg(0), "error", err)
		a.Close()
		log.Sync()
		os.Exit(1)
	}
	if out != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			log.Error("failed to write output", "error", err)
		}
	}
}

type command struct {
	app       *app
	tenantRef string
	email     string
	password  string
}

var errUsage = errors.New("invalid usage")

func (c command) run(ctx context.Context, name string, args []string) (any, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)

	switch name {
	case "state":
		if err := c.app.gate.Wait(ctx); err != nil {
			return nil, err
		}
		return c.app.store.Get(), nil

	case "menu":
		var l *menu.Layout
		err := c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			var err error
			l, err = c.app.menus.Layout(ctx, tenantID)
			return err
		})
		if err != nil {
			return nil, err
		}
		return layoutView(l), nil

	case "menu-move":
		from := fs.String("from", string(menu.Desktop), "source bar")
		to := fs.String("to", string(menu.Mobile), "destination bar")
		src := fs.Int("src", 0, "source index")
		dst := fs.Int("dst", 0, "destination index")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		var l *menu.Layout
		err := c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			var err error
			l, err = c.app.menus.MoveButton(ctx, tenantID, menu.Bar(*from), menu.Bar(*to), *src, *dst)
			return err
		})
		if err != nil {
			return nil, err
		}
		return layoutView(l), nil

	case "channels":
		var out any
		err := c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			channels, err := c.app.backend.PostableChannels(ctx, tenantID)
			out = channels
			return err
		})
		return out, err

	case "reorder-channel":
		src := fs.Int("src", 0, "source index")
		dst := fs.Int("dst", 0, "destination index")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		var out any
		err := c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			editor := c.app.channelEditor(tenantID)
			defer editor.Close()
			if err := editor.Load(ctx); err != nil {
				return err
			}
			report, err := editor.Reorder(ctx, *src, *dst)
			if report != nil && len(report.Failed()) > 0 {
				c.app.log.Warn("some channels were not reordered", "failed", len(report.Failed()), "refetched", report.Refetched)
			}
			if err != nil {
				return err
			}
			out = editor.Items()
			return nil
		})
		return out, err

	case "profile-config":
		var out any
		err := c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			e, err := c.app.profileConfigs.Fetch(ctx, tenantID)
			if e != nil {
				out = e
			}
			return err
		})
		return out, err

	case "knowledge":
		vector := fs.String("vector", "", "comma-separated query embedding")
		limit := fs.Int("limit", 5, "maximum snippets")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		vec, err := parseVector(*vector)
		if err != nil {
			return nil, err
		}
		svc, err := c.app.knowledge()
		if err != nil {
			return nil, err
		}
		var hits any
		err = c.withTenant(ctx, func(ctx context.Context, tenantID string) error {
			snippets, err := svc.Lookup(ctx, tenantID, vec, *limit)
			hits = snippets
			return err
		})
		return hits, err

	case "avatar":
		file := fs.String("file", "", "image to upload")
		user := fs.String("user", "", "auth user id")
		contentType := fs.String("content-type", "image/png", "image MIME type")
		if err := fs.Parse(args); err != nil || *file == "" || *user == "" {
			return nil, errUsage
		}
		if _, err := c.tenantID(ctx); err != nil {
			return nil, err
		}
		f, err := os.Open(*file)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var url string
		err = c.app.gate.Do(ctx, func(ctx context.Context) error {
			var uploadErr error
			url, uploadErr = c.app.profiles.UploadAvatar(ctx, *user, f.Name(), f, *contentType)
			return uploadErr
		})
		if err != nil {
			return nil, err
		}
		return map[string]string{"avatar_url": url}, nil

	case "xp":
		amount := fs.Int("amount", 0, "points to award")
		if err := fs.Parse(args); err != nil {
			return nil, errUsage
		}
		var out any
		err := c.app.gate.Do(ctx, func(ctx context.Context) error {
			g, err := c.app.store.AddXP(ctx, *amount)
			out = g
			return err
		})
		return out, err

	default:
		return nil, fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
}

func (c command) tenantID(ctx context.Context) (string, error) {
	return c.app.signIn(ctx, c.tenantRef, c.email, c.password)
}

// withTenant resolves the tenant and runs fn once the store is hydrated.
func (c command) withTenant(ctx context.Context, fn func(ctx context.Context, tenantID string) error) error {
	tenantID, err := c.tenantID(ctx)
	if err != nil {
		return err
	}
	return c.app.gate.Do(ctx, func(ctx context.Context) error {
		return fn(ctx, tenantID)
	})
}

func layoutView(l *menu.Layout) map[string]any {
	return map[string]any{
		string(menu.Desktop): l.Desktop,
		string(menu.Mobile):  l.Mobile,
	}
}

func parseVector(s string) ([]float32, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("empty vector: %w", errUsage)
	}
	parts := strings.Split(s, ",")
	vec := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("vector component %d: %w", i, err)
		}
		vec[i] = float32(f)
	}
	return vec, nil
}
