package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/nhle/taskapp/internal/credential"
	"github.com/nhle/taskapp/internal/model"
	"github.com/nhle/taskapp/internal/paging"
	"github.com/nhle/taskapp/internal/theme"
)

func runServe(ctx context.Context, args []string) error {
	flags := newFlagSet("serve")
	flags.set.String("addr", "", "HTTP listen address")
	if err := flags.parse(args); err != nil {
		return err
	}

	a, logger, err := flags.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	cfg := flags.cfg

	if err := a.Bootstrap(ctx, credential.Keyring{}); err != nil {
		return err
	}

	ready := make(chan net.Addr, 1)
	go func() {
		select {
		case addr := <-ready:
			logger.Info("taskapp ready", "address", addr.String(), "driver", cfg.Database.Driver)
		case <-ctx.Done():
		}
	}()
	return a.Handler().Serve(ctx, cfg.Server.Addr, ready)
}

func runUserAdd(ctx context.Context, args []string) error {
	flags := newFlagSet("user add")
	var (
		admin    bool
		password string
	)
	flags.set.BoolVar(&admin, "admin", false, "grant the ADMIN role")
	flags.set.StringVar(&password, "password", "", "password (read from stdin when omitted)")
	if err := flags.parse(args); err != nil {
		return err
	}
	if flags.set.NArg() != 1 {
		return fmt.Errorf("usage: taskapp user add <username> [--admin] [--password P]")
	}
	username := flags.set.Arg(0)

	if password == "" {
		var err error
		if password, err = readPassword("password: "); err != nil {
			return err
		}
	}

	a, _, err := flags.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	role := model.RoleUser
	if admin {
		role = model.RoleAdmin
	}
	user, err := a.Users.Register(ctx, username, password, role)
	if err != nil {
		return err
	}
	fmt.Println(theme.SuccessStyle.Render(fmt.Sprintf("registered %s (%s)", user.Username, user.Role)))
	return nil
}

func runAdminSetPassword(args []string) error {
	flags := newFlagSet("admin set-password")
	var password string
	flags.set.StringVar(&password, "password", "", "password (read from stdin when omitted)")
	if err := flags.parse(args); err != nil {
		return err
	}
	cfg, _, err := flags.load()
	if err != nil {
		return err
	}

	if password == "" {
		if password, err = readPassword("admin password: "); err != nil {
			return err
		}
	}
	if err := credential.Set(credential.AdminPasswordKey(cfg.Admin.Username), password); err != nil {
		return err
	}
	fmt.Println(theme.SuccessStyle.Render("stored password for " + cfg.Admin.Username))
	return nil
}

func runTags(ctx context.Context, args []string) error {
	flags := newFlagSet("tags")
	if err := flags.parse(args); err != nil {
		return err
	}
	a, _, err := flags.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tags, err := a.Tags.ListInUse(ctx)
	if err != nil {
		return err
	}
	fmt.Println(theme.RenderTags(tags))
	return nil
}

func runTasks(ctx context.Context, args []string) error {
	flags := newFlagSet("tasks")
	var page, limit string
	flags.set.StringVar(&page, "page", paging.DefaultPage, "page number, starting at 0")
	flags.set.StringVar(&limit, "limit", paging.DefaultLimit, "tasks per page")
	if err := flags.parse(args); err != nil {
		return err
	}
	a, _, err := flags.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	grouped, err := a.Tasks.GetGroupedByPriority(ctx, page, limit, a.Operator())
	if err != nil {
		return err
	}
	fmt.Println(theme.RenderTasks(grouped))
	return nil
}

func runReconcile(ctx context.Context, args []string) error {
	flags := newFlagSet("reconcile")
	if err := flags.parse(args); err != nil {
		return err
	}
	a, _, err := flags.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	drift, err := a.Tags.Reconcile(ctx, a.Operator())
	if err != nil {
		return err
	}
	fmt.Println(theme.RenderDrift(drift))
	return nil
}

func runConfigInit(args []string) error {
	flags := newFlagSet("config init")
	var force bool
	flags.set.BoolVar(&force, "force", false, "overwrite an existing file")
	if err := flags.parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(flags.configPath); err == nil && !force {
		return fmt.Errorf("%s already exists, use --force to overwrite", flags.configPath)
	}

	cfg, _, err := flags.load()
	if err != nil {
		return err
	}
	if err := model.SaveConfig(flags.configPath, cfg); err != nil {
		return err
	}
	fmt.Println(theme.SuccessStyle.Render("wrote " + flags.configPath))
	return nil
}

// readPassword prompts on stderr. A terminal reads with echo disabled;
// piped input is read one line at a time.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return string(password), nil
	}
	return readLine(bufio.NewReader(os.Stdin))
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runAdminClearPassword(args []string) error {
	flags := newFlagSet("admin clear-password")
	if err := flags.parse(args); err != nil {
		return err
	}
	cfg, _, err := flags.load()
	if err != nil {
		return err
	}

	if err := credential.ClearAdminPassword(credential.Keyring{}, cfg.Admin.Username); err != nil {
		return err
	}
	fmt.Println(theme.SuccessStyle.Render("removed stored password for " + cfg.Admin.Username))
	return nil
}
