package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strings"

	"github.com/kinogutschein/internal/provider"

	"go.uber.org/zap"
)

// commandFunc 子命令处理函数
type commandFunc func(s *session, args []string) error

type command struct {
	run     commandFunc
	summary string
}

var commands = map[string]command{
	"voucher":  {run: runVoucherCommand, summary: "Gutscheine auflisten, anzeigen, anlegen, löschen"},
	"edit":     {run: runEditCommand, summary: "Entwurf bearbeiten (new, start, mark-redeemed, set, redemption, submit, cancel)"},
	"location": {run: runLocationCommand, summary: "Kinos auflisten, hinzufügen, entfernen"},
	"summary":  {run: runSummaryCommand, summary: "Übersicht: aktiv, eingelöst, abgelaufen"},
	"timeline": {run: runTimelineCommand, summary: "Kino-Timeline eines Jahres"},
	"audit":    {run: runAuditCommand, summary: "Status und Nutzungen prüfen"},
	"export":   {run: runExportCommand, summary: "Gutscheine exportieren (csv, txt, xlsx, pdf)"},
	"seed":     {run: runSeedCommand, summary: "Beispielgutscheine (neu) anlegen"},
}

// session 单次命令执行上下文
type session struct {
	ctx       context.Context
	container *provider.Container
	log       *zap.SugaredLogger
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	color     bool
}

// Run 命令行入口：解析子命令并执行
func Run(opts Options, args []string) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if len(args) == 0 || isHelpArg(args[0]) {
		printUsage(opts.Stdout)
		if len(args) == 0 {
			return usageErrorf("kein Befehl angegeben")
		}
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(opts.Stderr)
		return usageErrorf("unbekannter Befehl: %s", args[0])
	}

	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}

	container, err := Bootstrap(ctx, opts)
	if err != nil {
		return WrapError(ExitCommandError, "Initialisierung fehlgeschlagen", err)
	}
	defer func() {
		if closeErr := container.Close(); closeErr != nil {
			opts.Logger.Warnw("app_container_close_failed", "error", closeErr)
		}
	}()

	s := &session{
		ctx:       ctx,
		container: container,
		log:       opts.Logger.With("command", args[0]),
		in:        bufio.NewReader(opts.Stdin),
		out:       opts.Stdout,
		errOut:    opts.Stderr,
		color:     opts.Color,
	}
	if err := cmd.run(s, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		mapped := mapCommandError(err)
		if mapped.Err != nil && mapped.Code == ExitCommandError {
			s.log.Errorw("command_failed", "message", mapped.Message, "error", mapped.Err)
		}
		return mapped
	}
	return nil
}

func isHelpArg(arg string) bool {
	switch arg {
	case "help", "-h", "-help", "--help":
		return true
	default:
		return false
	}
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(w, "Verwendung: kinogutschein <befehl> [optionen]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
}

// newFlagSet 创建子命令参数解析器
func (s *session) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(s.errOut)
	return fs
}

// parseArgs 解析参数，允许位置参数与选项交错出现
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, usageErrorf("%s: %v", fs.Name(), err)
		}
		rest := fs.Args()
		if len(rest) == 0 {
			return positional, nil
		}
		positional = append(positional, rest[0])
		args = rest[1:]
	}
}

// visited 返回显式设置过的选项名
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

// dispatch 按子动作分派
func dispatch(s *session, group string, args []string, actions map[string]commandFunc) error {
	if len(args) == 0 {
		return usageErrorf("%s: Aktion fehlt (%s)", group, actionNames(actions))
	}
	action, ok := actions[args[0]]
	if !ok {
		return usageErrorf("%s: unbekannte Aktion %q (%s)", group, args[0], actionNames(actions))
	}
	err := action(s, args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	return err
}

func actionNames(actions map[string]commandFunc) string {
	names := make([]string, 0, len(actions))
	for name := range actions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// confirm 询问用户确认，仅 j/ja/y/yes 视为同意
func (s *session) confirm(prompt string) bool {
	fmt.Fprintf(s.out, "%s [j/N] ", prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(s.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "j", "ja", "y", "yes":
		return true
	default:
		return false
	}
}
