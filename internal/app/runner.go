// internal/app/runner.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-wallet/internal/config"
	walleterr "github.com/rovshanmuradov/solana-wallet/internal/errors"
	"github.com/rovshanmuradov/solana-wallet/internal/keyring"
	"github.com/rovshanmuradov/solana-wallet/internal/logger"
)

const CLIName = "wallet"

// Коды выхода по виду ошибки.
const (
	ExitOK = iota
	ExitInternal
	ExitUsage
	ExitInsufficientFunds
	ExitNetwork
	ExitRejected
	ExitAmbiguous
)

type Runner struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	// console получает человекочитаемый лог; nil – без консольного лога.
	console io.Writer
}

func NewRunner() *Runner {
	return NewRunnerWithIO(os.Stdin, os.Stdout, os.Stderr)
}

func NewRunnerWithIO(stdin io.Reader, stdout, stderr io.Writer) *Runner {
	return &Runner{stdin: stdin, stdout: stdout, stderr: stderr, console: stderr}
}

type globalFlags struct {
	ConfigPath string
	Network    string
	KeyIndex   int
	Debug      bool
	// Yes задаётся флагом --yes команд, требующих подтверждения.
	Yes bool
}

type runtimeState struct {
	runner   *Runner
	flags    globalFlags
	cfg      *config.Config
	log      *logger.Logger
	ring     *logger.Ring
	services *Services
	reader   *bufio.Reader
}

func (r *Runner) Run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	state := &runtimeState{runner: r}
	root := state.newRootCommand()
	root.SetArgs(args)
	root.SetIn(r.stdin)
	root.SetOut(r.stdout)
	root.SetErr(r.stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true

	err := root.ExecuteContext(ctx)
	state.close()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(r.stderr, "Error: %v\n", err)
	return exitCode(err)
}

func (s *runtimeState) newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   CLIName,
		Short: "Solana wallet: balances, transfers and swaps",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			return s.load(cmd)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return walleterr.Wrap(walleterr.KindValidation, "flags", "parse flags", err)
	})

	cmd.PersistentFlags().StringVar(&s.flags.ConfigPath, "config", "", "Path to config file")
	cmd.PersistentFlags().StringVar(&s.flags.Network, "network", "", "Cluster: "+strings.Join(config.NetworkNames(), ", "))
	cmd.PersistentFlags().IntVar(&s.flags.KeyIndex, "key-index", 0, "Keyring index of the signing key")
	cmd.PersistentFlags().BoolVar(&s.flags.Debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(s.newBalanceCommand())
	cmd.AddCommand(s.newSendCommand())
	cmd.AddCommand(s.newQuoteCommand())
	cmd.AddCommand(s.newSwapCommand())
	cmd.AddCommand(s.newHistoryCommand())
	cmd.AddCommand(s.newTokensCommand())
	cmd.AddCommand(s.newKeysCommand())
	cmd.AddCommand(s.newDashboardCommand())
	return cmd
}

// load читает конфигурацию и поднимает логгер.
func (s *runtimeState) load(cmd *cobra.Command) error {
	cfg, err := config.Load(s.flags.ConfigPath)
	if err != nil {
		return walleterr.Wrap(walleterr.KindValidation, "config", "load configuration", err)
	}
	if s.flags.Network != "" {
		cfg.Network = strings.ToLower(s.flags.Network)
		if cfg.Network == "mainnet" {
			cfg.Network = config.Mainnet
		}
		if err := cfg.Validate(); err != nil {
			return walleterr.Wrap(walleterr.KindValidation, "config", "select network", err)
		}
	}
	if s.flags.Debug {
		cfg.Log.Debug = true
	}
	s.cfg = cfg

	logCfg := logger.Config{
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxAge:     cfg.Log.MaxAge,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   true,
		Debug:      cfg.Log.Debug,
		Console:    s.runner.console,
	}
	// дашборд забирает терминал: логи идут в кольцевой буфер
	if cmd.Name() == "dashboard" {
		s.ring = logger.NewRing(0)
		logCfg.Console = nil
		logCfg.Ring = s.ring
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	s.log = log
	return nil
}

// svc лениво собирает граф сервисов.
func (s *runtimeState) svc() (*Services, error) {
	if s.services != nil {
		return s.services, nil
	}
	services, err := newServices(s.cfg, s.log.Logger)
	if err != nil {
		return nil, err
	}
	s.services = services
	return services, nil
}

func (s *runtimeState) zlog() *zap.Logger {
	if s.log == nil {
		return zap.NewNop()
	}
	return s.log.Logger
}

func (s *runtimeState) close() {
	if s.services != nil {
		if err := s.services.Close(); err != nil {
			s.zlog().Warn("Shutdown finished with errors", zap.Error(err))
		}
		s.services = nil
	}
	if s.log != nil {
		_ = s.log.Sync()
	}
}

func (s *runtimeState) out() io.Writer { return s.runner.stdout }

func exitCode(err error) int {
	if errors.Is(err, keyring.ErrInvalidPassphraseOrCorrupt) || errors.Is(err, ErrKeyringLocked) || errors.Is(err, errDeclined) {
		return ExitUsage
	}
	if walleterr.Ambiguous(err) {
		return ExitAmbiguous
	}
	if _, ok := walleterr.As(err); !ok {
		return ExitInternal
	}
	switch walleterr.KindOf(err) {
	case walleterr.KindValidation:
		return ExitUsage
	case walleterr.KindInsufficientFunds:
		return ExitInsufficientFunds
	case walleterr.KindTransientNetwork, walleterr.KindMetadataUnavailable:
		return ExitNetwork
	case walleterr.KindSimulation, walleterr.KindOnChainRejection, walleterr.KindBuild:
		return ExitRejected
	case walleterr.KindConfirmationTimeout:
		return ExitAmbiguous
	default:
		return ExitInternal
	}
}
