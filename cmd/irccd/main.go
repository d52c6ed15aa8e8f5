// Command irccd is the daemon entrypoint: it resolves a configuration
// directory, loads irccd.toml, builds a bot.Bot and runs its event
// loop until interrupted. Flag parsing, the config-directory search
// path and the daemonize/pidfile/logfile dance are adapted from the
// teacher's bot/start.go, generalized from gopherbot's JSON
// conf/gopherbot.json + GOPHER_INSTALLDIR/GOPHER_LOCALDIR pair to a
// single TOML document and IRCCD_CONFIG_DIR.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/VividCortex/godaemon"
	"github.com/nullbyte-dev/irccd/internal/bot"
	"github.com/nullbyte-dev/irccd/internal/config"
	"github.com/nullbyte-dev/irccd/internal/ircnet"
	"github.com/nullbyte-dev/irccd/internal/transport"
	"go.uber.org/zap"
)

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// resolveConfigDir mirrors start.go's confSearchPath: an explicit flag
// wins, then an environment variable, then the XDG-ish system
// locations gopherbot itself falls back to.
func resolveConfigDir(flagVal string) (string, error) {
	home, _ := os.UserHomeDir()
	candidates := []string{
		flagVal,
		os.Getenv("IRCCD_CONFIG_DIR"),
		filepath.Join(home, ".config/irccd"),
		"/usr/local/etc/irccd",
		"/etc/irccd",
	}
	for _, c := range candidates {
		if dirExists(c) {
			return c, nil
		}
	}
	return "", fmt.Errorf("could not locate a configuration directory; pass -config or set IRCCD_CONFIG_DIR")
}

func buildLogger(cfg config.LogsConfig, logFileFlag string) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Verbose {
		zcfg = zap.NewDevelopmentConfig()
	}
	path := logFileFlag
	if path == "" {
		path = cfg.File
	}
	if path != "" {
		zcfg.OutputPaths = []string{path}
		zcfg.ErrorOutputPaths = []string{path}
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	if cfg.Syslog {
		// No syslog sink is wired: the examples pack carries no syslog
		// core for zap, and shelling out to logger(1) would reintroduce
		// the blocking-external-process hazard scripthost.go avoids for
		// System.exec. Falling back to the configured file/stderr output
		// is logged once so the operator notices.
		log.Warn("logs.syslog is set but no syslog sink is wired; logging to the configured file/stderr output instead")
	}
	return log, nil
}

func writePidFile(path string, log *zap.Logger) {
	if path == "" {
		return
	}
	f, err := os.Create(path)
	if err != nil {
		log.Warn("could not create pid file", zap.String("path", path), zap.Error(err))
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%d", os.Getpid())
}

// transportTLS builds the control transport's server-side tls.Config,
// returning nil when TLS isn't requested or the certificate pair is
// incomplete (logged, not fatal: the socket still comes up in the
// clear rather than irccd refusing to start over one bad setting).
func transportTLS(cfg config.TransportConfig, log *zap.Logger) *tls.Config {
	if !cfg.TLS {
		return nil
	}
	if cfg.CertFile == "" || cfg.KeyFile == "" {
		log.Warn("transport.tls is set but cert-file/key-file are missing; serving without TLS")
		return nil
	}
	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		log.Warn("could not load transport TLS certificate; serving without TLS", zap.Error(err))
		return nil
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}}
}

func buildBotConfig(doc *config.Document, log *zap.Logger) bot.Config {
	servers := doc.ServerConfigs()
	ids := make([]string, 0, len(servers))
	for id := range servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]ircnet.Config, 0, len(ids))
	for _, id := range ids {
		ordered = append(ordered, servers[id])
	}

	return bot.Config{
		Servers: ordered,
		Rules:   doc.RuleEngine(),
		Hooks:   doc.HookList(),
		Transport: transport.Config{
			Unix:    doc.Transport.Unix,
			Bind:    doc.Transport.Bind,
			TLS:     transportTLS(doc.Transport, log),
			Compact: doc.Transport.Compact,
		},
		PluginBase: doc.Paths.Plugin,
		PluginSearch: bot.PluginSearchConfig{
			Dirs: []string{doc.Paths.Plugin},
			Exts: []string{"", ".plugin", ".js"},
		},
		Version: transport.Version{Major: 1, Minor: 0, Patch: 0},
	}
}

func main() {
	var configDir, logFile, pidFile string
	var daemonize bool
	flag.StringVar(&configDir, "config", "", "path to the configuration directory")
	flag.StringVar(&configDir, "c", "", "path to the configuration directory (shorthand)")
	flag.StringVar(&logFile, "log", "", "path to irccd's log file")
	flag.StringVar(&logFile, "l", "", "path to irccd's log file (shorthand)")
	flag.StringVar(&pidFile, "pid", "", "path to irccd's pid file")
	flag.StringVar(&pidFile, "p", "", "path to irccd's pid file (shorthand)")
	flag.BoolVar(&daemonize, "daemonize", false, "run irccd as a background process")
	flag.BoolVar(&daemonize, "d", false, "run irccd as a background process (shorthand)")
	flag.Parse()

	dir, err := resolveConfigDir(configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if daemonize {
		if godaemon.Stage() == godaemon.StageParent {
			fmt.Fprintf(os.Stderr, "backgrounding irccd, config dir: %s\n", dir)
		}
		if _, _, err := godaemon.MakeDaemon(&godaemon.DaemonAttr{
			ProgramName:   "irccd",
			CaptureOutput: false,
		}); err != nil {
			fmt.Fprintf(os.Stderr, "problem daemonizing: %v\n", err)
			os.Exit(1)
		}
	}

	doc, err := config.Load(filepath.Join(dir, "irccd.toml"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := buildLogger(doc.Logs, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	writePidFile(pidFile, log)
	log.Info("starting up", zap.String("config-dir", dir))

	b := bot.New(buildBotConfig(doc, log), log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		b.Stop("shutting down")
	}()

	if err := b.Start(ctx); err != nil {
		log.Fatal("bot exited with error", zap.Error(err))
	}
}
