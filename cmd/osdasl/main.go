package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/example/osdasl/internal/config"
	"github.com/example/osdasl/internal/theme"
)

var (
	version            = "dev"
	commit             = ""
	date               = ""
	configPathOverride = ""
)

type runnable interface{ Run() error }

type root struct {
	fs          *flag.FlagSet
	program     string
	stdout      io.Writer
	configPath  string
	themeName   string
	config      *config.Config
	activeTheme *theme.Theme
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func (r *root) subcommand(name string) string {
	return strings.TrimSpace(strings.Join([]string{r.program, name}, " "))
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("osdasl", flag.ContinueOnError),
		program: "osdasl",
		stdout:  os.Stdout,
	}
	r.fs.StringVar(&r.configPath, "config", configPathOverride, "configuration file to load")
	// Precedence: CLI > Env > Config > Default. An empty theme falls
	// through to the environment and then the config file.
	r.fs.StringVar(&r.themeName, "theme", "", "color theme to use (light, dark, contrast or a theme file)")
	r.fs.Usage = usageFunc(r)
	return r
}

// loadConfig reads the configuration. A broken config file is reported
// and replaced by the defaults.
func (r *root) loadConfig() {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
		config.ApplyEnv(cfg, os.LookupEnv)
	}
	r.config = cfg
}

// loadTheme resolves the active theme. Themes defined in the config file
// win over files, embedded and system themes of the same name.
func (r *root) loadTheme() {
	name := r.themeName
	if name == "" {
		name = r.config.Theme
	}
	loader := theme.NewLoader()
	loader.Extra = r.config.Themes
	t, err := loader.Load(name)
	if err != nil {
		if name != "" && name != "default" {
			fmt.Fprintf(os.Stderr, "warning: failed to load theme '%s': %v. using default.\n", name, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return &UsageError{of: r}
		}
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if r.config == nil {
		r.loadConfig()
	}
	r.loadTheme()

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "annotate":
		cmd, err = parseAnnotateCmd(subArgs, r)
	case "watch":
		cmd, err = parseWatchCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
