package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd renders a snapshot when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "arborsnap [PATH]",
	Short: "Render a tree view of a directory or scene outline",
	Long: `arborsnap lays out a directory or a scene outline with the arbor tree
viewer and writes the result as a PNG, an SVG or plain terminal text.
Use "arborsnap view" to browse the same tree interactively.`,
	Args:              cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return initLogging(cmd == viewCmd) },
	RunE:              runSnapshot,
	SilenceUsage:      true,
}

// Execute runs the root command. It is called by main.main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.arbor.yaml)")
	pf.String("filter", "", "show only items whose label matches, with their ancestors")
	pf.Bool("fuzzy", false, "match the filter as a fuzzy subsequence instead of a substring")
	pf.Bool("expand-all", false, "expand every branch before rendering")
	pf.StringSlice("reveal", nil, "expand the ancestors of these keys (paths or object ids) and select them")
	pf.String("theme", "", "YAML theme file")
	pf.Bool("grid", false, "use the wrapping grid layout instead of the indented tree")
	pf.Bool("hidden", false, "include dot files")
	pf.Bool("sizes", false, "append human readable sizes to file labels")
	pf.Bool("thumbs", false, "draw image thumbnails next to image files and textured objects")
	pf.String("state", "", "restore expansion, selection, filter and scroll from this state file")
	pf.String("save-state", "", "write the final viewer state to this file")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	f := rootCmd.Flags()
	f.StringP("format", "f", "png", "output format: png, svg or term")
	f.StringP("out", "o", "", "output file (default stdout)")
	f.Int("width", 320, "width in pixels")
	f.Int("height", 0, "height in pixels; 0 fits the content")
	f.String("script", "", "replay a JSON input script against the view before writing")

	_ = viper.BindPFlags(pf)
	_ = viper.BindPFlags(f)
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))

	rootCmd.AddCommand(viewCmd)
}

// initConfig reads in the config file and ARBOR_* environment variables.
func initConfig() {
	viper.SetConfigFile(getCfgFile(cfgFile))

	viper.SetDefault("log.level", log.InfoLevel.String())
	viper.SetDefault("log.path", "")
	viper.SetDefault("width", 320)
	viper.SetDefault("format", "png")

	viper.SetEnvPrefix("arbor")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// A missing config file is fine; flags and env still apply.
	_ = viper.ReadInConfig()
}

// initLogging configures logrus from the log.* keys. Interactive sessions
// own the terminal, so they only log when log.path names a file.
func initLogging(interactive bool) error {
	formatter := new(log.TextFormatter)
	formatter.DisableTimestamp = true
	log.SetFormatter(formatter)

	level, err := log.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return err
	}
	log.SetLevel(level)

	var out io.Writer = os.Stderr
	if p := viper.GetString("log.path"); p != "" {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
		if err != nil {
			return err
		}
		out = f
	} else if interactive {
		out = io.Discard
	}
	log.SetOutput(out)

	if used := viper.ConfigFileUsed(); used != "" {
		if _, err := os.Stat(used); err == nil {
			log.Debugf("using config file %s", used)
		}
	}
	return nil
}

// getCfgFile returns the config path from the flag, else the first *.yaml in
// an "arbor" directory under the XDG config dirs or ~/.config, else
// ~/.arbor.yaml.
func getCfgFile(fromFlag string) string {
	if fromFlag != "" {
		return fromFlag
	}

	home, err := homedir.Dir()
	if err != nil {
		return ".arbor.yaml"
	}

	dirs := []string{os.Getenv("XDG_CONFIG_HOME")}
	dirs = append(dirs, strings.Split(os.Getenv("XDG_CONFIG_DIRS"), ":")...)
	dirs = append(dirs, filepath.Join(home, ".config"))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if file := findInPath(dir); file != "" {
			return file
		}
	}
	return filepath.Join(home, ".arbor.yaml")
}

// findInPath returns the first *.yaml file in dir/arbor, or "".
func findInPath(dir string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "arbor", "*.yaml"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}
