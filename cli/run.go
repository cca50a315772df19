package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ka2n/csswrap/api"
	"github.com/ka2n/csswrap/api/config"
	"github.com/ka2n/csswrap/api/output"
	"github.com/ka2n/csswrap/mcp"
	"github.com/mattn/go-isatty"
	"github.com/morikuni/failure/v2"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	// Command line flags
	browserFlag     bool
	pagerFlag       bool
	contentFileFlag string
	formatValue     = formatFlag{Value: formatMarkdown}
	flagNames       []string
	cfg             = config.Default()

	// Root command
	rootCmd = &cobra.Command{
		Use:           "csswrap [url]",
		Short:         "Validate the CSS of a page with the W3C CSS validator",
		SilenceErrors: true,
		SilenceUsage:  true,
		Long: `csswrap validates the stylesheets of an HTML page, or a stylesheet itself,
with the W3C CSS validator jar. Linked stylesheets are downloaded first so the
validator only reads local files; the report refers to the original URLs.

Examples:
  csswrap https://example.com/
  csswrap --content-file style.css https://example.com/style.css
  csswrap --format json --flag ignore-warnings https://example.com/`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return failure.New(NoURLSpecified,
					failure.Message(fmt.Sprintf("accepts 1 arg, but received %d", len(args))),
				)
			}
			return nil
		},
		RunE: runRoot,
	}

	// Version command
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print detailed version information about csswrap",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("csswrap version %s\n", api.Version)
			fmt.Printf("  commit: %s\n", api.VersionCommit)
		},
	}
)

func init() {
	f := rootCmd.Flags()
	f.BoolVarP(&browserFlag, "browser", "b", false, "Open the online W3C validator for the URL instead")
	f.BoolVarP(&pagerFlag, "pager", "p", false, "Show the report in an interactive pager")
	f.StringVarP(&contentFileFlag, "content-file", "c", "", "Validate this file (- for stdin) instead of fetching the URL")
	f.VarP(&formatValue, "format", "f", "Report format: text, markdown or json")
	f.StringVar(&cfg.Java, "java", cfg.Java, "Java executable (env "+config.EnvJava+")")
	f.StringVar(&cfg.Jar, "jar", cfg.Jar, "CSS validator jar (env "+config.EnvJar+")")
	f.Var(&cfg.VendorExtension, "vendor-extension", "Vendor extension severity: warn, error or ignore")
	f.StringSliceVar(&cfg.IgnoreDomains, "ignore-domain", nil, "Drop messages about resources on this domain and its subdomains")
	f.StringSliceVar(&flagNames, "flag", nil, "Enable a filter: ignore-warnings, ignore-false-image-data-url-messages")
	f.StringVar((*string)(&cfg.Strategy), "strategy", string(cfg.Strategy), "Report mapping strategy: structured or raw")
	f.IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "Linked stylesheets fetched in parallel")
	f.StringVar(&cfg.UserAgent, "user-agent", "", "User-Agent header")
	f.DurationVar(&cfg.Timeout, "timeout", 0, "Timeout of each request")
	f.StringToStringVar(&cfg.Cookies, "cookie", nil, "Cookie sent with every request (name=value)")
	f.StringVar(&cfg.Username, "user", "", "Basic auth user")
	f.StringVar(&cfg.Password, "password", "", "Basic auth password")
	f.StringVar(&cfg.TempDir, "temp-dir", "", "Directory for downloaded resources")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcp.Command())
}

// Run executes the main CLI functionality
func Run(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func runRoot(cmd *cobra.Command, args []string) error {
	c := cfg
	c.URL = args[0]
	for _, name := range flagNames {
		if err := c.SetFlag(name, true); err != nil {
			return err
		}
	}
	if contentFileFlag != "" {
		content, err := readContent(contentFileFlag, cmd.InOrStdin())
		if err != nil {
			return err
		}
		c.Content = content
	}
	c, err := config.New(c)
	if err != nil {
		return err
	}

	if browserFlag {
		u := onlineValidatorURL(c)
		fmt.Fprintf(cmd.OutOrStdout(), "Opening the online validator: %s\n", u)
		if err := browser.OpenURL(u); err != nil {
			return failure.Wrap(err)
		}
		return nil
	}

	out, err := api.NewWrapper(c).Validate(cmd.Context(), c)
	if err != nil {
		return failure.Wrap(err)
	}
	if err := printReport(cmd.OutOrStdout(), out); err != nil {
		return failure.Wrap(err)
	}
	if !out.IsValid() {
		return failure.New(ValidationFailed,
			failure.Message(summary(out)),
		)
	}
	return nil
}

func readContent(path string, stdin io.Reader) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", failure.Wrap(err,
			failure.WithCode(ContentNotRead),
			failure.Context{"path": path},
		)
	}
	return string(b), nil
}

func printReport(w io.Writer, out output.Output) error {
	switch formatValue.Value {
	case formatJSON:
		return writeJSON(w, out)
	case formatText:
		return writeText(w, out)
	}

	md := markdown(out)
	if !isTerminal(w) {
		_, err := io.WriteString(w, md)
		return err
	}
	rendered, err := renderMarkdown(md)
	if err != nil {
		return err
	}
	if pagerFlag {
		return RunPager(rendered)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
