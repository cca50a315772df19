package command

import (
	"context"
	"testing"

	"github.com/ka2n/csswrap/api/config"
	"github.com/morikuni/failure/v2"
)

func TestBuild(t *testing.T) {
	cfg := config.Config{
		Java:            "/usr/bin/java",
		Jar:             "/opt/css-validator.jar",
		VendorExtension: config.SeverityWarn,
	}
	tests := []struct {
		name     string
		severity config.Severity
		uri      string
		want     string
	}{
		{
			name:     "quotes escaped",
			severity: config.SeverityWarn,
			uri:      `http://example.com/"q"`,
			want:     `/usr/bin/java -jar /opt/css-validator.jar -output ucn -vextwarning true "http://example.com/\"q\"" 2>&1`,
		},
		{
			name:     "error severity",
			severity: config.SeverityError,
			uri:      "file:/tmp/abc.html",
			want:     `/usr/bin/java -jar /opt/css-validator.jar -output ucn -vextwarning false "file:/tmp/abc.html" 2>&1`,
		},
		{
			name:     "shell expansion escaped",
			severity: config.SeverityIgnore,
			uri:      "http://example.com/$HOME/`id`\\",
			want:     "/usr/bin/java -jar /opt/css-validator.jar -output ucn -vextwarning false \"http://example.com/\\$HOME/\\`id\\`\\\\\" 2>&1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := cfg
			c.VendorExtension = tt.severity
			if got := Build(c, tt.uri); got != tt.want {
				t.Errorf("Build() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestShellExecutor(t *testing.T) {
	ctx := context.Background()

	got, err := ShellExecutor{}.Execute(ctx, `printf 'out'; printf 'err' >&2`)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got != "outerr" {
		t.Errorf("Execute() = %q, want %q", got, "outerr")
	}

	got, err = ShellExecutor{}.Execute(ctx, `printf 'usage'; exit 1`)
	if err != nil || got != "usage" {
		t.Errorf("Execute() with non-zero exit = %q, %v", got, err)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := (ShellExecutor{}).Execute(canceled, "true"); !failure.Is(err, ErrExecute) {
		t.Errorf("Execute() with canceled context error = %v", err)
	}
}

func TestShellExecutor_RoundTripsBuiltCommand(t *testing.T) {
	cfg := config.Config{Java: "printf '%s|%s|%s|%s|%s|%s|%s\\n'", Jar: "x.jar", VendorExtension: config.SeverityWarn}
	uri := "http://example.com/\"q\"$HOME"
	got, err := ShellExecutor{}.Execute(context.Background(), Build(cfg, uri))
	if err != nil {
		t.Fatal(err)
	}
	want := "-jar|x.jar|-output|ucn|-vextwarning|true|" + uri + "\n"
	if got != want {
		t.Errorf("Execute(Build()) = %q, want %q", got, want)
	}
}
