// Package issue builds prefilled bug-report issues from command log
// files and squeezes them into a browser-safe URL.
package issue

import (
	"fmt"
	"net/url"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"bugreport/internal/commandlog"
	"bugreport/internal/config"
	"bugreport/internal/minify"
	"bugreport/internal/repository"
	"bugreport/internal/sysinfo"
)

const (
	// maxURLBuildTries bounds the capacity feedback loop; URL escaping
	// expands the body unpredictably, so each round re-minifies with the
	// overshoot subtracted.
	maxURLBuildTries = 25

	autoGenComment = "<!--auto-generated-->"

	githubURL      = "https://github.com"
	newIssueSuffix = "/issues/new"
)

var bodyTemplate = template.Must(template.New("issue").Parse(`

### **This is autogenerated. Please review and update as needed.**

## Describe the bug

**Command Name**
` + "`{{.CommandName}}`" + `

**Errors:**
{{.ErrorsString}}

## To Reproduce:
Steps to reproduce the behavior. Note that argument values have been redacted, as they may contain sensitive information.

- _Put any pre-requisite steps here..._
- ` + "`{{.ExecutedCommand}}`" + `

## Expected Behavior

## Environment Summary
` + "```" + `
{{.Platform}}
{{.GoInfo}}
{{.Shell}}

{{.CLIVersion}}
` + "```" + `
## Additional Context

<!--Please don't remove this:-->
{{.AutoGenComment}}

`))

var prefixTemplate = template.Must(template.New("prefix").Parse(`

BEGIN TEMPLATE
===============
**A browser has been opened to {{.URL}} to create an issue.**
**You can also run ` + "`bugreport --verbose`" + ` to emit the full output to stderr.**
`))

type bodyData struct {
	CommandName     string
	ErrorsString    string
	ExecutedCommand string
	Platform        string
	GoInfo          string
	Shell           string
	CLIVersion      string
	AutoGenComment  string
}

// Issue is a fully built bug report, ready to hand to the browser.
type Issue struct {
	// Prefix is the banner printed before the body.
	Prefix string

	// URL is the prefilled new-issue link, capped to the URL budget.
	URL string

	// Body is the unminified issue body, for --verbose output.
	Body string

	// IsPlugin is set when the issue targets a plugin repository.
	IsPlugin bool
}

// Builder assembles issues against one configuration and environment.
type Builder struct {
	cfg *config.Config
	env sysinfo.Summary
	log *zap.Logger
}

// NewBuilder creates an issue builder.
func NewBuilder(cfg *config.Config, env sysinfo.Summary, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{cfg: cfg, env: env, log: logger}
}

// Build produces the issue for a recent command, or a generic issue when
// file is nil.
func (b *Builder) Build(file *commandlog.File) (Issue, error) {
	data := bodyData{
		Platform:       b.env.Platform,
		GoInfo:         b.env.GoVersion,
		Shell:          b.env.Shell,
		CLIVersion:     b.env.CLIVersion,
		AutoGenComment: autoGenComment,
	}

	var errorsList []string
	var isPlugin bool
	var pluginName string

	if file != nil {
		data.CommandName = file.Metadata().Command

		cmdData := file.Data()
		errorsList = cmdData.Errors
		if cmdData.CommandArgs != "" {
			data.ExecutedCommand = b.cfg.CLI.Name + " " + cmdData.CommandArgs
		}
		if cmdData.ExtensionName != "" {
			isPlugin = true
			pluginName = cmdData.ExtensionName
			data.CommandName += fmt.Sprintf("\nPlugin Name: %s. Version: %s.",
				cmdData.ExtensionName, cmdData.ExtensionVersion)
		}
	}

	minifier := minify.New(errorsList, b.log)

	prettyURL := b.cfg.Issues.PrettyURL
	if isPlugin {
		prettyURL = b.pluginRepoURL(pluginName, false)
	}

	data.ErrorsString = minifier.String()
	originalBody, err := renderBody(data)
	if err != nil {
		return Issue{}, err
	}

	maxLen := b.cfg.Issues.MaxURLLength

	// First try at full capacity, then feed the overshoot back into the
	// minifier until the encoded URL fits.
	capacity := maxLen
	issueURL := b.minifiedIssueURL(file, data, minifier, isPlugin, pluginName, capacity)
	capacity -= len(issueURL) - maxLen

	for tries := 0; len(issueURL) > maxLen && tries < maxURLBuildTries; tries++ {
		issueURL = b.minifiedIssueURL(file, data, minifier, isPlugin, pluginName, capacity)
		capacity -= len(issueURL) - maxLen
	}

	// Another part of the issue can be unexpectedly long; truncate the
	// whole URL and warn rather than fail.
	if len(issueURL) > maxLen {
		issueURL = issueURL[:maxLen]
		b.log.Warn("failed to properly minify issue url; use 'bugreport --verbose' to get the full issue output")
	}

	b.log.Debug("built issue url", zap.Int("url_length", len(issueURL)))

	prefix, err := renderPrefix(prettyURL)
	if err != nil {
		return Issue{}, err
	}

	return Issue{
		Prefix:   prefix,
		URL:      issueURL,
		Body:     originalBody,
		IsPlugin: isPlugin,
	}, nil
}

// minifiedIssueURL renders the issue with the errors minified to the
// remaining capacity and encodes it into a new-issue URL.
func (b *Builder) minifiedIssueURL(file *commandlog.File, data bodyData, minifier *minify.ErrorMinifier,
	isPlugin bool, pluginName string, capacity int) string {

	// Size everything except the errors, then hand the rest of the
	// budget to the minifier.
	data.ErrorsString = ""
	noErrorsBody, err := renderBody(data)
	if err != nil {
		b.log.Debug("failed to render issue body", zap.Error(err))
		return ""
	}
	b.log.Debug("issue body length before errors", zap.Int("length", len(noErrorsBody)))
	minifier.SetCapacity(capacity - len(noErrorsBody))

	data.ErrorsString = minifier.String()
	body, err := renderBody(data)
	if err != nil {
		b.log.Debug("failed to render issue body", zap.Error(err))
		return ""
	}

	base := b.cfg.Issues.RawURL
	if isPlugin {
		base = b.pluginRepoURL(pluginName, true)
	}
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}

	query := url.Values{"body": {body}}
	if file != nil && file.Failed() {
		query.Set("template", "Bug_report.md")
	}
	return base + "?" + query.Encode()
}

// pluginRepoURL resolves a plugin to its own issue tracker via the
// repository index, falling back to the shared plugins repo.
func (b *Builder) pluginRepoURL(pluginName string, raw bool) string {
	idx, err := repository.OpenIndex(b.cfg.Plugins.IndexPath)
	if err != nil {
		b.log.Debug("failed to open repository index", zap.Error(err))
	} else if rec, ok := idx.Resolve(pluginName); ok && strings.Contains(rec.URL, githubURL) {
		return strings.TrimRight(rec.URL, "/") + newIssueSuffix
	}

	if raw {
		return b.cfg.Plugins.RawURL
	}
	return b.cfg.Plugins.PrettyURL
}

func renderBody(data bodyData) (string, error) {
	var sb strings.Builder
	if err := bodyTemplate.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render issue body: %w", err)
	}
	return sb.String(), nil
}

func renderPrefix(prettyURL string) (string, error) {
	var sb strings.Builder
	if err := prefixTemplate.Execute(&sb, struct{ URL string }{prettyURL}); err != nil {
		return "", fmt.Errorf("failed to render issue banner: %w", err)
	}
	return sb.String(), nil
}
