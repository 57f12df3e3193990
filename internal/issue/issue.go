// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/skillkit/skillkit/pkg/finding"
	"github.com/skillkit/skillkit/pkg/skillpack"

	"github.com/charmbracelet/glamour"
)

// Id identifies a guide.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	PackageRootInvalidId
	EntryNotFoundId
	BudgetPolicyInvalidId
	ResourceCeilingId
	PatternInvalidId
	OptionInvalidId
	PackagingBlockedId
)

type (
	// MarkdownMsg is guide text in markdown.
	MarkdownMsg string

	// Issue is a longer explanation of a failure class.
	Issue struct {
		id    Id
		mdMsg MarkdownMsg
	}
)

// Id returns the guide identifier.
func (i *Issue) Id() Id {
	return i.id
}

// MarkdownMsg returns the raw markdown.
func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

// Render renders the guide for a terminal. An empty stylePath selects the
// automatic dark/light style.
func (i *Issue) Render(stylePath string) (string, error) {
	if stylePath == "" {
		stylePath = "auto"
	}
	return render(string(i.mdMsg), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration

skillkit reads the first of these files:

1. the file given with ` + "`--config`" + `
2. ` + "`.skillkit.cue`" + ` in the package directory
3. ` + "`config.cue`" + ` in the user configuration directory

## Things you can try
- Print the effective configuration:
~~~
$ skillkit config show
~~~
- Write a commented default file and edit it:
~~~
$ skillkit config init
~~~`,
	}

	packageRootInvalidIssue = &Issue{
		id: PackageRootInvalidId,
		mdMsg: `
# Package directory not usable

The path given is missing or is not a directory.

## Things you can try
- Pass the directory that contains ` + "`SKILL.md`" + `:
~~~
$ skillkit validate path/to/my-skill
~~~`,
	}

	entryNotFoundIssue = &Issue{
		id: EntryNotFoundId,
		mdMsg: `
# Entry document not found

Reachability starts at the entry documents (` + "`SKILL.md`" + ` by default).
Without them every file would be reported as an orphan, so validation stops.

## Things you can try
- Create the entry document
- Name a different entry:
~~~
$ skillkit validate --entry README.md
~~~
- Or set ` + "`entries`" + ` in ` + "`.skillkit.cue`",
	}

	budgetPolicyInvalidIssue = &Issue{
		id: BudgetPolicyInvalidId,
		mdMsg: `
# Invalid budget policy

Each tier needs a positive line limit and a warning threshold between 0
(exclusive) and 1 (inclusive).

~~~cue
budget: {
	P0: {hard_limit: 150, warn_threshold: 0.8}
	P1: {hard_limit: 100, warn_threshold: 0.8}
	P2: {hard_limit: 300, warn_threshold: 0.8}
}
~~~`,
	}

	resourceCeilingIssue = &Issue{
		id: ResourceCeilingId,
		mdMsg: `
# Package too large

The scan stopped because the directory holds more files or bytes than the
configured ceiling. This usually means the command was pointed at a parent
directory instead of the package itself.

## Things you can try
- Check the path you passed
- Add generated directories to ` + "`ignore`" + `
- Raise the ceiling:
~~~cue
limits: {max_files: 20000, max_bytes: 268435456}
~~~`,
	}

	patternInvalidIssue = &Issue{
		id: PatternInvalidId,
		mdMsg: `
# Invalid glob pattern

Patterns in ` + "`ignore`" + `, ` + "`orphan_allow`" + ` and ` + "`tiers`" + ` use doublestar syntax and are
matched against package-relative paths with forward slashes.

| Pattern | Matches |
|---|---|
| ` + "`drafts/**`" + ` | everything under drafts/ |
| ` + "`**/*.tmp.md`" + ` | any .tmp.md file |
| ` + "`scripts/{a,b}.py`" + ` | scripts/a.py and scripts/b.py |`,
	}

	optionInvalidIssue = &Issue{
		id: OptionInvalidId,
		mdMsg: `
# Invalid option

A flag, environment variable or configuration value is not accepted.

## Things you can try
~~~
$ skillkit validate --help
$ skillkit config show
~~~`,
	}

	packagingBlockedIssue = &Issue{
		id: PackagingBlockedId,
		mdMsg: `
# Packaging blocked

The package failed validation, so no archive was written.

## Things you can try
- Fix the reported issues and run ` + "`skillkit pack`" + ` again
- Package anyway:
~~~
$ skillkit pack --force path/to/my-skill
~~~`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():    configLoadFailedIssue,
		packageRootInvalidIssue.Id():  packageRootInvalidIssue,
		entryNotFoundIssue.Id():       entryNotFoundIssue,
		budgetPolicyInvalidIssue.Id(): budgetPolicyInvalidIssue,
		resourceCeilingIssue.Id():     resourceCeilingIssue,
		patternInvalidIssue.Id():      patternInvalidIssue,
		optionInvalidIssue.Id():       optionInvalidIssue,
		packagingBlockedIssue.Id():    packagingBlockedIssue,
	}

	reasonIssues = map[finding.Reason]Id{
		finding.ReasonBadRoot:         PackageRootInvalidId,
		finding.ReasonMissingEntry:    EntryNotFoundId,
		finding.ReasonMalformedPolicy: BudgetPolicyInvalidId,
		finding.ReasonResourceCeiling: ResourceCeilingId,
		finding.ReasonBadPattern:      PatternInvalidId,
		finding.ReasonBadOption:       OptionInvalidId,
	}
)

// Values returns every guide ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return int(a.id) - int(b.id)
	})
}

// Get returns the guide for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}

// ForError returns the guide matching err, or nil when none applies.
// Configuration loading failures map to ConfigLoadFailedId.
func ForError(err error) *Issue {
	if err == nil {
		return nil
	}
	if errors.Is(err, skillpack.ErrPackagingBlocked) {
		return Get(PackagingBlockedId)
	}
	var ae *ActionableError
	if errors.As(err, &ae) && strings.Contains(ae.Operation, "configuration") {
		return Get(ConfigLoadFailedId)
	}
	if ce, ok := finding.IsConfiguration(err); ok {
		return Get(reasonIssues[ce.Reason])
	}
	return nil
}
