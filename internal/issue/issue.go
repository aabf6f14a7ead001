// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"
	"strings"

	"github.com/charmbracelet/glamour"
)

type Id int

const (
	MetadataMissingId Id = iota + 1
	VersionNotFoundId
	PackageNotFoundId
	RemoteUnreachableId
	StepFailedId
	ConfigLoadFailedId
	InvalidArchiveId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- " + string(link) + "\n")
		}
		for _, link := range i.extLinks {
			md.WriteString("- " + string(link) + "\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	metadataMissingIssue = &Issue{
		id: MetadataMissingId,
		mdMsg: `
# Metadata file not found

The version is read from ` + "`<package>/__init__.py`" + ` by default, and that file does not exist.

## Things you can try
- Run pyrelease from the project root (the directory holding ` + "`setup.py`" + `).
- Name the package explicitly:
~~~
$ pyrelease release <account> --package <name>
~~~
- Point ` + "`metadata_file`" + ` in your config at the file that declares the version.`,
		docLinks: []HttpLink{"https://packaging.python.org/en/latest/guides/single-sourcing-package-version/"},
	}

	versionNotFoundIssue = &Issue{
		id: VersionNotFoundId,
		mdMsg: `
# Version string not found

The metadata file has no line of the form:
~~~python
__version__ = '0.1.0'
~~~

## Things you can try
- Make sure the operators are space separated, as above.
- Use a plain dotted triple such as ` + "`1.2.3`" + `; pre-release suffixes are not supported.`,
		docLinks: []HttpLink{"https://semver.org"},
	}

	packageNotFoundIssue = &Issue{
		id: PackageNotFoundId,
		mdMsg: `
# Package directory could not be inferred

Every subdirectory was excluded (build, dist, docs, .git, __pycache__, *.egg-info and friends).

## Things you can try
- Pass the package with ` + "`--package <name>`" + `.
- Check ` + "`exclude_dirs`" + ` in your config.`,
		docLinks: []HttpLink{"https://packaging.python.org/en/latest/tutorials/packaging-projects/"},
	}

	remoteUnreachableIssue = &Issue{
		id: RemoteUnreachableId,
		mdMsg: `
# Latest release could not be retrieved

The repository may be private, misspelled, or the API rate limit may be exhausted.

## Things you can try
- Check the account and package names.
- Set a token for private repositories and higher rate limits:
~~~
$ export GITHUB_TOKEN=ghp_...
~~~`,
		docLinks: []HttpLink{"https://docs.github.com/en/rest/releases/releases#get-the-latest-release"},
	}

	stepFailedIssue = &Issue{
		id: StepFailedId,
		mdMsg: `
# A release step failed

The sequence stopped at the failing step; later steps did not run.

## Things you can try
- Re-run with ` + "`--verbosity 4`" + ` to see every command.
- If the tag was already pushed, bump the version before retrying.`,
		docLinks: []HttpLink{"https://twine.readthedocs.io/en/stable/"},
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

## Things you can try
- Validate the file against the schema:
~~~
$ pyrelease config dump
~~~
- Recreate a default file with ` + "`pyrelease config init`" + `.`,
		docLinks: []HttpLink{"https://cuelang.org/docs/"},
	}

	invalidArchiveIssue = &Issue{
		id: InvalidArchiveId,
		mdMsg: `
# Archive could not be processed

The input is missing, is not a zip file, or contains entries that would be written outside the target directory.`,
		docLinks: []HttpLink{"https://pkg.go.dev/archive/zip"},
	}

	issues = map[Id]*Issue{
		metadataMissingIssue.Id():   metadataMissingIssue,
		versionNotFoundIssue.Id():   versionNotFoundIssue,
		packageNotFoundIssue.Id():   packageNotFoundIssue,
		remoteUnreachableIssue.Id(): remoteUnreachableIssue,
		stepFailedIssue.Id():        stepFailedIssue,
		configLoadFailedIssue.Id():  configLoadFailedIssue,
		invalidArchiveIssue.Id():    invalidArchiveIssue,
	}
)

func Get(id Id) *Issue {
	return issues[id]
}
