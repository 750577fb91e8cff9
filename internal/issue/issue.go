// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

// Id identifies an entry in the issue catalog.
type Id int

const (
	FileNotFoundId Id = iota + 1
	ConfigLoadFailedId
	SetupFailedId
	CommandFileParseErrorId
	NoCommandsId
	CommandNotFoundId
	CommandCannotExecuteId
	RuntimeNotAvailableId
	ShellNotFoundId
	ScriptExecutionFailedId
	PermissionDeniedId
	ArtifactCorruptId
	WatchLimitReachedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // project documentation about this issue type
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

// Render renders the issue as terminal Markdown using the given glamour style.
func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n## See also\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	fileNotFoundIssue = &Issue{
		id: FileNotFoundId,
		mdMsg: `
# File not found!

A file livecmd needs does not exist.

## Things you can try:
- Check the path for typos
- Paths in livecmd.cue are relative to the workspace directory
- Create a workspace configuration:
~~~
$ livecmd init
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

The configuration file could not be read or does not match the schema.

## Lookup order:
1. The file passed with ` + "`--config`" + `
2. ` + "`livecmd.cue`" + ` in the workspace directory
3. ` + "`config.cue`" + ` in the user configuration directory

## Things you can try:
- Check the CUE syntax of the file
- Compare it with the defaults:
~~~
$ livecmd config show
~~~
- Check ` + "`LIVECMD_*`" + ` environment variables for invalid values`,
	}

	setupFailedIssue = &Issue{
		id: SetupFailedId,
		mdMsg: `
# Failed to prepare the workspace!

livecmd creates the scripts folder, the libraries folder and the folder of
the module artifact when it starts. One of them could not be created.

## Things you can try:
- Check the permissions of the workspace directory
- Point ` + "`scripts_dir`" + `, ` + "`libraries_dir`" + ` and ` + "`output_path`" + ` at writable locations
- Make sure the scripts and libraries folders are different`,
	}

	commandFileParseErrorIssue = &Issue{
		id: CommandFileParseErrorId,
		mdMsg: `
# Failed to compile the command files!

At least one command file has errors, so no commands are available until it
is fixed. The diagnostics above name the file, line and column.

## Things you can try:
- Check the CUE syntax of the file
- Make sure every command has a non-empty ` + "`script`" + `
- Check that ` + "`accepts`" + ` is a valid regular expression and ` + "`timeout`" + ` a duration such as ` + "`30s`" + `

## Example command file:
~~~cue
commands: {
	greet: {
		description: "Say hello"
		script:      "echo hello $1"
		accepts:     "^[a-z]+$"
	}
}
~~~`,
	}

	noCommandsIssue = &Issue{
		id: NoCommandsId,
		mdMsg: `
# No commands found!

The last compilation published an empty command set.

## Things you can try:
- Add a ` + "`*.cue`" + ` command file to the scripts folder
- List the diagnostics of the last build:
~~~
$ livecmd build
~~~`,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

The requested command is not part of the current generation.

## Things you can try:
- List available commands:
~~~
$ livecmd list
~~~
- Command names are case-sensitive
- A command defined twice keeps its first definition; check the warnings`,
	}

	commandCannotExecuteIssue = &Issue{
		id: CommandCannotExecuteId,
		mdMsg: `
# Command refused the argument!

The command rejected the argument before running.

## Things you can try:
- Pass an argument if the command sets ` + "`requires_argument`" + `
- Make sure the argument matches the command's ` + "`accepts`" + ` pattern
- Show the command details:
~~~
$ livecmd list --long
~~~`,
	}

	runtimeNotAvailableIssue = &Issue{
		id: RuntimeNotAvailableId,
		mdMsg: `
# Runtime not available!

The runtime selected for this command cannot run on this host.

## Things you can try:
- Use the embedded interpreter, which is always available:
~~~cue
runtime: default: "virtual"
~~~
- Install a POSIX shell for the ` + "`native`" + ` runtime`,
	}

	shellNotFoundIssue = &Issue{
		id: ShellNotFoundId,
		mdMsg: `
# Shell not found!

The native runtime could not find a shell.

## Things you can try:
- Set ` + "`runtime.shell`" + ` to the absolute path of a shell
- Check that ` + "`$SHELL`" + `, ` + "`bash`" + ` or ` + "`sh`" + ` is on your PATH
- Switch the command to the ` + "`virtual`" + ` runtime`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed!

The command ran but its script failed or exited with a non-zero status.

## Things you can try:
- Run the script by hand to see its output
- Check the functions it calls from the libraries folder
- Increase the command's ` + "`timeout`" + ` if it was cancelled`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

livecmd does not have permission to read or write a file it needs.

## Things you can try:
- Check the permissions of the scripts and libraries folders
- Make sure the artifact folder is writable`,
	}

	artifactCorruptIssue = &Issue{
		id: ArtifactCorruptId,
		mdMsg: `
# Module artifact is unusable!

The module artifact is damaged or was written by an incompatible version.

## Things you can try:
- Rebuild it from the sources:
~~~
$ livecmd build
~~~
- Delete the artifact file and build again`,
	}

	watchLimitReachedIssue = &Issue{
		id: WatchLimitReachedId,
		mdMsg: `
# Too many watched files!

The operating system refused to watch more files or directories.

## Things you can try:
- Add noisy folders to ` + "`watch.ignore`" + `
- On Linux, raise the inotify limit:
~~~
$ sudo sysctl fs.inotify.max_user_watches=524288
~~~`,
		extLinks: []HttpLink{"https://man7.org/linux/man-pages/man7/inotify.7.html"},
	}

	issues = map[Id]*Issue{
		fileNotFoundIssue.Id():          fileNotFoundIssue,
		configLoadFailedIssue.Id():      configLoadFailedIssue,
		setupFailedIssue.Id():           setupFailedIssue,
		commandFileParseErrorIssue.Id(): commandFileParseErrorIssue,
		noCommandsIssue.Id():            noCommandsIssue,
		commandNotFoundIssue.Id():       commandNotFoundIssue,
		commandCannotExecuteIssue.Id():  commandCannotExecuteIssue,
		runtimeNotAvailableIssue.Id():   runtimeNotAvailableIssue,
		shellNotFoundIssue.Id():         shellNotFoundIssue,
		scriptExecutionFailedIssue.Id(): scriptExecutionFailedIssue,
		permissionDeniedIssue.Id():      permissionDeniedIssue,
		artifactCorruptIssue.Id():       artifactCorruptIssue,
		watchLimitReachedIssue.Id():     watchLimitReachedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	values := slices.Collect(maps.Values(issues))
	slices.SortFunc(values, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}
