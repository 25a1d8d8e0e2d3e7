package config

// SourceFileExt is the only file extension the rewriter touches.
const SourceFileExt = ".go"

// ConfigFileNames are looked up, in order, in every directory from the
// working directory up to the filesystem root.
var ConfigFileNames = []string{"fallible.yaml", "fallible.yml"}

// Directive marks a function for rewriting. It must start a line of the
// function's doc comment, with no space after the slashes, like go:generate.
const Directive = "//fallible:system"

// KeepArgument is the only argument the directive accepts.
const KeepArgument = "keep"

// Identifiers introduced into rewritten code.
const (
	InjectedParamName = "errorEvents"
	ErrorVarName      = "fallibleErr"
	FallibleSuffix    = "Fallible"
	SendMethodName    = "Send"
)

// Runtime package and the types generated code refers to.
const (
	RuntimeImportPath  = "github.com/funvibe/fallible/pkg/fallible"
	RuntimePackageName = "fallible"
	EventsTypeName     = "Events"
	ReportTypeName     = "ErrorReport"
	ReportNameField    = "SystemName"
	ReportErrField     = "Err"
)

// Host package and its leading capability type.
const (
	HostImportPath   = "github.com/funvibe/fallible/pkg/app"
	CommandsTypeName = "Commands"
)
