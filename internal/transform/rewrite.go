package transform

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"github.com/funvibe/fallible/internal/config"
)

// systemTemplate renders a rewritten declaration. The captured error is
// evaluated exactly once; the branch on it is the last statement.
const systemTemplate = `{{.Doc}}func {{with .Recv}}({{.}}) {{end}}{{.Name}}{{.TypeParams}}({{.Params}}) {
	{{.Capture}} := {{.Call}}
	if {{.ErrVar}} != nil {
		{{.Sink}}.{{.Send}}({{.Alias}}.{{.Report}}{ {{- .NameField}}: {{.SystemName}}, {{.ErrField}}: {{.ErrVar}}})
	}
}
`

var systemTmpl = template.Must(template.New("system").Parse(systemTemplate))

// Rewrite renders the declaration that replaces spec. params is the final
// parameter list from Policy.Arrange; alias is the file's local name for
// the runtime package. In Replace mode the original body is inlined in a
// closure carrying the original result list, so every return path in it
// still works. In Keep mode the body is a call to the renamed original.
func Rewrite(spec *FunctionSpec, mode Mode, params []Parameter, alias string) (string, error) {
	if spec.Results == nil {
		return "", fmt.Errorf("%s: %s: %w", spec.Pos, spec.Name, ErrMissingResultType)
	}

	params, recv := bindParams(spec, mode, params)

	var call string
	switch mode {
	case Replace:
		call = "func() " + spec.Results.Text + " {" + spec.Body + "}()"
	case Keep:
		call = forwardCall(spec, recv, params)
	default:
		return "", fmt.Errorf("%s: %s: unknown mode %v", spec.Pos, spec.Name, mode)
	}

	capture := config.ErrorVarName
	if spec.Results.Arity == 2 {
		capture = "_, " + capture
	}

	decls := make([]string, len(params))
	for i, p := range params {
		decls[i] = p.String()
	}
	recvDecl := ""
	if recv != nil {
		recvDecl = recv.String()
	}

	data := struct {
		Doc, Recv, Name, TypeParams, Params  string
		Capture, Call, ErrVar, Sink, Send    string
		Alias, Report, NameField, SystemName string
		ErrField                             string
	}{
		Doc:        spec.docText(),
		Recv:       recvDecl,
		Name:       spec.Name,
		TypeParams: spec.TypeParamsText,
		Params:     strings.Join(decls, ", "),
		Capture:    capture,
		Call:       call,
		ErrVar:     config.ErrorVarName,
		Sink:       config.InjectedParamName,
		Send:       config.SendMethodName,
		Alias:      alias,
		Report:     config.ReportTypeName,
		NameField:  config.ReportNameField,
		SystemName: strconv.Quote(spec.Name),
		ErrField:   config.ReportErrField,
	}

	var buf strings.Builder
	if err := systemTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}

// FallibleName is the name the original gets in Keep mode.
func FallibleName(name string) string {
	return name + config.FallibleSuffix
}

// bindParams gives unnamed parameters a binding. The injected parameter is
// named, and Go does not allow mixing named and unnamed parameters. Replace
// mode never refers to them, so "_" is enough; Keep mode forwards every
// parameter and needs real names. The receiver gets the same treatment.
func bindParams(spec *FunctionSpec, mode Mode, params []Parameter) ([]Parameter, *Parameter) {
	taken := make(map[string]bool, len(params)+1)
	for _, p := range params {
		taken[p.Name] = true
	}
	if spec.Recv != nil {
		taken[spec.Recv.Name] = true
	}

	fresh := func(base string, n int) string {
		for {
			name := base + strconv.Itoa(n)
			if !taken[name] {
				taken[name] = true
				return name
			}
			n++
		}
	}

	out := make([]Parameter, len(params))
	copy(out, params)
	for i := range out {
		if out[i].named() || (mode == Replace && out[i].Name == "_") {
			continue
		}
		if mode == Replace {
			out[i].Name = "_"
			continue
		}
		out[i].Name = fresh("arg", out[i].Position)
	}

	var recv *Parameter
	if spec.Recv != nil {
		r := *spec.Recv
		if mode == Keep && !r.named() {
			r.Name = fresh("recv", 0)
		}
		recv = &r
	}
	return out, recv
}

// forwardCall renders the call from the rewritten function to the renamed
// original. The injected parameter is never forwarded.
func forwardCall(spec *FunctionSpec, recv *Parameter, params []Parameter) string {
	var args []string
	for _, p := range params {
		if p.Name == config.InjectedParamName {
			continue
		}
		arg := p.Name
		if p.Variadic {
			arg += "..."
		}
		args = append(args, arg)
	}

	callee := FallibleName(spec.Name)
	switch {
	case recv != nil:
		callee = recv.Name + "." + callee
	case len(spec.TypeParams) > 0:
		callee += "[" + strings.Join(spec.TypeParams, ", ") + "]"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}
