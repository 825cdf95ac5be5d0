package models

// ParamStyle identifies a placeholder syntax inside a subtask command.
type ParamStyle string

const (
	ParamCurly            ParamStyle = "curly"             // {name}
	ParamDoubleCurly      ParamStyle = "double_curly"      // {{name}}
	ParamDollar           ParamStyle = "dollar"            // $name
	ParamDollarBrace      ParamStyle = "dollar_brace"      // ${name}
	ParamDoubleUnderscore ParamStyle = "double_underscore" // __NAME__
	ParamPercent          ParamStyle = "percent"           // %name%
	ParamAngle            ParamStyle = "angle"             // <name>
)

// AllParamStyles lists every style in substitution order. Longer
// delimiters come before the shorter forms they contain.
func AllParamStyles() []ParamStyle {
	return []ParamStyle{
		ParamDoubleCurly,
		ParamCurly,
		ParamDollarBrace,
		ParamDollar,
		ParamDoubleUnderscore,
		ParamPercent,
		ParamAngle,
	}
}

// Param is a placeholder found in a subtask command.
type Param struct {
	Name  string     `yaml:"name" json:"name"`
	Style ParamStyle `yaml:"style" json:"style"`
}

// RenderedSubtask is a subtask whose command has had parameters applied.
// Unresolved lists placeholders of the requested styles that were left in
// place because no value was supplied.
type RenderedSubtask struct {
	Subtask    `yaml:",inline"`
	Unresolved []string `yaml:"unresolved,omitempty" json:"unresolved,omitempty"`
}
