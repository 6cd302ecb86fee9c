package stats

import (
	"fmt"
	"regexp"
	"strings"
)

// ParamKind is the value type of a statistic parameter.
type ParamKind int

const (
	KindInt ParamKind = iota
	KindFloat
	KindString
	KindBool
	// KindOptionalInt is an integer whose absence is meaningful.
	KindOptionalInt
)

// ParamRole marks parameters that the parser treats specially.
type ParamRole int

const (
	RolePlain ParamRole = iota
	// RoleUser becomes the mutually exclusive -me / hidden -user <id> pair.
	RoleUser
	// RoleAutoUser implies -me and exposes only the hidden -user <id> flag.
	RoleAutoUser
)

// ParamSpec declares one parameter of a statistic.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Default any
	Role    ParamRole
	// Required makes a user-role parameter mandatory.
	Required bool
}

// FlagName is the command line spelling of the parameter.
func (p ParamSpec) FlagName() string {
	return strings.ReplaceAll(p.Name, "_", "-")
}

// Identity is a known chat member.
type Identity struct {
	ID int64
	// Username is "@handle" when the user has one, the full name otherwise.
	Username    string
	DisplayName string
}

// NewIdentity names a Telegram user from its profile fields.
func NewIdentity(id int64, username, firstName, lastName string) Identity {
	display := strings.TrimSpace(firstName + " " + lastName)
	name := display
	if username != "" {
		name = "@" + username
	}
	return Identity{ID: id, Username: name, DisplayName: display}
}

// Params holds the typed values of every statistic parameter. Each statistic
// reads only the fields it declares.
type Params struct {
	N        int
	Limit    int
	LQuery   string
	MType    string
	Start    string
	End      string
	Log      bool
	Plot     string
	Averages *int
	Duration bool
	Agg      bool
	CType    string
	Thresh   float64
	User     *Identity
}

// set assigns a parsed flag value to the matching field.
func (p *Params) set(name string, value any) error {
	switch name {
	case "n":
		p.N = value.(int)
	case "limit":
		p.Limit = value.(int)
	case "lquery":
		p.LQuery = value.(string)
	case "mtype":
		p.MType = value.(string)
	case "start":
		p.Start = value.(string)
	case "end":
		p.End = value.(string)
	case "log":
		p.Log = value.(bool)
	case "plot":
		p.Plot = value.(string)
	case "averages":
		if v, ok := value.(int); ok {
			p.Averages = &v
		}
	case "duration":
		p.Duration = value.(bool)
	case "agg":
		p.Agg = value.(bool)
	case "c_type":
		p.CType = value.(string)
	case "thresh":
		switch v := value.(type) {
		case float64:
			p.Thresh = v
		case int:
			p.Thresh = float64(v)
		}
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// paramHelp returns the text of the ":param <name>: <text>" line of doc.
func paramHelp(doc, name string) string {
	re := regexp.MustCompile(`(?m)^:param ` + regexp.QuoteMeta(name) + `: (.*)$`)
	if m := re.FindStringSubmatch(doc); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// summary returns the first line of doc.
func summary(doc string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(doc), "\n")
	return strings.TrimSpace(line)
}
