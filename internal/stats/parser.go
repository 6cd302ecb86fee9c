package stats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is reported by /stats -v.
var Version = "dev"

// Invocation is a parsed /stats call before the user is resolved.
type Invocation struct {
	Statistic Statistic
	Params    Params
	// Me asks for the caller's own identity.
	Me bool
	// UserID is the explicit, internal-only -user value.
	UserID *int64
}

// Split breaks raw command text into tokens with shell quoting rules.
func Split(text string) ([]string, error) {
	tokens, err := shlex.Split(text)
	if err != nil {
		return nil, &UsageError{Msg: fmt.Sprintf("could not split arguments: %v", err)}
	}
	return tokens, nil
}

// Parse maps command tokens to a statistic and its typed parameters. Help and
// version requests and malformed arguments return a *UsageError holding the
// text to show the user.
func Parse(args []string) (Invocation, error) {
	var (
		inv Invocation
		ran bool
		out bytes.Buffer
	)

	root := newRootCommand(&inv, &ran)
	root.SetArgs(normalizeArgs(args))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))

	cmd, err := root.ExecuteC()
	if err != nil {
		msg := err.Error()
		if cmd != nil {
			msg += "\n\n" + cmd.UsageString()
		}
		return Invocation{}, &UsageError{Msg: strings.TrimSpace(msg)}
	}
	if !ran {
		return Invocation{}, &UsageError{Msg: strings.TrimSpace(out.String())}
	}
	return inv, nil
}

func newRootCommand(inv *Invocation, ran *bool) *cobra.Command {
	root := &cobra.Command{
		Use:           "/stats",
		Short:         "Chat statistics",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, _ := Lookup("counts")
			*inv = Invocation{Statistic: st, Params: st.defaults()}
			*ran = true
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("{{.Version}}\n")
	root.SetGlobalNormalizationFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	for _, st := range Statistics() {
		root.AddCommand(newStatCommand(st, inv, ran))
	}
	return root
}

func newStatCommand(st Statistic, inv *Invocation, ran *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   st.Name,
		Short: st.Summary(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := bindFlags(st, cmd.Flags())
			if err != nil {
				return err
			}
			*inv = parsed
			*ran = true
			return nil
		},
	}

	fs := cmd.Flags()
	for _, p := range st.Params {
		switch p.Role {
		case RoleUser:
			fs.Bool("me", false, "calculate stats for yourself")
			fs.Int64("user", 0, "")
			_ = fs.MarkHidden("user")
			cmd.MarkFlagsMutuallyExclusive("me", "user")
			if p.Required {
				cmd.MarkFlagsOneRequired("me", "user")
			}
		case RoleAutoUser:
			fs.Int64("user", 0, "")
			_ = fs.MarkHidden("user")
		default:
			addFlag(fs, p, paramHelp(st.Doc, p.Name))
		}
	}
	return cmd
}

func addFlag(fs *pflag.FlagSet, p ParamSpec, help string) {
	name := p.FlagName()
	short := ""
	if len(name) == 1 {
		short = name
	}
	switch p.Kind {
	case KindInt:
		fs.IntP(name, short, p.Default.(int), help)
	case KindOptionalInt:
		fs.IntP(name, short, 0, help)
	case KindFloat:
		fs.Float64P(name, short, p.Default.(float64), help)
	case KindBool:
		fs.BoolP(name, short, p.Default.(bool), help)
	default:
		fs.StringP(name, short, p.Default.(string), help)
	}
}

func bindFlags(st Statistic, fs *pflag.FlagSet) (Invocation, error) {
	inv := Invocation{Statistic: st, Params: st.defaults()}
	for _, p := range st.Params {
		if p.Role != RolePlain {
			if p.Role == RoleAutoUser {
				inv.Me = true
			} else {
				inv.Me, _ = fs.GetBool("me")
			}
			if fs.Changed("user") {
				id, err := fs.GetInt64("user")
				if err != nil {
					return Invocation{}, err
				}
				inv.UserID = &id
			}
			continue
		}

		name := p.FlagName()
		var (
			v   any
			err error
		)
		switch p.Kind {
		case KindInt:
			v, err = fs.GetInt(name)
		case KindOptionalInt:
			if !fs.Changed(name) {
				continue
			}
			v, err = fs.GetInt(name)
		case KindFloat:
			v, err = fs.GetFloat64(name)
		case KindBool:
			v, err = fs.GetBool(name)
		default:
			v, err = fs.GetString(name)
		}
		if err != nil {
			return Invocation{}, err
		}
		if err := inv.Params.set(p.Name, v); err != nil {
			return Invocation{}, err
		}
	}
	return inv, nil
}

// longFlags is every multi-letter flag name, in its dashed spelling.
func longFlags() map[string]bool {
	names := map[string]bool{"help": true, "version": true}
	for _, st := range Statistics() {
		for _, p := range st.Params {
			switch p.Role {
			case RoleUser:
				names["me"] = true
				names["user"] = true
			case RoleAutoUser:
				names["user"] = true
			default:
				if n := p.FlagName(); len(n) > 1 {
					names[n] = true
				}
			}
		}
	}
	return names
}

// normalizeArgs accepts the single-dash long flags users are used to
// (-lquery, -me, -c_type) by rewriting them to their double-dash form.
func normalizeArgs(args []string) []string {
	known := longFlags()
	out := make([]string, 0, len(args))
	for i, a := range args {
		if a == "--" {
			return append(out, args[i:]...)
		}
		if len(a) > 2 && a[0] == '-' && a[1] != '-' {
			name, _, _ := strings.Cut(a[1:], "=")
			if known[strings.ReplaceAll(name, "_", "-")] {
				a = "-" + a
			}
		}
		out = append(out, a)
	}
	return out
}
