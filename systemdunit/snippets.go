package systemdunit

import (
	_ "embed"
	"strings"
	"text/template"
)

//go:embed templates/postinst.tmpl
var postinstTmplSrc string

//go:embed templates/prerm.tmpl
var prermTmplSrc string

//go:embed templates/postrm.tmpl
var postrmTmplSrc string

var (
	postinstTmpl = template.Must(template.New("postinst").Parse(postinstTmplSrc))
	prermTmpl    = template.Must(template.New("prerm").Parse(prermTmplSrc))
	postrmTmpl   = template.Must(template.New("postrm").Parse(postrmTmplSrc))
)

// snippetData is the template context for one unit's maintainer-script
// fragments.
type snippetData struct {
	Unit                string
	Enable              bool
	Start               bool
	RestartAfterUpgrade bool
	StopOnUpgrade       bool
}

// Snippets holds the generated maintainer-script fragments for every
// discovered unit, already concatenated in alphabetical unit order and
// ready to merge into the package's postinst/prerm/postrm.
type Snippets struct {
	Postinst string
	Prerm    string
	Postrm   string
}

// Options carries the four upgrade/removal behavior toggles from the
// systemd configuration block.
type Options struct {
	Enable              bool
	Start               bool
	RestartAfterUpgrade bool
	StopOnUpgrade       bool
}

// Generate builds the merged maintainer-script snippets for units, which
// must already be sorted alphabetically by Name (see Discover). Tmpfiles
// fragments are skipped: they have no enable/start lifecycle.
//
// When neither RestartAfterUpgrade nor StopOnUpgrade is set, upgrades
// leave the running unit untouched; this is the documented
// do-nothing-on-upgrade behavior.
func Generate(units []Unit, opts Options) (Snippets, error) {
	var postinst, prerm, postrm strings.Builder

	for _, u := range units {
		if u.IsTmpfile {
			continue
		}
		data := snippetData{
			Unit:                u.Name,
			Enable:              opts.Enable,
			Start:               opts.Start,
			RestartAfterUpgrade: opts.RestartAfterUpgrade,
			StopOnUpgrade:       opts.StopOnUpgrade,
		}
		if err := postinstTmpl.Execute(&postinst, data); err != nil {
			return Snippets{}, err
		}
		if err := prermTmpl.Execute(&prerm, data); err != nil {
			return Snippets{}, err
		}
		if err := postrmTmpl.Execute(&postrm, data); err != nil {
			return Snippets{}, err
		}
	}

	return Snippets{
		Postinst: postinst.String(),
		Prerm:    prerm.String(),
		Postrm:   postrm.String(),
	}, nil
}
