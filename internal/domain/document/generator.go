// Package document renders the printable prescription. Generation
// implicitly saves the current visit first: documents are only produced
// for saved visits.
package document

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/clinicdesk/clinicdesk/internal/domain/registry"
	"github.com/clinicdesk/clinicdesk/internal/domain/settings"
	"github.com/clinicdesk/clinicdesk/internal/domain/visit"
	"github.com/clinicdesk/clinicdesk/pkg/bmi"
)

// Document is a rendered prescription plus the save outcome that produced
// it. Persisted mirrors SaveResult.Persisted.
type Document struct {
	HTML      string       `json:"html"`
	Visit     *visit.Visit `json:"visit"`
	Persisted bool         `json:"persisted"`
}

type Generator struct {
	tmpl     *template.Template
	session  *visit.Session
	settings *settings.Service
}

func NewGenerator(session *visit.Session, settings *settings.Service) (*Generator, error) {
	tmpl, err := template.New("prescription").Funcs(template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).Parse(prescriptionTmpl)
	if err != nil {
		return nil, err
	}
	return &Generator{tmpl: tmpl, session: session, settings: settings}, nil
}

type templateData struct {
	Clinic      settings.Clinic
	Patient     *registry.Patient
	Visit       *visit.Visit
	BMI         *bmi.Result
	GeneratedAt time.Time
}

// Generate saves the current visit and renders it. ErrNoActivePatient when
// the session is unloaded.
func (g *Generator) Generate(ctx context.Context) (*Document, error) {
	res, err := g.session.Save(ctx)
	if err != nil {
		return nil, err
	}

	data := templateData{
		Clinic:      g.settings.Get(),
		Patient:     g.session.ActivePatient(),
		Visit:       res.Visit,
		GeneratedAt: time.Now(),
	}
	if r, ok := bmi.Calculate(res.Visit.Vitals.Weight, res.Visit.Vitals.Height); ok {
		data.BMI = &r
	}

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return &Document{HTML: buf.String(), Visit: res.Visit, Persisted: res.Persisted}, nil
}

const prescriptionTmpl = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Prescription - {{.Patient.Name}}</title>
<style>
  body { font-family: Georgia, serif; margin: 24px; color: #222; }
  header { border-bottom: 2px solid #222; padding-bottom: 8px; }
  h1 { margin: 0; font-size: 20px; }
  .meta { font-size: 12px; color: #555; }
  table { width: 100%; border-collapse: collapse; margin-top: 8px; }
  th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; font-size: 13px; }
  section { margin-top: 16px; }
  h2 { font-size: 14px; margin-bottom: 4px; border-bottom: 1px solid #aaa; }
  footer { margin-top: 32px; font-size: 11px; color: #777; border-top: 1px solid #aaa; padding-top: 6px; }
  .rx-mark { font-size: 22px; font-weight: bold; }
</style>
</head>
<body>
<header>
  <h1>{{.Clinic.ClinicName}}</h1>
  <div class="meta">{{.Clinic.DoctorName}}{{if .Clinic.Address}} &middot; {{.Clinic.Address}}{{end}}</div>
</header>

<section>
  <table>
    <tr>
      <td><strong>{{.Patient.Name}}</strong> ({{.Patient.UHID}})</td>
      <td>{{if .Patient.Age}}{{.Patient.Age}} yrs{{end}} {{.Patient.Sex}}</td>
      <td>{{.Visit.Date.Format "02 Jan 2006"}}</td>
    </tr>
  </table>
  {{if .Patient.Allergies}}<div class="meta"><strong>Allergies:</strong> {{.Patient.Allergies}}</div>{{end}}
  {{if .Patient.Chronic}}<div class="meta"><strong>Chronic:</strong> {{.Patient.Chronic}}</div>{{end}}
</section>

{{with .Visit.Vitals}}{{if or .BP .Pulse .Temp .SpO2 .Weight .Height}}
<section>
  <h2>Vitals</h2>
  <div class="meta">
    {{if .BP}}BP {{.BP}} &nbsp;{{end}}{{if .Pulse}}Pulse {{.Pulse}} &nbsp;{{end}}{{if .Temp}}Temp {{.Temp}} &nbsp;{{end}}{{if .SpO2}}SpO2 {{.SpO2}} &nbsp;{{end}}{{if .Weight}}Wt {{.Weight}} kg &nbsp;{{end}}{{if .Height}}Ht {{.Height}} cm{{end}}
    {{if $.BMI}}&nbsp;BMI {{$.BMI.Value}} ({{$.BMI.Status}}){{end}}
  </div>
</section>
{{end}}{{end}}

{{with .Visit.Notes}}
{{if .Complaint}}<section><h2>Chief Complaint</h2><p>{{.Complaint}}</p></section>{{end}}
{{if .Exam}}<section><h2>Examination</h2><p>{{.Exam}}</p></section>{{end}}
{{if .Diagnosis}}<section><h2>Diagnosis</h2><p>{{.Diagnosis}}</p></section>{{end}}
{{end}}

{{if .Visit.Rx}}
<section>
  <h2><span class="rx-mark">&#8478;</span></h2>
  <table>
    <tr><th>#</th><th>Drug</th><th>Dose</th><th>Frequency</th><th>Duration</th><th>Remarks</th></tr>
    {{range $i, $item := .Visit.Rx}}
    <tr>
      <td>{{add $i 1}}</td>
      <td>{{$item.Drug}}</td>
      <td>{{$item.Dose}}</td>
      <td>{{$item.Freq}}</td>
      <td>{{$item.Duration}}</td>
      <td>{{$item.Remarks}}</td>
    </tr>
    {{end}}
  </table>
</section>
{{end}}

{{with .Visit.Notes}}
{{if .Investigations}}<section><h2>Investigations</h2><p>{{.Investigations}}</p></section>{{end}}
{{if .Advice}}<section><h2>Advice</h2><p>{{.Advice}}</p></section>{{end}}
{{end}}

<footer>
  {{if .Clinic.FooterNote}}{{.Clinic.FooterNote}} &middot; {{end}}Generated {{.GeneratedAt.Format "02 Jan 2006 15:04"}}
</footer>
</body>
</html>
`
