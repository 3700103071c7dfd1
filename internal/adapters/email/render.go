package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// markdown renders course descriptions. Raw HTML in the source is escaped.
var markdown = goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps()))

// CourseSubmission is the content of the admin e-mail raised when a course
// enters moderation.
type CourseSubmission struct {
	CourseID    string `json:"course_id"`
	OwnerName   string `json:"owner_name"`
	Title       string `json:"title"`
	Domain      string `json:"domain"`
	Price       string `json:"price"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

var submissionTemplate = template.Must(template.New("submission").Parse(`<h1>{{.Title}}</h1>
<p><strong>Proposée par :</strong> {{if .OwnerName}}{{.OwnerName}}{{else}}formation indépendante{{end}}</p>
<p><strong>Domaine :</strong> {{.Domain}}</p>
<p><strong>Tarif :</strong> {{if .Price}}{{.Price}}{{else}}non renseigné{{end}}</p>
<p><strong>Statut :</strong> {{.Status}}</p>
<hr>
{{.Description}}`))

// RenderCourseSubmission builds the subject and HTML body of a submission e-mail.
// POST: Description Markdown is converted to HTML; every other field is escaped
func RenderCourseSubmission(s CourseSubmission) (string, string, error) {
	var desc bytes.Buffer
	if err := markdown.Convert([]byte(s.Description), &desc); err != nil {
		return "", "", fmt.Errorf("render description: %w", err)
	}

	var body bytes.Buffer
	err := submissionTemplate.Execute(&body, struct {
		CourseSubmission
		Description template.HTML
	}{s, template.HTML(desc.String())})
	if err != nil {
		return "", "", fmt.Errorf("render submission email: %w", err)
	}
	return "Nouvelle formation à modérer : " + s.Title, body.String(), nil
}
