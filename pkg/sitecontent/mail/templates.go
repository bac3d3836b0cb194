package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Site carries the organisation details printed in every email.
type Site struct {
	Name       string
	Address    string
	Phone      string
	AdminEmail string
	URL        string
}

const layout = `{{define "footer"}}<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e0e0e0; text-align: center; color: #757575; font-size: 12px;">
<p>{{.Site.Name}}{{if .Site.Address}}<br>{{.Site.Address}}{{end}}{{if .Site.Phone}}<br>Phone: {{.Site.Phone}}{{end}}{{if .Site.AdminEmail}} | Email: {{.Site.AdminEmail}}{{end}}</p>
</div>{{end}}`

const welcomeHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
<div style="text-align: center; margin-bottom: 20px;"><h1 style="color: #2E7D32;">Welcome to Our Community!</h1></div>
<p>Dear Subscriber,</p>
<p>Thank you for subscribing to the <strong>{{.Site.Name}}</strong> newsletter.</p>
<p>You will now receive updates on:</p>
<ul>
<li>Our latest projects and initiatives</li>
<li>Success stories from the field</li>
<li>Upcoming events and volunteer opportunities</li>
</ul>
<p>Your support helps us make a real difference in the lives of those we serve.</p>
{{template "footer" .}}
</div>`

const adminSubscriberHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
<h2 style="color: #1565C0;">New Subscriber Alert</h2>
<p>Hello Admin,</p>
<p>A new user has just subscribed to the newsletter.</p>
<p><strong>Subscriber Email:</strong> {{.Email}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p>Please ensure they are properly managed in the admin panel.</p>
</div>`

const blogPostHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
<div style="text-align: center; margin-bottom: 20px;"><h2 style="color: #2E7D32;">New Post from {{.Site.Name}}</h2></div>
<p>Hello,</p>
<p>We have just published a new blog post that might interest you:</p>
<h3 style="color: #1565C0;"><a href="{{.URL}}" style="text-decoration: none; color: #1565C0;">{{.Title}}</a></h3>
{{if .Excerpt}}<p style="font-style: italic; color: #555;">"{{.Excerpt}}"</p>{{end}}
<div style="text-align: center; margin-top: 20px;">
<a href="{{.URL}}" style="background-color: #2E7D32; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; font-weight: bold;">Read Full Post</a>
</div>
<div style="margin-top: 30px; padding-top: 20px; border-top: 1px solid #e0e0e0; text-align: center; color: #757575; font-size: 12px;">
<p>You are receiving this email because you subscribed to our newsletter.</p>
<p><a href="{{.UnsubscribeURL}}" style="color: #757575;">Unsubscribe</a></p>
</div>
</div>`

const contactHTML = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 10px;">
<h2 style="color: #1565C0;">New Contact Form Submission</h2>
<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Subject:</strong> {{.Subject}}</p>
<p><strong>Message:</strong></p>
<p style="white-space: pre-wrap;">{{.Message}}</p>
</div>`

// Templates renders the site's emails.
type Templates struct {
	site    Site
	welcome *template.Template
	admin   *template.Template
	blog    *template.Template
	contact *template.Template
}

// NewTemplates parses the built-in templates for site.
func NewTemplates(site Site) *Templates {
	base := template.Must(template.New("layout").Parse(layout))
	parse := func(name, text string) *template.Template {
		return template.Must(template.Must(base.Clone()).New(name).Parse(text))
	}
	return &Templates{
		site:    site,
		welcome: parse("welcome", welcomeHTML),
		admin:   parse("admin", adminSubscriberHTML),
		blog:    parse("blog", blogPostHTML),
		contact: parse("contact", contactHTML),
	}
}

// Site returns the organisation details.
func (t *Templates) Site() Site {
	return t.site
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// Welcome is sent to a new subscriber.
func (t *Templates) Welcome(to string) (Message, error) {
	html, err := render(t.welcome, map[string]any{"Site": t.site})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: fmt.Sprintf("Welcome to %s Newsletter", t.site.Name), HTML: html}, nil
}

// AdminNewSubscriber tells the admin about a new subscriber.
func (t *Templates) AdminNewSubscriber(subscriberEmail string, at time.Time) (Message, error) {
	html, err := render(t.admin, map[string]any{
		"Site":  t.site,
		"Email": subscriberEmail,
		"Time":  at.Format("2006-01-02 15:04:05 MST"),
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: t.site.AdminEmail, Subject: "New Newsletter Subscriber Notification", HTML: html}, nil
}

// NewBlogPost announces a published post to a subscriber.
func (t *Templates) NewBlogPost(to, title, slug, excerpt string) (Message, error) {
	base := strings.TrimSuffix(t.site.URL, "/")
	html, err := render(t.blog, map[string]any{
		"Site":           t.site,
		"Title":          title,
		"Excerpt":        excerpt,
		"URL":            base + "/blogs/" + slug,
		"UnsubscribeURL": base + "/unsubscribe",
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: "New Blog Post: " + title, HTML: html}, nil
}

// ContactNotification forwards a contact form submission to the admin.
func (t *Templates) ContactNotification(name, email, subject, message string) (Message, error) {
	html, err := render(t.contact, map[string]any{
		"Site":    t.site,
		"Name":    name,
		"Email":   email,
		"Subject": subject,
		"Message": message,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{To: t.site.AdminEmail, Subject: "New Contact Form Submission: " + subject, HTML: html}, nil
}
