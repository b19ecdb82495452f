package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Address is a named email address.
type Address struct {
	Name  string
	Email string
}

// Message is a renderable transactional email.
type Message struct {
	To          []Address
	Subject     string
	TextContent string
	HTMLContent string
}

// Mailer delivers transactional messages. Implementations must not
// block the request path on remote failures; callers treat delivery as
// best effort and only log errors.
type Mailer interface {
	Send(msg Message) error
}

var contactTemplate = template.Must(template.New("contact").Parse(`<html>
<body>
<h2>Contato recebido</h2>
<p><strong>Nome:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p>{{.Body}}</p>
</body>
</html>`))

// ContactData feeds the contact-us notification template.
type ContactData struct {
	Name  string
	Email string
	Body  string
}

// RenderContact builds the contact-us notification message.
func RenderContact(recipient Address, data ContactData) (Message, error) {
	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render contact template: %w", err)
	}
	return Message{
		To:          []Address{recipient},
		Subject:     fmt.Sprintf("Contato de %s", data.Name),
		TextContent: fmt.Sprintf("Contato de %s <%s>:\n\n%s", data.Name, data.Email, data.Body),
		HTMLContent: buf.String(),
	}, nil
}
