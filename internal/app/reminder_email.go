// internal/app/reminder_email.go
package app

import (
	"fmt"
	"html/template"
	"strings"

	"vaccination_tracker/internal/domain/email"
	"vaccination_tracker/internal/domain/reminder"
)

const reminderSubject = "Upcoming Vaccinations"

// dueDateLayout renders dates like "Mon Feb 12 2024".
const dueDateLayout = "Mon Jan 02 2006"

var reminderHTML = template.Must(template.New("reminder").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px;">
<p>Dear {{.Name}},</p>
<p>Here are your baby's upcoming vaccinations:</p>
<ul>
{{- range .Items}}
<li><strong>{{.Vaccine}}</strong> for {{.BabyName}}, due on {{.DueDate}}</li>
{{- end}}
</ul>
<p>Regards,<br/>Chanjo Team</p>
</div>`))

type reminderItem struct {
	Vaccine  string
	BabyName string
	DueDate  string
}

// composeReminderEmail builds one message listing every due reminder of a single recipient.
func composeReminderEmail(due []*reminder.Due) (email.Message, error) {
	if len(due) == 0 {
		return email.Message{}, fmt.Errorf("no reminders to compose")
	}
	first := due[0]

	items := make([]reminderItem, 0, len(due))
	var text strings.Builder
	fmt.Fprintf(&text, "Dear %s,\n\nHere are your baby's upcoming vaccinations:\n", first.MotherName)
	for _, d := range due {
		item := reminderItem{
			Vaccine:  d.Vaccine,
			BabyName: d.BabyName,
			DueDate:  d.VaccinationDate.Format(dueDateLayout),
		}
		items = append(items, item)
		fmt.Fprintf(&text, "- %s for %s, due on %s\n", item.Vaccine, item.BabyName, item.DueDate)
	}
	text.WriteString("\nRegards,\nChanjo Team\n")

	var html strings.Builder
	err := reminderHTML.Execute(&html, struct {
		Name  string
		Items []reminderItem
	}{Name: first.MotherName, Items: items})
	if err != nil {
		return email.Message{}, fmt.Errorf("failed to render reminder email: %w", err)
	}

	return email.Message{
		ToAddress: first.MotherEmail,
		ToName:    first.MotherName,
		Subject:   reminderSubject,
		HTML:      html.String(),
		Text:      text.String(),
	}, nil
}
