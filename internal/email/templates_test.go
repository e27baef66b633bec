package email

import (
	"strings"
	"testing"
)

func TestRenderNotificationTemplate(t *testing.T) {
	html, err := renderEmailTemplate("notification.html", notificationEmailData{
		baseEmailData: baseEmailData{Title: "Creative package approved", Heading: "Creative package approved"},
		Message:       "Episode 12 moved to production planning.",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "Creative package approved") {
		t.Error("rendered mail is missing the heading")
	}
	if !strings.Contains(html, "Episode 12 moved to production planning.") {
		t.Error("rendered mail is missing the message body")
	}
}

func TestRenderDeadlineReminderTemplate(t *testing.T) {
	html, err := renderEmailTemplate("deadline_reminder.html", deadlineReminderEmailData{
		baseEmailData: baseEmailData{Title: "Deadline approaching", Heading: "Deadline approaching"},
		DeadlineTitle: "Editor delivery",
		EpisodeTitle:  "Season Finale",
		DueDate:       "2025-02-15",
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Editor delivery", "Season Finale", "2025-02-15"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered mail is missing %q", want)
		}
	}
}

func TestRenderUnknownTemplateFails(t *testing.T) {
	if _, err := renderEmailTemplate("missing.html", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
