package slack

import (
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/jadenj13/notify-review/internals/review"
)

const (
	greetingText = "📬 <@%s> A new review request has arrived! Please join the review as soon as you can:"
	urgentText   = "*🚨 `%s` PR: this one is extremely urgent! Please review it right away! 🚨*"
	footerText   = "💪 Code review is a core process that improves code quality, reduces bugs, and encourages knowledge sharing and collaboration between teammates.\n" +
		"🙏 We appreciate your active participation and feedback."
)

// Slack mrkdwn only treats < and > as control characters inside link text.
var titleEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// Message is a rendered direct message for one reviewer.
type Message struct {
	Handle  string
	Channel string
	Text    string
	Blocks  []slack.Block
}

// Handle returns the local part of email, or email itself when it has no "@".
func Handle(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

// FormatMessage renders n. The result depends only on n.
func FormatMessage(n review.Notification) Message {
	handle := Handle(n.Email)
	title := titleEscaper.Replace(n.Title)

	blocks := []slack.Block{
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf(greetingText, handle)), nil, nil),
		slack.NewSectionBlock(mrkdwn(fmt.Sprintf("*%s:*\n<%s|%s>", n.RepoName, n.URL, title)), nil, nil),
	}

	if len(n.Labels) > 0 {
		blocks = append(blocks, labelButtons(n.Labels))
	}

	if review.HasUrgentLabel(n.Labels) {
		blocks = append(blocks, slack.NewSectionBlock(mrkdwn(fmt.Sprintf(urgentText, review.UrgentLabel)), nil, nil))
	}

	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewContextBlock("", mrkdwn(footerText)),
	)

	return Message{
		Handle:  handle,
		Channel: "@" + handle,
		Text:    fmt.Sprintf("📬 Review requested on %s: %s", n.RepoName, title),
		Blocks:  blocks,
	}
}

func labelButtons(labels []review.Label) *slack.ActionBlock {
	elements := make([]slack.BlockElement, 0, len(labels))
	for _, l := range labels {
		btn := slack.NewButtonBlockElement("", "", slack.NewTextBlockObject(slack.PlainTextType, l.Name, false, false))
		if l.Name == review.UrgentLabel {
			btn.Style = slack.StyleDanger
		}
		elements = append(elements, btn)
	}
	return slack.NewActionBlock("", elements...)
}

func mrkdwn(text string) *slack.TextBlockObject {
	return slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
}
