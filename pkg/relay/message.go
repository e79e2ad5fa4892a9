package relay

import (
	"fmt"
	"strconv"
	"strings"

	"formrelay/pkg/discord"
)

const (
	embedTitle       = "🆕 New form submission"
	embedColor       = 0x2ECC71
	emptyPlaceholder = "—"
)

// BuildMessage renders the outbound notification for a validated
// payload. A non-empty discord_message wins and is used verbatim as
// plain content; otherwise the discrete fields become one embed.
// Rendering is deterministic: the same payload always produces the
// same message.
func BuildMessage(p Payload, username string) discord.Message {
	if strings.TrimSpace(p.DiscordMessage) != "" {
		return discord.Message{Username: username, Content: p.DiscordMessage}
	}

	fields := []discord.EmbedField{
		{Name: "Name", Value: p.Name, Inline: true},
		{Name: "Phone", Value: p.Phone, Inline: true},
	}
	if p.Age != nil {
		fields = append(fields, discord.EmbedField{Name: "Age", Value: strconv.Itoa(*p.Age), Inline: true})
	}
	if langs := languagesValue(p); langs != "" {
		fields = append(fields, discord.EmbedField{Name: "Languages", Value: langs, Inline: true})
	}
	if p.Pack > 0 {
		fields = append(fields, discord.EmbedField{Name: "Package", Value: fmt.Sprintf("%dh", p.Pack)})
	}
	if p.Price != "" {
		fields = append(fields, discord.EmbedField{Name: "Price", Value: p.Price})
	}
	if p.Availability != "" {
		fields = append(fields, discord.EmbedField{Name: "Availability", Value: p.Availability})
	}
	message := p.Message
	if strings.TrimSpace(message) == "" {
		message = emptyPlaceholder
	}
	fields = append(fields, discord.EmbedField{Name: "Message", Value: message})

	return discord.Message{
		Username: username,
		Embeds: []discord.Embed{{
			Title:  embedTitle,
			Color:  embedColor,
			Fields: fields,
		}},
	}
}

func languagesValue(p Payload) string {
	language := strings.TrimSpace(p.Language)
	study := strings.TrimSpace(p.StudyLanguage)
	switch {
	case language != "" && study != "":
		return language + " / " + study
	case language != "":
		return language
	case study != "":
		return study
	}
	return ""
}
