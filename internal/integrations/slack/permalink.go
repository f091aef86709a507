package slack

import (
	"fmt"
	"net/url"
	"strings"
)

// MessageLink builds the archives permalink for a message, with the
// thread_ts parameter when the message is a reply.
func MessageLink(channelID, ts, threadTS string) string {
	link := fmt.Sprintf("https://slack.com/archives/%s/p%s", channelID, strings.ReplaceAll(ts, ".", ""))
	if threadTS != "" && threadTS != ts {
		link += "?thread_ts=" + strings.ReplaceAll(threadTS, ".", "")
	}
	return link
}

// ParseMessageLink extracts channel ID and message timestamp from a Slack
// permalink. Both the web archives form
// (https://workspace.slack.com/archives/C123/p1234567890123456) and the app
// URL form (slack://channel?id=C123&message=1234567890.123456) are accepted.
func ParseMessageLink(link string) (channelID, ts string, err error) {
	parsed, err := url.Parse(link)
	if err != nil {
		return "", "", fmt.Errorf("invalid message link: %w", err)
	}

	if parsed.Scheme == "slack" {
		params := parsed.Query()
		channelID = params.Get("id")
		ts = params.Get("message")
		if channelID == "" || ts == "" {
			return "", "", fmt.Errorf("message link missing id or message: %s", link)
		}
		return channelID, ts, nil
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 3 || parts[0] != "archives" {
		return "", "", fmt.Errorf("unrecognized message link: %s", link)
	}

	channelID = parts[1]
	tsPart := parts[2]
	if !strings.HasPrefix(tsPart, "p") || len(tsPart) < 8 {
		return "", "", fmt.Errorf("unrecognized message timestamp in link: %s", link)
	}

	// pSECONDSFRACTION with a 6-digit fraction becomes SECONDS.FRACTION.
	digits := tsPart[1:]
	ts = digits[:len(digits)-6] + "." + digits[len(digits)-6:]
	return channelID, ts, nil
}
